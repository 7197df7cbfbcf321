// Package permissions defines permission-grant constraints. The actual
// permission prompting and status lookup lives in an external Checker; this
// package only carries the constraint shape and the tri-state contract.
package permissions

import (
	"fmt"

	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Permission names a system permission a feature may require.
type Permission string

const (
	Camera        Permission = "camera"
	Photos        Permission = "photos"
	Microphone    Permission = "microphone"
	Location      Permission = "location"
	Contacts      Permission = "contacts"
	Notifications Permission = "notifications"
)

// Checker reports permission status: True when granted, False when denied,
// Unknown while the user has not been asked yet.
type Checker interface {
	Status(p Permission) tristate.Value
}

// Observer is notified when a permission's grant status changes.
type Observer interface {
	PermissionChanged(p Permission)
}

// ObservableChecker is a Checker that can report status changes. Engines
// only cache permission-dependent results when their checker is observable.
type ObservableChecker interface {
	Checker
	AddObserver(o Observer)
}

// Constraint requires one permission to be granted.
type Constraint struct {
	Permission Permission
}

func (c Constraint) String() string {
	return fmt.Sprintf("permission(%s)", c.Permission)
}
