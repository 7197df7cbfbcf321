// Package preconditions defines the atomic runtime conditions a feature can
// declare, and one evaluator per condition kind. Evaluators are stateless
// pure functions over injected collaborators; passing a constraint of the
// wrong kind to an evaluator is a declaration bug and panics.
package preconditions

import (
	"fmt"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/purchases"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Kind is the closed set of precondition variants.
type Kind string

const (
	KindRuntimeEnabled   Kind = "RUNTIME_ENABLED"
	KindUserToggled      Kind = "USER_TOGGLED"
	KindPurchaseRequired Kind = "PURCHASE_REQUIRED"
)

// Constraint is one declared precondition. Use the constructors; the zero
// value is not a valid constraint.
type Constraint struct {
	kind         Kind
	defaultValue bool
	requirement  *purchases.Requirement
}

// RuntimeEnabled requires the feature's own runtime-enabled flag.
func RuntimeEnabled() Constraint {
	return Constraint{kind: KindRuntimeEnabled}
}

// UserToggled requires the user's toggle for the feature, falling back to
// defaultValue when the toggle store has no entry.
func UserToggled(defaultValue bool) Constraint {
	return Constraint{kind: KindUserToggled, defaultValue: defaultValue}
}

// PurchaseRequired requires a purchase requirement tree to be fulfilled.
func PurchaseRequired(r *purchases.Requirement) Constraint {
	if r == nil {
		panic("preconditions: nil purchase requirement")
	}
	return Constraint{kind: KindPurchaseRequired, requirement: r}
}

func (c Constraint) Kind() Kind         { return c.kind }
func (c Constraint) DefaultValue() bool { return c.defaultValue }

// Requirement returns the wrapped purchase requirement, or nil for other
// kinds.
func (c Constraint) Requirement() *purchases.Requirement { return c.requirement }

func (c Constraint) String() string {
	switch c.kind {
	case KindRuntimeEnabled:
		return "runtimeEnabled"
	case KindUserToggled:
		return fmt.Sprintf("userToggled(default: %t)", c.defaultValue)
	case KindPurchaseRequired:
		return fmt.Sprintf("purchaseRequired(%s)", c.requirement)
	default:
		return string(c.kind)
	}
}

// UserFeatureToggles is the external store of per-user feature toggles.
// Unknown means the store has no entry for the feature.
type UserFeatureToggles interface {
	IsEnabled(feature features.Path) tristate.Value
}

// ToggleObserver is notified when toggles change. An empty feature list
// means the set of affected features is not known and every toggle should
// be considered stale.
type ToggleObserver interface {
	ToggleChanged(feature ...features.Path)
}

// ObservableToggles is a toggle store that can report changes. Engines only
// cache toggle-dependent results when their store is observable.
type ObservableToggles interface {
	UserFeatureToggles
	AddObserver(o ToggleObserver)
}
