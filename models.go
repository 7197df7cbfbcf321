package featuregate

import (
	"time"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/permissions"
	"github.com/featuregate/featuregate-go/constraintengine/platforms"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
	"github.com/google/uuid"
)

// FeatureConstraints is the declared constraint bundle for one feature. All
// slices may be empty; an empty bundle is always satisfied.
type FeatureConstraints struct {
	Platforms     []platforms.Constraint
	Preconditions []preconditions.Constraint
	Permissions   []permissions.Constraint
}

// PlatformConstraintResult is the itemized outcome for one platform
// constraint. Inactive constraints (declared for a platform the process is
// not running on) report Fulfilled true and never block the feature.
type PlatformConstraintResult struct {
	Constraint platforms.Constraint
	Active     bool
	Fulfilled  tristate.Value
	Parameters string
}

// PreconditionConstraintResult is the itemized outcome for one precondition.
type PreconditionConstraintResult struct {
	Constraint preconditions.Constraint
	Active     bool
	Fulfilled  tristate.Value
	Parameters string
}

// PermissionConstraintResult is the itemized outcome for one permission
// constraint.
type PermissionConstraintResult struct {
	Constraint permissions.Constraint
	Active     bool
	Fulfilled  tristate.Value
	Parameters string
}

// EvaluationResult is the engine's structured answer for one feature.
// Results are immutable once built; a cached result is returned as-is on
// subsequent evaluations.
type EvaluationResult struct {
	ID        uuid.UUID
	Feature   features.Path
	Satisfied tristate.Value

	Platforms     []PlatformConstraintResult
	Preconditions []PreconditionConstraintResult
	Permissions   []PermissionConstraintResult

	EvaluatedAt time.Time
}

// IsAvailable reports a definite yes. Indeterminate results count as
// unavailable; callers that need to distinguish read Satisfied directly.
func (r *EvaluationResult) IsAvailable() bool {
	return r.Satisfied == tristate.True
}
