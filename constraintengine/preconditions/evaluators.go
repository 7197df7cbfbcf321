package preconditions

import (
	"fmt"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/purchases"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Evaluator answers whether one precondition is currently fulfilled for one
// feature.
type Evaluator interface {
	IsFulfilled(c Constraint, f *features.Feature) tristate.Value
}

func assertKind(c Constraint, want Kind) {
	if c.Kind() != want {
		panic(fmt.Sprintf("preconditions: %s evaluator invoked with %s constraint", want, c.Kind()))
	}
}

// RuntimeEvaluator answers runtimeEnabled preconditions from the feature's
// own flag. Never unknown.
type RuntimeEvaluator struct{}

func (RuntimeEvaluator) IsFulfilled(c Constraint, f *features.Feature) tristate.Value {
	assertKind(c, KindRuntimeEnabled)
	return tristate.FromBool(f.Enabled())
}

// UserToggleEvaluator answers userToggled preconditions from a toggle store,
// falling back to the constraint's declared default when the store has no
// entry (or no store was supplied). Never unknown.
type UserToggleEvaluator struct {
	Toggles UserFeatureToggles
}

func (e UserToggleEvaluator) IsFulfilled(c Constraint, f *features.Feature) tristate.Value {
	assertKind(c, KindUserToggled)
	if e.Toggles == nil {
		return tristate.FromBool(c.DefaultValue())
	}
	v := e.Toggles.IsEnabled(f.Path())
	if !v.Known() {
		return tristate.FromBool(c.DefaultValue())
	}
	return v
}

// PurchaseEvaluator answers purchaseRequired preconditions by walking the
// requirement tree against the tracker. Unknown when no tracker is wired or
// purchase state has not resolved.
type PurchaseEvaluator struct {
	Tracker purchases.Tracker
}

func (e PurchaseEvaluator) IsFulfilled(c Constraint, f *features.Feature) tristate.Value {
	assertKind(c, KindPurchaseRequired)
	if e.Tracker == nil {
		return tristate.Unknown
	}
	return purchases.IsFulfilled(c.Requirement(), e.Tracker, f.Path())
}
