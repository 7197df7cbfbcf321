package purchases

import (
	"fmt"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/products"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// IsFulfilled evaluates a requirement tree against the tracker for the given
// feature.
//
// A node with no products and no dependencies is vacuously fulfilled.
// Dependencies are consulted only when the node's own product match
// succeeded, or when the node declared no products at all (deferring
// entirely to its dependencies). The two stages treat unknown differently:
// product matching keeps unknown distinct, while at the dependency step any
// child that is not strictly true makes the node false. An unresolved
// dependency therefore reads as unsatisfied, never as pending.
func IsFulfilled(r *Requirement, tracker Tracker, feature features.Path) tristate.Value {
	if len(r.products) == 0 && len(r.dependencies) == 0 {
		return tristate.True
	}

	if len(r.products) > 0 {
		matched := r.matchProducts(tracker, feature)
		if matched != tristate.True {
			return matched
		}
	}

	for _, dep := range r.dependencies {
		if IsFulfilled(dep, tracker, feature) != tristate.True {
			return tristate.False
		}
	}
	return tristate.True
}

// matchProducts combines per-product fulfilment under the node's criteria.
// MatchAll: a definite false dominates, otherwise any unknown propagates.
// MatchAny: a definite true dominates, otherwise unknown beats false when no
// product is owned. The tie-break is deterministic regardless of product
// order.
func (r *Requirement) matchProducts(tracker Tracker, feature features.Path) tristate.Value {
	switch r.criteria {
	case MatchAll:
		combined := tristate.True
		for _, p := range r.products {
			switch establishFulfilment(p, tracker, feature) {
			case tristate.False:
				return tristate.False
			case tristate.Unknown:
				combined = tristate.Unknown
			}
		}
		return combined
	case MatchAny:
		combined := tristate.False
		for _, p := range r.products {
			switch establishFulfilment(p, tracker, feature) {
			case tristate.True:
				return tristate.True
			case tristate.Unknown:
				combined = tristate.Unknown
			}
		}
		return combined
	default:
		panic(fmt.Sprintf("purchases: unsupported matching criteria %q", r.criteria))
	}
}

// establishFulfilment resolves one product's status. When the direct lookup
// is not a definite true, the tracker gets a second chance through
// IsFeatureEnabledByPastPurchases, which upgrades the result to true; a true
// result is never downgraded.
func establishFulfilment(p products.Product, tracker Tracker, feature features.Path) tristate.Value {
	var status tristate.Value
	switch p.Kind() {
	case products.NonConsumable:
		status = tracker.IsPurchased(p)
	case products.Subscription:
		status = tracker.IsSubscriptionActive(p)
	default:
		panic(fmt.Sprintf("purchases: product %q of kind %s cannot be evaluated as a purchase condition", p.ID(), p.Kind()))
	}

	if status != tristate.True && tracker.IsFeatureEnabledByPastPurchases(feature) {
		return tristate.True
	}
	return status
}
