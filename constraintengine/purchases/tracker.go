package purchases

import (
	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/products"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Tracker is the external collaborator that knows purchase state. Answers
// are tri-state: Unknown means the underlying store (receipts, StoreKit
// callbacks) has not resolved yet. Trackers own any retry logic; the
// evaluator simply reflects whatever the tracker currently reports.
type Tracker interface {
	// IsPurchased reports ownership of a non-consumable product.
	IsPurchased(p products.Product) tristate.Value
	// IsSubscriptionActive reports whether a subscription product is
	// currently active.
	IsSubscriptionActive(p products.Product) tristate.Value
	// IsFeatureEnabledByPastPurchases lets the tracker grandfather features
	// unlocked by legacy purchases regardless of per-product status.
	IsFeatureEnabledByPastPurchases(feature features.Path) bool
}

// Observer is notified when purchase status changes. An empty productIDs
// slice means the set of affected products is not known and everything
// purchase-dependent should be considered stale.
type Observer interface {
	PurchaseStatusChanged(productIDs []string)
}

// ObservableTracker is a Tracker that can report status changes. Engines
// only cache purchase-dependent results when their tracker is observable.
type ObservableTracker interface {
	Tracker
	AddObserver(o Observer)
}
