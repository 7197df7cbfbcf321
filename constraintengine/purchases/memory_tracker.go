package purchases

import (
	"fmt"
	"sync"
	"time"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/products"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
	"github.com/itlightning/dateparse"
)

// MemoryTracker is an in-memory ObservableTracker. It backs tests and local
// development, and doubles as the reference implementation of the
// observation contract engines need for caching. Products the tracker has
// never been told about report Unknown, mirroring a store whose receipt
// data has not arrived yet.
type MemoryTracker struct {
	mu            sync.Mutex
	purchased     map[string]bool
	subscriptions map[string]time.Time
	pastPurchases map[features.Path]bool
	observers     []Observer
	now           func() time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		purchased:     make(map[string]bool),
		subscriptions: make(map[string]time.Time),
		pastPurchases: make(map[features.Path]bool),
		now:           time.Now,
	}
}

// SetPurchased records a definite purchase status for a product.
func (t *MemoryTracker) SetPurchased(p products.Product, purchased bool) {
	t.mu.Lock()
	t.purchased[p.ID()] = purchased
	t.mu.Unlock()
	t.notify([]string{p.ID()})
}

// SetSubscriptionExpiry records a subscription's expiry from a timestamp in
// any common format ("2026-01-02", RFC3339, unix seconds, ...). The
// subscription counts as active until that instant.
func (t *MemoryTracker) SetSubscriptionExpiry(p products.Product, expiry string) error {
	expires, err := dateparse.ParseAny(expiry)
	if err != nil {
		return fmt.Errorf("purchases: cannot parse expiry %q for product %q: %w", expiry, p.ID(), err)
	}
	t.mu.Lock()
	t.subscriptions[p.ID()] = expires
	t.mu.Unlock()
	t.notify([]string{p.ID()})
	return nil
}

// EnableByPastPurchase grandfathers a feature unlocked by a legacy purchase.
func (t *MemoryTracker) EnableByPastPurchase(feature features.Path) {
	t.mu.Lock()
	t.pastPurchases[feature] = true
	t.mu.Unlock()
	t.notify(nil)
}

// Forget drops all recorded state for a product, returning it to Unknown.
func (t *MemoryTracker) Forget(p products.Product) {
	t.mu.Lock()
	delete(t.purchased, p.ID())
	delete(t.subscriptions, p.ID())
	t.mu.Unlock()
	t.notify([]string{p.ID()})
}

func (t *MemoryTracker) IsPurchased(p products.Product) tristate.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	owned, ok := t.purchased[p.ID()]
	if !ok {
		return tristate.Unknown
	}
	return tristate.FromBool(owned)
}

func (t *MemoryTracker) IsSubscriptionActive(p products.Product) tristate.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	expires, ok := t.subscriptions[p.ID()]
	if !ok {
		return tristate.Unknown
	}
	return tristate.FromBool(t.now().Before(expires))
}

func (t *MemoryTracker) IsFeatureEnabledByPastPurchases(feature features.Path) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pastPurchases[feature]
}

func (t *MemoryTracker) AddObserver(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

func (t *MemoryTracker) notify(productIDs []string) {
	t.mu.Lock()
	observers := make([]Observer, len(t.observers))
	copy(observers, t.observers)
	t.mu.Unlock()
	for _, o := range observers {
		o.PurchaseStatusChanged(productIDs)
	}
}
