// Package products models the purchasable entities referenced by purchase
// requirements. Products are immutable values identified by a store product
// ID; two products are equal iff their IDs match.
package products

import "fmt"

// Kind is the closed set of product variants.
type Kind string

const (
	// NonConsumable products are bought once and owned forever.
	NonConsumable Kind = "NON_CONSUMABLE"
	// Consumable products carry a display-only quantity. They cannot gate
	// features: ownership of a consumable is not a boolean.
	Consumable Kind = "CONSUMABLE"
	// Subscription products are owned while the subscription is active.
	Subscription Kind = "SUBSCRIPTION"
)

// Product describes one purchasable entity.
type Product struct {
	id       string
	name     string
	kind     Kind
	quantity int
}

// NewNonConsumable declares a one-time purchase product.
func NewNonConsumable(id, name string) Product {
	return Product{id: id, name: name, kind: NonConsumable}
}

// NewConsumable declares a consumable product. The quantity is informational
// only and never enforced by constraint evaluation.
func NewConsumable(id, name string, quantity int) Product {
	return Product{id: id, name: name, kind: Consumable, quantity: quantity}
}

// NewSubscription declares a subscription product.
func NewSubscription(id, name string) Product {
	return Product{id: id, name: name, kind: Subscription}
}

func (p Product) ID() string    { return p.id }
func (p Product) Name() string  { return p.name }
func (p Product) Kind() Kind    { return p.kind }
func (p Product) Quantity() int { return p.quantity }

// Equal compares by product ID only.
func (p Product) Equal(other Product) bool { return p.id == other.id }

func (p Product) String() string {
	if p.kind == Consumable {
		return fmt.Sprintf("%s (%s x%d)", p.id, p.kind, p.quantity)
	}
	return fmt.Sprintf("%s (%s)", p.id, p.kind)
}
