// Package purchases models purchase requirements as boolean expression trees
// over products, and evaluates them against a Tracker using three-valued
// logic. Requirements are built once at feature-declaration time and are
// immutable afterwards; trees are finite and acyclic by construction.
package purchases

import (
	"fmt"
	"strings"

	"github.com/featuregate/featuregate-go/constraintengine/products"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MatchingCriteria selects how a requirement's own products combine.
type MatchingCriteria string

const (
	// MatchAny is satisfied when at least one product is owned.
	MatchAny MatchingCriteria = "ANY"
	// MatchAll is satisfied when every product is owned.
	MatchAll MatchingCriteria = "ALL"
)

// Requirement is one node of a purchase requirement tree: a set of products
// combined under a matching criteria, ANDed with any child dependencies.
type Requirement struct {
	products     []products.Product
	criteria     MatchingCriteria
	dependencies []*Requirement
}

// NewRequirement builds a requirement node. Duplicate products (by ID) are
// collapsed to the first occurrence. Consumable products cannot gate
// features; passing one is a declaration bug and panics.
func NewRequirement(criteria MatchingCriteria, prods []products.Product, dependencies ...*Requirement) *Requirement {
	unique := make([]products.Product, 0, len(prods))
	seen := make(map[string]struct{}, len(prods))
	for _, p := range prods {
		if p.Kind() == products.Consumable {
			panic(fmt.Sprintf("purchases: consumable product %q cannot be part of a purchase requirement", p.ID()))
		}
		if _, ok := seen[p.ID()]; ok {
			continue
		}
		seen[p.ID()] = struct{}{}
		unique = append(unique, p)
	}
	for _, dep := range dependencies {
		if dep == nil {
			panic("purchases: nil dependency in purchase requirement")
		}
	}
	return &Requirement{
		products:     unique,
		criteria:     criteria,
		dependencies: slices.Clone(dependencies),
	}
}

// Products returns the node's own products in declaration order.
func (r *Requirement) Products() []products.Product {
	return slices.Clone(r.products)
}

func (r *Requirement) Criteria() MatchingCriteria { return r.criteria }

// Dependencies returns the ordered child requirements.
func (r *Requirement) Dependencies() []*Requirement {
	return slices.Clone(r.dependencies)
}

// ProductIDs returns every product ID referenced anywhere in the tree,
// sorted and deduplicated. Engines use this for targeted cache invalidation
// when a purchase status change names the affected products.
func (r *Requirement) ProductIDs() []string {
	ids := make(map[string]struct{})
	r.collectProductIDs(ids)
	out := maps.Keys(ids)
	slices.Sort(out)
	return out
}

func (r *Requirement) collectProductIDs(ids map[string]struct{}) {
	for _, p := range r.products {
		ids[p.ID()] = struct{}{}
	}
	for _, dep := range r.dependencies {
		dep.collectProductIDs(ids)
	}
}

func (r *Requirement) String() string {
	var sb strings.Builder
	switch r.criteria {
	case MatchAll:
		sb.WriteString("allOf(")
	default:
		sb.WriteString("anyOf(")
	}
	for i, p := range r.products {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.ID())
	}
	sb.WriteString(")")
	if len(r.dependencies) > 0 {
		deps := make([]string, len(r.dependencies))
		for i, dep := range r.dependencies {
			deps[i] = dep.String()
		}
		fmt.Fprintf(&sb, " requiring [%s]", strings.Join(deps, "; "))
	}
	return sb.String()
}
