package purchases

import (
	"testing"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/products"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFeature = features.Path("news.premium")

var (
	productA = products.NewNonConsumable("com.example.a", "A")
	productB = products.NewNonConsumable("com.example.b", "B")
	monthly  = products.NewSubscription("com.example.monthly", "Monthly")
)

// stubTracker reports fixed statuses per product ID; absent IDs are Unknown.
type stubTracker struct {
	statuses      map[string]tristate.Value
	pastPurchases bool
}

func (s *stubTracker) status(p products.Product) tristate.Value {
	if v, ok := s.statuses[p.ID()]; ok {
		return v
	}
	return tristate.Unknown
}

func (s *stubTracker) IsPurchased(p products.Product) tristate.Value { return s.status(p) }

func (s *stubTracker) IsSubscriptionActive(p products.Product) tristate.Value {
	return s.status(p)
}

func (s *stubTracker) IsFeatureEnabledByPastPurchases(feature features.Path) bool {
	return s.pastPurchases
}

func TestEmptyRequirementIsVacuouslyFulfilled(t *testing.T) {
	r := NewRequirement(MatchAll, nil)
	assert.Equal(t, tristate.True, IsFulfilled(r, &stubTracker{}, testFeature))

	r = NewRequirement(MatchAny, nil)
	assert.Equal(t, tristate.True, IsFulfilled(r, &stubTracker{}, testFeature))
}

func TestMatchAll(t *testing.T) {
	cases := []struct {
		name     string
		a, b     tristate.Value
		expected tristate.Value
	}{
		{"both purchased", tristate.True, tristate.True, tristate.True},
		{"one not purchased", tristate.True, tristate.False, tristate.False},
		{"false dominates unknown", tristate.Unknown, tristate.False, tristate.False},
		{"unknown propagates", tristate.True, tristate.Unknown, tristate.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := &stubTracker{statuses: map[string]tristate.Value{
				productA.ID(): tc.a,
				productB.ID(): tc.b,
			}}
			r := NewRequirement(MatchAll, []products.Product{productA, productB})
			assert.Equal(t, tc.expected, IsFulfilled(r, tracker, testFeature))
		})
	}
}

func TestMatchAny(t *testing.T) {
	cases := []struct {
		name     string
		a, b     tristate.Value
		expected tristate.Value
	}{
		{"one purchased", tristate.False, tristate.True, tristate.True},
		{"none purchased", tristate.False, tristate.False, tristate.False},
		{"unknown beats false", tristate.False, tristate.Unknown, tristate.Unknown},
		{"unknown beats false regardless of order", tristate.Unknown, tristate.False, tristate.Unknown},
		{"true beats unknown", tristate.Unknown, tristate.True, tristate.True},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := &stubTracker{statuses: map[string]tristate.Value{
				productA.ID(): tc.a,
				productB.ID(): tc.b,
			}}
			r := NewRequirement(MatchAny, []products.Product{productA, productB})
			assert.Equal(t, tc.expected, IsFulfilled(r, tracker, testFeature))
		})
	}
}

func TestPastPurchasesUpgradeButNeverDowngrade(t *testing.T) {
	// A past-purchase unlock upgrades false and unknown to true.
	tracker := &stubTracker{
		statuses:      map[string]tristate.Value{productA.ID(): tristate.False},
		pastPurchases: true,
	}
	r := NewRequirement(MatchAll, []products.Product{productA})
	assert.Equal(t, tristate.True, IsFulfilled(r, tracker, testFeature))

	tracker.statuses[productA.ID()] = tristate.Unknown
	assert.Equal(t, tristate.True, IsFulfilled(r, tracker, testFeature))

	// A definite true stays true.
	tracker.statuses[productA.ID()] = tristate.True
	assert.Equal(t, tristate.True, IsFulfilled(r, tracker, testFeature))
}

func TestSubscriptionDispatch(t *testing.T) {
	tracker := &stubTracker{statuses: map[string]tristate.Value{monthly.ID(): tristate.True}}
	r := NewRequirement(MatchAll, []products.Product{monthly})
	assert.Equal(t, tristate.True, IsFulfilled(r, tracker, testFeature))
}

func TestDependencyGating(t *testing.T) {
	depFulfilled := NewRequirement(MatchAll, []products.Product{productB})

	t.Run("dependencies skipped when direct requirement fails", func(t *testing.T) {
		tracker := &stubTracker{statuses: map[string]tristate.Value{
			productA.ID(): tristate.False,
			productB.ID(): tristate.True,
		}}
		r := NewRequirement(MatchAll, []products.Product{productA}, depFulfilled)
		assert.Equal(t, tristate.False, IsFulfilled(r, tracker, testFeature))
	})

	t.Run("dependencies consulted when direct requirement passes", func(t *testing.T) {
		tracker := &stubTracker{statuses: map[string]tristate.Value{
			productA.ID(): tristate.True,
			productB.ID(): tristate.True,
		}}
		r := NewRequirement(MatchAll, []products.Product{productA}, depFulfilled)
		assert.Equal(t, tristate.True, IsFulfilled(r, tracker, testFeature))
	})

	t.Run("zero products defers entirely to dependencies", func(t *testing.T) {
		tracker := &stubTracker{statuses: map[string]tristate.Value{
			productB.ID(): tristate.True,
		}}
		r := NewRequirement(MatchAny, nil, depFulfilled)
		assert.Equal(t, tristate.True, IsFulfilled(r, tracker, testFeature))
	})

	t.Run("unknown dependency collapses to false", func(t *testing.T) {
		// An unresolved child must not leave the node waiting: the
		// dependency-combination step reports false, not unknown.
		tracker := &stubTracker{statuses: map[string]tristate.Value{
			productA.ID(): tristate.True,
			productB.ID(): tristate.Unknown,
		}}
		r := NewRequirement(MatchAll, []products.Product{productA}, depFulfilled)
		assert.Equal(t, tristate.False, IsFulfilled(r, tracker, testFeature))
	})

	t.Run("false dependency fails the node", func(t *testing.T) {
		tracker := &stubTracker{statuses: map[string]tristate.Value{
			productA.ID(): tristate.True,
			productB.ID(): tristate.False,
		}}
		r := NewRequirement(MatchAll, []products.Product{productA}, depFulfilled)
		assert.Equal(t, tristate.False, IsFulfilled(r, tracker, testFeature))
	})
}

func TestUnknownProductStatusPropagates(t *testing.T) {
	// Tracker with no data at all: everything is unknown.
	r := NewRequirement(MatchAll, []products.Product{productA})
	assert.Equal(t, tristate.Unknown, IsFulfilled(r, &stubTracker{}, testFeature))
}

func TestConsumableRejectedAtConstruction(t *testing.T) {
	coins := products.NewConsumable("com.example.coins", "Coins", 100)
	assert.Panics(t, func() {
		NewRequirement(MatchAll, []products.Product{coins})
	})
}

func TestDuplicateProductsCollapsed(t *testing.T) {
	again := products.NewNonConsumable("com.example.a", "A again")
	r := NewRequirement(MatchAll, []products.Product{productA, again, productB})
	require.Len(t, r.Products(), 2)
}

func TestProductIDs(t *testing.T) {
	dep := NewRequirement(MatchAll, []products.Product{productB, monthly})
	r := NewRequirement(MatchAny, []products.Product{productA, productB}, dep)
	assert.Equal(t, []string{"com.example.a", "com.example.b", "com.example.monthly"}, r.ProductIDs())
}

func TestRequirementString(t *testing.T) {
	dep := NewRequirement(MatchAll, []products.Product{productB})
	r := NewRequirement(MatchAny, []products.Product{productA}, dep)
	assert.Equal(t, "anyOf(com.example.a) requiring [allOf(com.example.b)]", r.String())
}
