package featuregate

import (
	"testing"

	"github.com/blang/semver/v4"
	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/permissions"
	"github.com/featuregate/featuregate-go/constraintengine/platforms"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/products"
	"github.com/featuregate/featuregate-go/constraintengine/purchases"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
	"github.com/featuregate/featuregate-go/togglestore"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const premium = features.Path("news.premium")

var productA = products.NewNonConsumable("com.example.a", "A")

func newTestGraph() *features.Graph {
	g := features.NewGraph()
	g.Register(features.New("news", "News", "News stand"))
	g.Register(features.New(premium, "Premium", "Premium news"))
	return g
}

func testRuntime(version string) platforms.Runtime {
	v := semver.MustParse(version)
	return platforms.Runtime{Platform: platforms.IOS, Version: &v}
}

// countingTracker wraps a tracker and counts status lookups, to prove a
// cached feature is evaluated exactly once.
type countingTracker struct {
	purchases.Tracker
	lookups int
}

func (c *countingTracker) IsPurchased(p products.Product) tristate.Value {
	c.lookups++
	return c.Tracker.IsPurchased(p)
}

// plainTracker is a Tracker without observer support.
type plainTracker struct {
	status tristate.Value
}

func (p plainTracker) IsPurchased(products.Product) tristate.Value { return p.status }

func (p plainTracker) IsSubscriptionActive(products.Product) tristate.Value { return p.status }

func (p plainTracker) IsFeatureEnabledByPastPurchases(features.Path) bool { return false }

// stubChecker is a permission Checker without observer support.
type stubChecker struct {
	statuses map[permissions.Permission]tristate.Value
}

func (s stubChecker) Status(p permissions.Permission) tristate.Value {
	if v, ok := s.statuses[p]; ok {
		return v
	}
	return tristate.Unknown
}

func TestEvaluateUnregisteredFeature(t *testing.T) {
	engine := New(newTestGraph())
	_, err := engine.Evaluate("unregistered")
	assert.ErrorAs(t, err, &FeatureNotRegisteredError{})
}

func TestEvaluateUndeclaredFeature(t *testing.T) {
	engine := New(newTestGraph())
	engine.Register("not.in.graph", FeatureConstraints{})
	_, err := engine.Evaluate("not.in.graph")
	assert.ErrorAs(t, err, &FeatureNotDeclaredError{})
}

func TestRegisterIdempotentAndConflicting(t *testing.T) {
	engine := New(newTestGraph())
	fc := FeatureConstraints{Preconditions: []preconditions.Constraint{preconditions.RuntimeEnabled()}}

	engine.Register(premium, fc)
	assert.NotPanics(t, func() { engine.Register(premium, fc) })
	assert.Panics(t, func() {
		engine.Register(premium, FeatureConstraints{
			Preconditions: []preconditions.Constraint{preconditions.UserToggled(true)},
		})
	})
}

func TestEmptyConstraintsAreSatisfied(t *testing.T) {
	engine := New(newTestGraph())
	engine.Register(premium, FeatureConstraints{})

	result, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, result.Satisfied)
	assert.True(t, result.IsAvailable())
}

func TestPlatformConstraints(t *testing.T) {
	graph := newTestGraph()

	t.Run("active constraint enforced", func(t *testing.T) {
		engine := New(graph, WithRuntime(testRuntime("12.3.1")))
		engine.Register(premium, FeatureConstraints{
			Platforms: []platforms.Constraint{
				{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
			},
		})
		result, err := engine.Evaluate(premium)
		require.NoError(t, err)
		assert.Equal(t, tristate.True, result.Satisfied)
		require.Len(t, result.Platforms, 1)
		assert.True(t, result.Platforms[0].Active)
	})

	t.Run("old OS rejected", func(t *testing.T) {
		engine := New(graph, WithRuntime(testRuntime("10.9.9")))
		engine.Register(premium, FeatureConstraints{
			Platforms: []platforms.Constraint{
				{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
			},
		})
		result, err := engine.Evaluate(premium)
		require.NoError(t, err)
		assert.Equal(t, tristate.False, result.Satisfied)
	})

	t.Run("inactive constraint is vacuously passed", func(t *testing.T) {
		engine := New(graph, WithRuntime(testRuntime("12.0.0")))
		engine.Register(premium, FeatureConstraints{
			Platforms: []platforms.Constraint{
				{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
				{Platform: platforms.WatchOS, Version: platforms.Unsupported()},
			},
		})
		result, err := engine.Evaluate(premium)
		require.NoError(t, err)
		assert.Equal(t, tristate.True, result.Satisfied)
		require.Len(t, result.Platforms, 2)
		assert.False(t, result.Platforms[1].Active)
		assert.Equal(t, tristate.True, result.Platforms[1].Fulfilled)
	})

	t.Run("unknown OS version is indeterminate", func(t *testing.T) {
		engine := New(graph, WithRuntime(platforms.Runtime{Platform: platforms.IOS}))
		engine.Register(premium, FeatureConstraints{
			Platforms: []platforms.Constraint{
				{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
			},
		})
		result, err := engine.Evaluate(premium)
		require.NoError(t, err)
		assert.Equal(t, tristate.Unknown, result.Satisfied)
	})
}

// Scenario from the purchase gating design: a feature requiring a purchased
// product plus its own runtime flag is indeterminate while the tracker has
// no answer, and satisfied once the purchase is known.
func TestPurchaseScenario(t *testing.T) {
	graph := newTestGraph()
	tracker := purchases.NewMemoryTracker()
	engine := New(graph, WithTracker(tracker))

	requirement := purchases.NewRequirement(purchases.MatchAll, []products.Product{productA})
	engine.Register(premium, FeatureConstraints{
		Preconditions: []preconditions.Constraint{
			preconditions.RuntimeEnabled(),
			preconditions.PurchaseRequired(requirement),
		},
	})

	// Tracker has no data for product A yet.
	result, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.Unknown, result.Satisfied)

	// Indeterminate results are never cached; the next evaluation re-runs.
	tracker.SetPurchased(productA, true)
	result, err = engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, result.Satisfied)
}

func TestCachingEvaluatesOnce(t *testing.T) {
	graph := newTestGraph()
	inner := purchases.NewMemoryTracker()
	inner.SetPurchased(productA, true)
	tracker := &countingTracker{Tracker: inner}
	// countingTracker hides the observer API, so wrap it back up.
	engine := New(graph, WithTracker(observableCounting{tracker, inner}))

	requirement := purchases.NewRequirement(purchases.MatchAll, []products.Product{productA})
	engine.Register(premium, FeatureConstraints{
		Preconditions: []preconditions.Constraint{preconditions.PurchaseRequired(requirement)},
	})

	first, err := engine.Evaluate(premium)
	require.NoError(t, err)
	second, err := engine.Evaluate(premium)
	require.NoError(t, err)

	assert.Same(t, first, second, "cached result must be returned as-is")
	assert.Equal(t, 1, tracker.lookups, "evaluator logic must run exactly once")
}

// observableCounting delegates evaluation to the counting wrapper while
// keeping the inner tracker's observer registration.
type observableCounting struct {
	*countingTracker
	inner *purchases.MemoryTracker
}

func (o observableCounting) AddObserver(obs purchases.Observer) { o.inner.AddObserver(obs) }

func TestPurchaseChangeInvalidatesCache(t *testing.T) {
	graph := newTestGraph()
	tracker := purchases.NewMemoryTracker()
	tracker.SetPurchased(productA, true)
	engine := New(graph, WithTracker(tracker))

	requirement := purchases.NewRequirement(purchases.MatchAll, []products.Product{productA})
	engine.Register(premium, FeatureConstraints{
		Preconditions: []preconditions.Constraint{preconditions.PurchaseRequired(requirement)},
	})

	first, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, first.Satisfied)

	// Refund: tracker notifies the engine, dropping the cached result.
	tracker.SetPurchased(productA, false)
	second, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.False, second.Satisfied)
	assert.NotSame(t, first, second)
}

func TestUnrelatedPurchaseChangeKeepsCache(t *testing.T) {
	graph := newTestGraph()
	tracker := purchases.NewMemoryTracker()
	tracker.SetPurchased(productA, true)
	engine := New(graph, WithTracker(tracker))

	requirement := purchases.NewRequirement(purchases.MatchAll, []products.Product{productA})
	engine.Register(premium, FeatureConstraints{
		Preconditions: []preconditions.Constraint{preconditions.PurchaseRequired(requirement)},
	})

	first, err := engine.Evaluate(premium)
	require.NoError(t, err)

	other := products.NewNonConsumable("com.example.other", "Other")
	tracker.SetPurchased(other, true)

	second, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Same(t, first, second, "a change to an unrelated product must not invalidate")
}

func TestUserToggleConstraint(t *testing.T) {
	graph := newTestGraph()
	store := togglestore.NewMemory()
	engine := New(graph, WithToggles(store))

	engine.Register(premium, FeatureConstraints{
		Preconditions: []preconditions.Constraint{preconditions.UserToggled(false)},
	})

	// No entry: the declared default applies.
	result, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.False, result.Satisfied)

	// User switches the feature on; the store notifies the engine.
	store.Set(premium, true)
	result, err = engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, result.Satisfied)
}

func TestRuntimeEnabledConstraint(t *testing.T) {
	graph := newTestGraph()
	engine := New(graph)
	engine.Register(premium, FeatureConstraints{
		Preconditions: []preconditions.Constraint{preconditions.RuntimeEnabled()},
	})

	result, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, result.Satisfied)

	require.NoError(t, engine.SetRuntimeEnabled(premium, false))
	result, err = engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.False, result.Satisfied)
}

func TestPermissionConstraint(t *testing.T) {
	graph := newTestGraph()
	checker := stubChecker{statuses: map[permissions.Permission]tristate.Value{
		permissions.Camera: tristate.True,
	}}
	engine := New(graph, WithPermissionChecker(checker))

	engine.Register(premium, FeatureConstraints{
		Permissions: []permissions.Constraint{{Permission: permissions.Camera}},
	})
	result, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, result.Satisfied)
}

func TestPermissionChangeInvalidatesCache(t *testing.T) {
	graph := newTestGraph()
	checker := permissions.NewMemoryChecker()
	checker.SetGranted(permissions.Camera, true)
	engine := New(graph, WithPermissionChecker(checker))

	engine.Register(premium, FeatureConstraints{
		Permissions: []permissions.Constraint{{Permission: permissions.Camera}},
	})

	first, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.True, first.Satisfied)

	checker.SetGranted(permissions.Camera, false)
	second, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.False, second.Satisfied)
	assert.NotSame(t, first, second)
}

func TestCanCacheResult(t *testing.T) {
	graph := newTestGraph()

	t.Run("platform constraints always cacheable", func(t *testing.T) {
		engine := New(graph, WithRuntime(testRuntime("12.0.0")))
		engine.Register(premium, FeatureConstraints{
			Platforms: []platforms.Constraint{
				{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
			},
		})
		assert.True(t, engine.CanCacheResult(premium))
	})

	t.Run("unobservable tracker prevents caching", func(t *testing.T) {
		engine := New(graph, WithTracker(plainTracker{status: tristate.True}))
		requirement := purchases.NewRequirement(purchases.MatchAll, []products.Product{productA})
		engine.Register(premium, FeatureConstraints{
			Preconditions: []preconditions.Constraint{preconditions.PurchaseRequired(requirement)},
		})
		assert.False(t, engine.CanCacheResult(premium))

		first, err := engine.Evaluate(premium)
		require.NoError(t, err)
		second, err := engine.Evaluate(premium)
		require.NoError(t, err)
		assert.NotSame(t, first, second)
	})

	t.Run("observable tracker allows caching", func(t *testing.T) {
		engine := New(graph, WithTracker(purchases.NewMemoryTracker()))
		requirement := purchases.NewRequirement(purchases.MatchAll, []products.Product{productA})
		engine.Register(premium, FeatureConstraints{
			Preconditions: []preconditions.Constraint{preconditions.PurchaseRequired(requirement)},
		})
		assert.True(t, engine.CanCacheResult(premium))
	})

	t.Run("unobservable permission checker prevents caching", func(t *testing.T) {
		engine := New(graph, WithPermissionChecker(stubChecker{}))
		engine.Register(premium, FeatureConstraints{
			Permissions: []permissions.Constraint{{Permission: permissions.Camera}},
		})
		assert.False(t, engine.CanCacheResult(premium))
	})

	t.Run("unregistered feature is not cacheable", func(t *testing.T) {
		engine := New(graph)
		assert.False(t, engine.CanCacheResult("unregistered"))
	})
}

func TestIndeterminateNeverCached(t *testing.T) {
	graph := newTestGraph()
	tracker := purchases.NewMemoryTracker()
	engine := New(graph, WithTracker(tracker))

	requirement := purchases.NewRequirement(purchases.MatchAll, []products.Product{productA})
	engine.Register(premium, FeatureConstraints{
		Preconditions: []preconditions.Constraint{preconditions.PurchaseRequired(requirement)},
	})

	first, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.Equal(t, tristate.Unknown, first.Satisfied)

	second, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.NotSame(t, first, second, "indeterminate results must be re-evaluated")
}

func TestManualInvalidate(t *testing.T) {
	graph := newTestGraph()
	engine := New(graph, WithRuntime(testRuntime("12.0.0")))
	engine.Register(premium, FeatureConstraints{
		Platforms: []platforms.Constraint{
			{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
		},
	})

	first, err := engine.Evaluate(premium)
	require.NoError(t, err)
	engine.Invalidate(premium)
	second, err := engine.Evaluate(premium)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
}

func TestMetrics(t *testing.T) {
	graph := newTestGraph()
	metrics := NewMetrics()
	engine := New(graph, WithRuntime(testRuntime("12.0.0")), WithMetrics(metrics))

	engine.Register(premium, FeatureConstraints{
		Platforms: []platforms.Constraint{
			{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
		},
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RegisteredFeatures))

	_, err := engine.Evaluate(premium)
	require.NoError(t, err)
	_, err = engine.Evaluate(premium)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EvaluationsTotal.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal))

	engine.Invalidate()
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InvalidationsTotal))
}

func TestDescription(t *testing.T) {
	graph := newTestGraph()
	engine := New(graph, WithRuntime(testRuntime("12.0.0")))
	engine.Register(premium, FeatureConstraints{
		Platforms: []platforms.Constraint{
			{Platform: platforms.IOS, Version: platforms.AtLeastString("11")},
			{Platform: platforms.WatchOS, Version: platforms.Unsupported()},
		},
		Preconditions: []preconditions.Constraint{preconditions.RuntimeEnabled()},
	})

	description, err := engine.Description(premium)
	require.NoError(t, err)
	assert.Equal(t,
		"news.premium: satisfied\n"+
			"  - ios >= 11.0.0: true\n"+
			"  - watchos unsupported: inactive\n"+
			"  - runtimeEnabled: true",
		description)

	_, err = engine.Description("unregistered")
	assert.Error(t, err)
}
