// Package featuregate gates application capabilities behind declarative
// runtime constraints: platform/OS versions, runtime and user toggles,
// permission grants, and purchase requirement trees. The engine answers "is
// this feature currently usable?" with a three-valued result, caching
// definite answers where a working invalidation path exists.
package featuregate

import (
	"log/slog"
	"time"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/permissions"
	"github.com/featuregate/featuregate-go/constraintengine/platforms"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/purchases"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// Engine is the central constraint registry and evaluator. It is safe for
// use from any goroutine; evaluation is synchronous and never blocks on
// external state, reporting unknown instead.
type Engine struct {
	graph *features.Graph
	state *engineState

	runtime     platforms.Runtime
	tracker     purchases.Tracker
	toggles     preconditions.UserFeatureToggles
	permissions permissions.Checker

	// Whether the engine has a working invalidation subscription to each
	// collaborator. Constraints backed by an unobserved collaborator are
	// never cached.
	trackerObserved     bool
	togglesObserved     bool
	permissionsObserved bool

	runtimeEval  preconditions.RuntimeEvaluator
	toggleEval   preconditions.UserToggleEvaluator
	purchaseEval preconditions.PurchaseEvaluator

	log     *slog.Logger
	metrics *Metrics
}

// New creates an engine over a feature graph. Observable collaborators are
// subscribed to immediately so their change events reach the cache.
func New(graph *features.Graph, options ...Option) *Engine {
	e := &Engine{
		graph:   graph,
		state:   newEngineState(),
		runtime: platforms.CurrentRuntime(),
		log:     discardLogger(),
	}
	for _, opt := range options {
		opt(e)
	}

	if tracker, ok := e.tracker.(purchases.ObservableTracker); ok {
		tracker.AddObserver(e)
		e.trackerObserved = true
	}
	if toggles, ok := e.toggles.(preconditions.ObservableToggles); ok {
		toggles.AddObserver(e)
		e.togglesObserved = true
	}
	if checker, ok := e.permissions.(permissions.ObservableChecker); ok {
		checker.AddObserver(e)
		e.permissionsObserved = true
	}

	e.toggleEval = preconditions.UserToggleEvaluator{Toggles: e.toggles}
	e.purchaseEval = preconditions.PurchaseEvaluator{Tracker: e.tracker}

	return e
}

// Register stores the constraint bundle for a feature path. Registering
// identical content twice is a no-op; conflicting re-registration is a
// declaration bug and panics.
func (e *Engine) Register(path features.Path, fc FeatureConstraints) {
	count := e.state.register(path, fc)
	if e.metrics != nil {
		e.metrics.RegisteredFeatures.Set(float64(count))
	}
	e.log.Debug("constraints registered", "feature", path)
}

// Evaluate runs every applicable constraint for the feature and combines
// the itemized tri-state outcomes conjunctively. Definite results for
// cacheable features are memoized until an invalidation event; indeterminate
// results are always re-evaluated so they can resolve.
func (e *Engine) Evaluate(path features.Path) (*EvaluationResult, error) {
	if result, ok := e.state.cached(path); ok {
		if e.metrics != nil {
			e.metrics.CacheHitsTotal.Inc()
		}
		e.log.Debug("evaluation served from cache", "feature", path)
		return result, nil
	}

	fc, ok, generation := e.state.lookup(path)
	if !ok {
		return nil, FeatureNotRegisteredError{Path: path}
	}
	feature, ok := e.graph.Lookup(path)
	if !ok {
		return nil, FeatureNotDeclaredError{Path: path}
	}

	// The walk runs outside the state lock: constraints are immutable once
	// registered and collaborators are fixed at construction.
	result := e.evaluateConstraints(feature, fc)

	if result.Satisfied.Known() && e.canCache(fc) {
		e.state.storeCached(path, result, generation)
	}
	if e.metrics != nil {
		e.metrics.EvaluationsTotal.WithLabelValues(result.Satisfied.String()).Inc()
	}
	e.log.Debug("feature evaluated", "feature", path, "satisfied", result.Satisfied.String())
	return result, nil
}

func (e *Engine) evaluateConstraints(feature *features.Feature, fc FeatureConstraints) *EvaluationResult {
	active := make([]tristate.Value, 0, len(fc.Platforms)+len(fc.Preconditions)+len(fc.Permissions))

	platformResults := make([]PlatformConstraintResult, 0, len(fc.Platforms))
	for _, c := range fc.Platforms {
		applies := c.AppliesTo(e.runtime.Platform)
		fulfilled := tristate.True
		if applies {
			fulfilled = c.Version.Satisfied(e.runtime.Version)
			active = append(active, fulfilled)
		}
		platformResults = append(platformResults, PlatformConstraintResult{
			Constraint: c,
			Active:     applies,
			Fulfilled:  fulfilled,
			Parameters: c.String(),
		})
	}

	preconditionResults := make([]PreconditionConstraintResult, 0, len(fc.Preconditions))
	for _, c := range fc.Preconditions {
		fulfilled := e.evaluatePrecondition(c, feature)
		active = append(active, fulfilled)
		preconditionResults = append(preconditionResults, PreconditionConstraintResult{
			Constraint: c,
			Active:     true,
			Fulfilled:  fulfilled,
			Parameters: c.String(),
		})
	}

	permissionResults := make([]PermissionConstraintResult, 0, len(fc.Permissions))
	for _, c := range fc.Permissions {
		fulfilled := tristate.Unknown
		if e.permissions != nil {
			fulfilled = e.permissions.Status(c.Permission)
		}
		active = append(active, fulfilled)
		permissionResults = append(permissionResults, PermissionConstraintResult{
			Constraint: c,
			Active:     true,
			Fulfilled:  fulfilled,
			Parameters: c.String(),
		})
	}

	return &EvaluationResult{
		ID:            uuid.New(),
		Feature:       feature.Path(),
		Satisfied:     tristate.And(active...),
		Platforms:     platformResults,
		Preconditions: preconditionResults,
		Permissions:   permissionResults,
		EvaluatedAt:   time.Now(),
	}
}

func (e *Engine) evaluatePrecondition(c preconditions.Constraint, feature *features.Feature) tristate.Value {
	switch c.Kind() {
	case preconditions.KindRuntimeEnabled:
		return e.runtimeEval.IsFulfilled(c, feature)
	case preconditions.KindUserToggled:
		return e.toggleEval.IsFulfilled(c, feature)
	case preconditions.KindPurchaseRequired:
		return e.purchaseEval.IsFulfilled(c, feature)
	default:
		// Closed set; a new kind must be wired here before use.
		panic("featuregate: unsupported precondition kind " + string(c.Kind()))
	}
}

// CanCacheResult reports whether a definite evaluation result for the
// feature may be memoized: every constraint involved must be one whose
// truth cannot change without an invalidation signal reaching the engine.
func (e *Engine) CanCacheResult(path features.Path) bool {
	fc, ok, _ := e.state.lookup(path)
	return ok && e.canCache(fc)
}

func (e *Engine) canCache(fc FeatureConstraints) bool {
	// Platform constraints are always cacheable: the OS does not change for
	// the process lifetime. The runtime-enabled flag mutates through
	// SetRuntimeEnabled, which invalidates.
	for _, c := range fc.Preconditions {
		switch c.Kind() {
		case preconditions.KindUserToggled:
			if e.toggles != nil && !e.togglesObserved {
				return false
			}
		case preconditions.KindPurchaseRequired:
			if e.tracker != nil && !e.trackerObserved {
				return false
			}
		}
	}
	if len(fc.Permissions) > 0 && e.permissions != nil && !e.permissionsObserved {
		return false
	}
	return true
}

// SetRuntimeEnabled flips a feature's runtime-enabled flag and invalidates
// its cached result. This is the mutation path that keeps runtimeEnabled
// preconditions cacheable.
func (e *Engine) SetRuntimeEnabled(path features.Path, enabled bool) error {
	feature, ok := e.graph.Lookup(path)
	if !ok {
		return FeatureNotDeclaredError{Path: path}
	}
	feature.SetEnabled(enabled)
	e.Invalidate(path)
	return nil
}

// Invalidate drops cached results for the given feature paths, or for every
// feature when called with no arguments.
func (e *Engine) Invalidate(paths ...features.Path) {
	var match func(features.Path, FeatureConstraints) bool
	if len(paths) > 0 {
		match = func(p features.Path, _ FeatureConstraints) bool {
			return slices.Contains(paths, p)
		}
	}
	e.recordInvalidations(e.state.invalidate(match))
}

// PurchaseStatusChanged implements purchases.Observer. Cached results for
// features whose requirement trees reference any of the changed products
// are dropped; an empty product list drops every purchase-dependent result.
func (e *Engine) PurchaseStatusChanged(productIDs []string) {
	dropped := e.state.invalidate(func(_ features.Path, fc FeatureConstraints) bool {
		return referencesProducts(fc, productIDs)
	})
	e.recordInvalidations(dropped)
	e.log.Debug("purchase status changed", "products", productIDs, "invalidated", dropped)
}

// ToggleChanged implements preconditions.ToggleObserver. An empty feature
// list drops every toggle-dependent result.
func (e *Engine) ToggleChanged(changed ...features.Path) {
	dropped := e.state.invalidate(func(p features.Path, fc FeatureConstraints) bool {
		if !hasPreconditionKind(fc, preconditions.KindUserToggled) {
			return false
		}
		return len(changed) == 0 || slices.Contains(changed, p)
	})
	e.recordInvalidations(dropped)
	e.log.Debug("user toggles changed", "features", changed, "invalidated", dropped)
}

// PermissionChanged implements permissions.Observer.
func (e *Engine) PermissionChanged(p permissions.Permission) {
	dropped := e.state.invalidate(func(_ features.Path, fc FeatureConstraints) bool {
		for _, c := range fc.Permissions {
			if c.Permission == p {
				return true
			}
		}
		return false
	})
	e.recordInvalidations(dropped)
	e.log.Debug("permission changed", "permission", p, "invalidated", dropped)
}

func (e *Engine) recordInvalidations(dropped int) {
	if e.metrics != nil && dropped > 0 {
		e.metrics.InvalidationsTotal.Add(float64(dropped))
	}
}

func referencesProducts(fc FeatureConstraints, productIDs []string) bool {
	for _, c := range fc.Preconditions {
		if c.Kind() != preconditions.KindPurchaseRequired {
			continue
		}
		if len(productIDs) == 0 {
			return true
		}
		for _, id := range c.Requirement().ProductIDs() {
			if slices.Contains(productIDs, id) {
				return true
			}
		}
	}
	return false
}

func hasPreconditionKind(fc FeatureConstraints, kind preconditions.Kind) bool {
	for _, c := range fc.Preconditions {
		if c.Kind() == kind {
			return true
		}
	}
	return false
}
