package featuregate

import (
	"log/slog"

	"github.com/blang/semver/v4"
	"github.com/featuregate/featuregate-go/constraintengine/permissions"
	"github.com/featuregate/featuregate-go/constraintengine/platforms"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/purchases"
)

type Option func(e *Engine)

var _ = []Option{
	WithLogger(nil),
	WithTracker(nil),
	WithToggles(nil),
	WithPermissionChecker(nil),
	WithRuntime(platforms.Runtime{}),
	WithPlatformVersion(semver.Version{}),
	WithMetrics(nil),
}

// WithLogger injects a structured logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithTracker wires the purchase tracker. If the tracker is observable the
// engine subscribes to it, which makes purchase-dependent results cacheable.
func WithTracker(tracker purchases.Tracker) Option {
	return func(e *Engine) {
		e.tracker = tracker
	}
}

// WithToggles wires the user feature toggle store. If the store is
// observable the engine subscribes to it, which makes toggle-dependent
// results cacheable.
func WithToggles(toggles preconditions.UserFeatureToggles) Option {
	return func(e *Engine) {
		e.toggles = toggles
	}
}

// WithPermissionChecker wires the permission checker. If the checker is
// observable the engine subscribes to it, which makes permission-dependent
// results cacheable.
func WithPermissionChecker(checker permissions.Checker) Option {
	return func(e *Engine) {
		e.permissions = checker
	}
}

// WithRuntime overrides the detected platform runtime. Mostly for tests.
func WithRuntime(rt platforms.Runtime) Option {
	return func(e *Engine) {
		e.runtime = rt
	}
}

// WithPlatformVersion supplies the running OS version, keeping the detected
// platform family. Without it, AtLeast constraints evaluate to unknown.
func WithPlatformVersion(v semver.Version) Option {
	return func(e *Engine) {
		e.runtime.Version = &v
	}
}

// WithMetrics enables Prometheus instrumentation of the engine.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}
