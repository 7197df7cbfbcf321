// Package togglestore provides implementations of the engine's
// UserFeatureToggles collaborator: an in-memory store, a YAML file store
// watched for changes, a SQLite-persisted store, and a remote HTTP store
// with scheduled refresh. All of them support change observation, which is
// what makes toggle-dependent evaluation results cacheable.
package togglestore

import (
	"sync"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/preconditions"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Memory is a mutex-guarded in-memory toggle store. Features with no entry
// report unknown so the precondition's declared default applies.
type Memory struct {
	mu        sync.Mutex
	toggles   map[features.Path]bool
	observers []preconditions.ToggleObserver
}

func NewMemory() *Memory {
	return &Memory{toggles: make(map[features.Path]bool)}
}

// Set records the user's toggle for a feature.
func (s *Memory) Set(feature features.Path, enabled bool) {
	s.mu.Lock()
	s.toggles[feature] = enabled
	s.mu.Unlock()
	s.notify(feature)
}

// Clear removes a feature's toggle, returning it to the declared default.
func (s *Memory) Clear(feature features.Path) {
	s.mu.Lock()
	delete(s.toggles, feature)
	s.mu.Unlock()
	s.notify(feature)
}

func (s *Memory) IsEnabled(feature features.Path) tristate.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	enabled, ok := s.toggles[feature]
	if !ok {
		return tristate.Unknown
	}
	return tristate.FromBool(enabled)
}

func (s *Memory) AddObserver(o preconditions.ToggleObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Memory) notify(changed ...features.Path) {
	s.mu.Lock()
	observers := make([]preconditions.ToggleObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()
	for _, o := range observers {
		o.ToggleChanged(changed...)
	}
}
