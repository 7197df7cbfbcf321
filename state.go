package featuregate

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/featuregate/featuregate-go/constraintengine/features"
)

// engineState is the registration map and result cache behind one mutex.
// Per the concurrency contract, invalidation and cache reads/writes
// serialize through the same lock so a change notification can never race a
// stale cached result past an evaluate call. The constraint tree walk
// itself happens outside this lock, on data that is immutable once
// registered.
type engineState struct {
	mu          sync.Mutex
	constraints map[features.Path]FeatureConstraints
	cache       map[features.Path]*EvaluationResult
	// generation increments on every invalidation. A result computed from a
	// snapshot taken before an invalidation event must not enter the cache.
	generation uint64
}

func newEngineState() *engineState {
	return &engineState{
		constraints: make(map[features.Path]FeatureConstraints),
		cache:       make(map[features.Path]*EvaluationResult),
	}
}

// register stores constraints for a feature path. Re-registering identical
// content is a no-op; conflicting re-registration is a declaration bug and
// panics. Returns the number of registered features.
func (s *engineState) register(path features.Path, fc FeatureConstraints) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.constraints[path]; ok {
		if reflect.DeepEqual(existing, fc) {
			return len(s.constraints)
		}
		panic(fmt.Sprintf("featuregate: conflicting constraints re-registered for feature %q", path))
	}
	s.constraints[path] = fc
	return len(s.constraints)
}

// lookup returns the registered constraints for a path along with the
// invalidation generation the caller evaluates against.
func (s *engineState) lookup(path features.Path) (FeatureConstraints, bool, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc, ok := s.constraints[path]
	return fc, ok, s.generation
}

func (s *engineState) cached(path features.Path) (*EvaluationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.cache[path]
	return r, ok
}

// storeCached memoizes a result unless an invalidation arrived since the
// snapshot it was computed from.
func (s *engineState) storeCached(path features.Path, r *EvaluationResult, generation uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return false
	}
	s.cache[path] = r
	return true
}

// invalidate drops cached results for features matching the predicate, or
// all cached results when the predicate is nil. Returns how many were
// dropped.
func (s *engineState) invalidate(match func(features.Path, FeatureConstraints) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	dropped := 0
	for path := range s.cache {
		if match == nil || match(path, s.constraints[path]) {
			delete(s.cache, path)
			dropped++
		}
	}
	return dropped
}
