package featuregate

import (
	"fmt"

	"github.com/featuregate/featuregate-go/constraintengine/features"
)

// FeatureNotRegisteredError is returned when a feature path has no
// registered constraints.
type FeatureNotRegisteredError struct {
	Path features.Path
}

func (e FeatureNotRegisteredError) Error() string {
	return fmt.Sprintf("featuregate: no constraints registered for feature %q", e.Path)
}

// FeatureNotDeclaredError is returned when a feature path is not present in
// the feature graph.
type FeatureNotDeclaredError struct {
	Path features.Path
}

func (e FeatureNotDeclaredError) Error() string {
	return fmt.Sprintf("featuregate: feature %q is not declared in the graph", e.Path)
}
