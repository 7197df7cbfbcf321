package featuregate

import (
	"fmt"
	"strings"

	"github.com/featuregate/featuregate-go/constraintengine/features"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Description renders a human-readable summary of a feature's constraints
// and their current outcomes, for diagnostics and debug UIs.
func (e *Engine) Description(path features.Path) (string, error) {
	result, err := e.Evaluate(path)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", result.Feature, verdict(result.Satisfied))
	for _, item := range result.Platforms {
		writeItem(&sb, item.Parameters, item.Active, item.Fulfilled)
	}
	for _, item := range result.Preconditions {
		writeItem(&sb, item.Parameters, item.Active, item.Fulfilled)
	}
	for _, item := range result.Permissions {
		writeItem(&sb, item.Parameters, item.Active, item.Fulfilled)
	}
	return sb.String(), nil
}

func writeItem(sb *strings.Builder, parameters string, active bool, fulfilled tristate.Value) {
	if !active {
		fmt.Fprintf(sb, "\n  - %s: inactive", parameters)
		return
	}
	fmt.Fprintf(sb, "\n  - %s: %s", parameters, fulfilled)
}

func verdict(v tristate.Value) string {
	switch v {
	case tristate.True:
		return "satisfied"
	case tristate.False:
		return "not satisfied"
	default:
		return "indeterminate"
	}
}
