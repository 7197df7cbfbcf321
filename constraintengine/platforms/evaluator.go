package platforms

import (
	"fmt"

	"github.com/blang/semver/v4"
	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// Constraint ties a version rule to one platform family. It only applies
// when the process runs on that family; on other families it is inactive
// and never blocks a feature.
type Constraint struct {
	Platform Platform
	Version  VersionConstraint
}

// AppliesTo reports whether the constraint is active on the given platform.
func (c Constraint) AppliesTo(p Platform) bool {
	return c.Platform == p
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s", c.Platform, c.Version)
}

// Satisfied evaluates the version rule against the running OS version.
// current is nil when the version is not known to the process; AtLeast then
// reports Unknown.
func (c VersionConstraint) Satisfied(current *semver.Version) tristate.Value {
	switch c.rule {
	case ruleAny:
		return tristate.True
	case ruleUnsupported:
		return tristate.False
	case ruleAtLeast:
		if current == nil {
			return tristate.Unknown
		}
		return tristate.FromBool(current.GE(c.min))
	default:
		panic(fmt.Sprintf("platforms: unsupported version rule %q", c.rule))
	}
}
