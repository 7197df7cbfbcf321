// Package platforms models platform/OS-version constraints. A constraint is
// a (platform family, version rule) pair; version comparison is
// (major, minor, patch) lexicographic via semver.
package platforms

import (
	"fmt"
	"runtime"

	"github.com/blang/semver/v4"
)

// Platform is an OS family a feature can be constrained to.
type Platform string

const (
	IOS     Platform = "ios"
	MacOS   Platform = "macos"
	TVOS    Platform = "tvos"
	WatchOS Platform = "watchos"
	Android Platform = "android"
	Linux   Platform = "linux"
	Windows Platform = "windows"
)

// Current maps runtime.GOOS to a Platform family.
func Current() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "ios":
		return IOS
	case "android":
		return Android
	case "windows":
		return Windows
	case "linux":
		return Linux
	default:
		return Platform(runtime.GOOS)
	}
}

// Runtime describes the platform the process is running on. Version is nil
// when the OS version has not been supplied; AtLeast constraints then
// evaluate to Unknown rather than guessing.
type Runtime struct {
	Platform Platform
	Version  *semver.Version
}

// CurrentRuntime detects the platform family and leaves the version unknown.
func CurrentRuntime() Runtime {
	return Runtime{Platform: Current()}
}

type versionRule string

const (
	ruleAny         versionRule = "any"
	ruleAtLeast     versionRule = "at_least"
	ruleUnsupported versionRule = "unsupported"
)

// VersionConstraint is one of: any version, at least a minimum version, or
// unsupported outright.
type VersionConstraint struct {
	rule versionRule
	min  semver.Version
}

// AnyVersion accepts every OS version.
func AnyVersion() VersionConstraint {
	return VersionConstraint{rule: ruleAny}
}

// AtLeast requires the running OS version to be >= min.
func AtLeast(min semver.Version) VersionConstraint {
	return VersionConstraint{rule: ruleAtLeast, min: min}
}

// AtLeastString is AtLeast with a version literal ("11", "12.3.1"). A
// malformed literal is a declaration bug and panics.
func AtLeastString(min string) VersionConstraint {
	v, err := semver.ParseTolerant(min)
	if err != nil {
		panic(fmt.Sprintf("platforms: invalid version literal %q: %v", min, err))
	}
	return AtLeast(v)
}

// Unsupported rejects the platform outright.
func Unsupported() VersionConstraint {
	return VersionConstraint{rule: ruleUnsupported}
}

func (c VersionConstraint) String() string {
	switch c.rule {
	case ruleAtLeast:
		return fmt.Sprintf(">= %s", c.min)
	case ruleUnsupported:
		return "unsupported"
	default:
		return "any version"
	}
}
