// Package features holds the hierarchical feature registry. Features are
// identified by dot-separated paths ("app.news.premium"); the graph resolves
// paths to declared features and parent/child relationships for constraint
// lookup.
package features

import (
	"strings"
	"sync/atomic"
)

// Path identifies a feature within the graph, e.g. "news.premium".
type Path string

// Join appends a child segment to a path.
func (p Path) Join(name string) Path {
	if p == "" {
		return Path(name)
	}
	return Path(string(p) + "." + name)
}

// Parent returns the enclosing path, or "" for a top-level feature.
func (p Path) Parent() Path {
	idx := strings.LastIndex(string(p), ".")
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// Name returns the final path segment.
func (p Path) Name() string {
	idx := strings.LastIndex(string(p), ".")
	return string(p[idx+1:])
}

// Feature is a named, independently gateable unit of application capability.
type Feature struct {
	path        Path
	name        string
	description string
	enabled     atomic.Bool
}

// New declares a feature. The runtime-enabled flag defaults to enabled.
func New(path Path, name, description string) *Feature {
	f := &Feature{path: path, name: name, description: description}
	f.enabled.Store(true)
	return f
}

func (f *Feature) Path() Path          { return f.path }
func (f *Feature) Name() string        { return f.name }
func (f *Feature) Description() string { return f.description }

// Enabled reports the feature's own runtime-enabled flag.
func (f *Feature) Enabled() bool { return f.enabled.Load() }

// SetEnabled flips the runtime-enabled flag. Callers that also use a caching
// engine should mutate through the engine so cached results are invalidated.
func (f *Feature) SetEnabled(enabled bool) { f.enabled.Store(enabled) }
