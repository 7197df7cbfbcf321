package features

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/slices"
)

// Graph is the registry of declared features, keyed by path. Registration
// happens once at startup; lookups may come from any goroutine afterwards.
type Graph struct {
	mu    sync.RWMutex
	nodes map[Path]*Feature
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[Path]*Feature)}
}

// Register adds a feature to the graph. Registering the same *Feature twice
// is a no-op; registering a different feature under an existing path is a
// declaration bug and panics.
func (g *Graph) Register(f *Feature) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.nodes[f.path]; ok {
		if existing == f {
			return
		}
		panic(fmt.Sprintf("features: conflicting registration for path %q", f.path))
	}
	g.nodes[f.path] = f
}

// Lookup resolves a path to its declared feature.
func (g *Graph) Lookup(p Path) (*Feature, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	f, ok := g.nodes[p]
	return f, ok
}

// Children returns the direct children of a path, sorted by path.
func (g *Graph) Children(p Path) []*Feature {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var children []*Feature
	for path, f := range g.nodes {
		if path.Parent() == p && path != p {
			children = append(children, f)
		}
	}
	sortByPath(children)
	return children
}

// Descendants returns every feature registered under a path, sorted by path.
func (g *Graph) Descendants(p Path) []*Feature {
	g.mu.RLock()
	defer g.mu.RUnlock()
	prefix := string(p) + "."
	var out []*Feature
	for path, f := range g.nodes {
		if strings.HasPrefix(string(path), prefix) {
			out = append(out, f)
		}
	}
	sortByPath(out)
	return out
}

// All returns every registered feature, sorted by path.
func (g *Graph) All() []*Feature {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Feature, 0, len(g.nodes))
	for _, f := range g.nodes {
		out = append(out, f)
	}
	sortByPath(out)
	return out
}

func sortByPath(fs []*Feature) {
	slices.SortFunc(fs, func(a, b *Feature) int {
		return strings.Compare(string(a.path), string(b.path))
	})
}
