package permissions

import (
	"sync"

	"github.com/featuregate/featuregate-go/constraintengine/tristate"
)

// MemoryChecker is an in-memory ObservableChecker. Permissions never set
// report unknown, like a prompt the user has not answered yet. Platform
// bindings feed real grant results into it via SetGranted.
type MemoryChecker struct {
	mu        sync.Mutex
	statuses  map[Permission]bool
	observers []Observer
}

func NewMemoryChecker() *MemoryChecker {
	return &MemoryChecker{statuses: make(map[Permission]bool)}
}

// SetGranted records the outcome of a permission prompt.
func (c *MemoryChecker) SetGranted(p Permission, granted bool) {
	c.mu.Lock()
	c.statuses[p] = granted
	c.mu.Unlock()
	c.notify(p)
}

// Reset returns a permission to the not-determined state.
func (c *MemoryChecker) Reset(p Permission) {
	c.mu.Lock()
	delete(c.statuses, p)
	c.mu.Unlock()
	c.notify(p)
}

func (c *MemoryChecker) Status(p Permission) tristate.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	granted, ok := c.statuses[p]
	if !ok {
		return tristate.Unknown
	}
	return tristate.FromBool(granted)
}

func (c *MemoryChecker) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

func (c *MemoryChecker) notify(p Permission) {
	c.mu.Lock()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()
	for _, o := range observers {
		o.PermissionChanged(p)
	}
}
