package pattern

import (
	"fmt"
	"sort"
	"sync"

	"github.com/giantswarm/patternhost/pkg/logging"
)

// Registry is the catalogue of capabilities a host can declare by id.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[ID]Capability
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		capabilities: make(map[ID]Capability),
	}
}

// Register adds c to the registry. Ids must be unique.
func (r *Registry) Register(c Capability) error {
	if c == nil || c.ID() == "" {
		return fmt.Errorf("pattern capability must have a non-empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.capabilities[c.ID()]; exists {
		return fmt.Errorf("pattern %s already registered", c.ID())
	}
	r.capabilities[c.ID()] = c
	logging.Debug("PatternRegistry", "Registered pattern %s", c.ID())
	return nil
}

// Get looks up a capability by id.
func (r *Registry) Get(id ID) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.capabilities[id]
	return c, ok
}

// IDs returns every registered id, sorted.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.capabilities))
	for id := range r.capabilities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Resolve maps declared ids to capabilities, preserving order. Unknown ids are
// skipped and reported together in the returned error, so the known ones can
// still be reconciled.
func (r *Registry) Resolve(ids []ID) ([]Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resolved := make([]Capability, 0, len(ids))
	var unknown []ID
	for _, id := range ids {
		c, ok := r.capabilities[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		resolved = append(resolved, c)
	}

	if len(unknown) > 0 {
		return resolved, fmt.Errorf("%w: %v", ErrUnknownPattern, unknown)
	}
	return resolved, nil
}
