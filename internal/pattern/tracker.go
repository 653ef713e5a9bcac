package pattern

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/patternhost/pkg/logging"
)

// Tracker derives the desired set of pattern ids from the declared list and
// remembers which capability currently backs each id.
//
// A Tracker is not safe for concurrent use; the reconciler serializes access.
type Tracker struct {
	desired      sets.Set[ID]
	capabilities map[ID]Capability
}

// NewTracker creates a tracker with an empty desired set.
func NewTracker() *Tracker {
	return &Tracker{
		desired:      sets.New[ID](),
		capabilities: make(map[ID]Capability),
	}
}

// Declare replaces the declared list. Duplicate ids collapse onto the first
// declaration. It reports whether set membership changed; order and
// capability identity are not part of membership.
func (t *Tracker) Declare(declared []Capability) (changed bool) {
	next := sets.New[ID]()
	capabilities := make(map[ID]Capability, len(declared))

	for _, c := range declared {
		if c == nil {
			continue
		}
		id := c.ID()
		if next.Has(id) {
			logging.Warn("PatternTracker", "Pattern %s declared more than once, keeping the first declaration", id)
			continue
		}
		next.Insert(id)
		capabilities[id] = c
	}

	changed = !next.Equal(t.desired)
	if changed {
		logging.Debug("PatternTracker", "Desired set changed: added=%v removed=%v",
			sets.List(next.Difference(t.desired)), sets.List(t.desired.Difference(next)))
	}

	t.desired = next
	t.capabilities = capabilities
	return changed
}

// Has reports whether id is currently desired.
func (t *Tracker) Has(id ID) bool {
	return t.desired.Has(id)
}

// Desired returns the desired ids, sorted.
func (t *Tracker) Desired() []ID {
	return sets.List(t.desired)
}

// Capability returns the capability currently declared for id.
func (t *Tracker) Capability(id ID) (Capability, bool) {
	c, ok := t.capabilities[id]
	return c, ok
}

// Reset empties the desired set.
func (t *Tracker) Reset() {
	t.desired = sets.New[ID]()
	t.capabilities = make(map[ID]Capability)
}
