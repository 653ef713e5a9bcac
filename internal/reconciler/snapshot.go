package reconciler

import (
	"maps"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/patternhost/internal/pattern"
)

// Snapshot returns a consistent copy of the reconciler's bookkeeping.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	desired := r.tracker.Desired()
	snapshot := Snapshot{
		Ready:      r.ready,
		Closed:     r.closed,
		Generation: r.generation,
		Desired:    desired,
		Active:     sets.List(sets.KeySet(r.active)),
		Inflight:   sets.List(sets.KeySet(r.inflight)),
		Tokens:     maps.Clone(r.tokens),
	}
	if snapshot.Tokens == nil {
		snapshot.Tokens = map[pattern.ID]uint64{}
	}

	all := sets.New(desired...)
	all.Insert(snapshot.Active...)
	all.Insert(snapshot.Inflight...)

	for _, id := range sets.List(all) {
		status := PatternStatus{
			ID:      id,
			State:   StateUntracked,
			Desired: r.tracker.Has(id),
			Token:   r.tokens[id],
		}
		if a, ok := r.active[id]; ok {
			status.State = StateActive
			status.Generation = a.generation
			status.Since = a.startedAt
		} else if a, ok := r.inflight[id]; ok {
			status.State = StateInflight
			status.Generation = a.generation
			status.Since = a.startedAt
		}
		snapshot.Patterns = append(snapshot.Patterns, status)
	}
	return snapshot
}
