package reconciler

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/pkg/logging"
)

// UpdateParams stores params as the latest parameters and forwards them to
// every active pattern. Inflight patterns are not touched; they receive the
// latest parameters once promoted. A failing update is logged and does not
// stop the others.
func (r *Reconciler) UpdateParams(params pattern.Params) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	r.params = params.Clone()
	for _, id := range sets.List(sets.KeySet(r.active)) {
		r.updateLocked(r.active[id])
	}
	return nil
}

// updateLocked hands the latest parameters to one active attachment.
func (r *Reconciler) updateLocked(a *attachment) {
	if err := safeUpdate(a.capability, a.res, r.params.Clone()); err != nil {
		logging.Warn(subsystem, "Update of %s failed: %v", a.id, err)
		r.metrics.RecordUpdateFailure(a.id)
		r.recorder.Record(events.ReasonPatternUpdateFailed, events.EventData{
			Pattern: string(a.id),
			Token:   a.token,
			Error:   err.Error(),
		})
	}
}

// Params returns a copy of the latest parameters.
func (r *Reconciler) Params() pattern.Params {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.params.Clone()
}
