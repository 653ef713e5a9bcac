package reconciler

import (
	"context"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/pkg/logging"
)

// Close tears the reconciler down. Every active pattern is cleaned up once,
// in-flight setups are abandoned (their late results are cleaned up on
// arrival, never promoted) and all bookkeeping is reset. Close is
// idempotent; every other operation returns ErrClosed afterwards.
func (r *Reconciler) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	count := len(r.active)
	for _, id := range sets.List(sets.KeySet(r.active)) {
		a := r.active[id]
		r.cleanupLocked(a)
		r.recorder.Record(events.ReasonPatternDeactivated, events.EventData{
			Pattern: string(id),
			Token:   a.token,
			Detail:  "host teardown",
		})
	}

	abandoned := len(r.inflight)
	for _, a := range r.inflight {
		a.stop()
	}

	r.active = make(map[pattern.ID]*attachment)
	r.inflight = make(map[pattern.ID]*attachment)
	r.tokens = make(map[pattern.ID]uint64)
	r.generation = 0
	r.tracker.Reset()
	r.res = nil
	r.ready = false
	r.cancel()

	r.recorder.Record(events.ReasonReconcilerClosed, events.EventData{Count: count})
	logging.Info(subsystem, "Closed: %d active cleaned up, %d inflight abandoned", count, abandoned)
	return nil
}

// Wait blocks until every setup goroutine started so far has returned and
// its result has been handled, or ctx is done.
//
// Wait must not race with operations that start new setups.
func (r *Reconciler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.setups.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
