package reconciler

import (
	"context"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/utils/clock"

	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/resource"
	"github.com/giantswarm/patternhost/pkg/logging"
)

const subsystem = "Reconciler"

// Reconciler keeps the set of patterns attached to the shared resource in
// line with the declared pattern list.
//
// Every transition runs under mu, so transitions are atomic with respect to
// one another. Setup runs in its own goroutine; its result is checked against
// the id's setup token and the style generation before it is promoted.
// Update and Cleanup are called with mu held and must not call back into the
// Reconciler.
type Reconciler struct {
	mu sync.Mutex

	config   Config
	clock    clock.WithDelayedExecution
	recorder *events.Recorder
	metrics  *ReconcilerMetrics

	tracker *pattern.Tracker

	res   resource.Handle
	ready bool

	// params are the latest parameters, handed to setups and promotions.
	params pattern.Params

	active     map[pattern.ID]*attachment
	inflight   map[pattern.ID]*attachment
	tokens     map[pattern.ID]uint64
	generation uint64

	closed bool

	// ctx parents every setup context and is cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	setups sync.WaitGroup
}

// New creates a reconciler. It does nothing until it is told about the
// resource (SetReadiness) and the declared patterns (SetPatterns).
func New(config Config) *Reconciler {
	if config.Clock == nil {
		config.Clock = clock.RealClock{}
	}
	if config.Metrics == nil {
		config.Metrics = NewReconcilerMetrics()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Reconciler{
		config:   config,
		clock:    config.Clock,
		recorder: config.Recorder,
		metrics:  config.Metrics,
		tracker:  pattern.NewTracker(),
		params:   config.InitialParams.Clone(),
		active:   make(map[pattern.ID]*attachment),
		inflight: make(map[pattern.ID]*attachment),
		tokens:   make(map[pattern.ID]uint64),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Metrics returns the reconciler's counters.
func (r *Reconciler) Metrics() *ReconcilerMetrics {
	return r.metrics
}

// Events subscribes to the reconciler's lifecycle events. Without a
// recorder the returned channel is already closed.
func (r *Reconciler) Events(buffer int) (<-chan events.Event, func()) {
	if r.recorder == nil {
		ch := make(chan events.Event)
		close(ch)
		return ch, func() {}
	}
	return r.recorder.Subscribe(buffer)
}

// SetPatterns replaces the declared pattern list. A reconciliation pass runs
// only when desired-set membership changed.
func (r *Reconciler) SetPatterns(declared []pattern.Capability) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if !r.tracker.Declare(declared) {
		return nil
	}
	r.reconcileLocked()
	return nil
}

// SetReadiness reports the resource and its readiness. A ready->not-ready
// transition fences all attached and in-flight work; a not-ready->ready
// transition sets up every desired pattern from scratch. Reporting a
// different handle while ready is treated as a reload onto the new handle.
func (r *Reconciler) SetReadiness(res resource.Handle, ready bool) error {
	if ready && res == nil {
		return fmt.Errorf("ready resource must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	switch {
	case ready && r.ready && sameHandle(res, r.res):
		return nil

	case ready && r.ready:
		logging.Info(subsystem, "Resource replaced (%s -> %s)", r.res.InstanceID(), res.InstanceID())
		r.invalidateLocked("resource replaced")
		r.res = res

	case ready:
		r.ready = true
		r.res = res

	case r.ready:
		r.ready = false
		r.invalidateLocked("style reload")
		r.res = res
		return nil

	default:
		r.res = res
		return nil
	}

	logging.Info(subsystem, "Resource %s ready", res.InstanceID())
	r.recorder.Record(events.ReasonResourceReady, events.EventData{
		Generation: r.generation,
		Count:      len(r.tracker.Desired()),
	})
	r.reconcileLocked()
	return nil
}

// reconcileLocked runs one reconciliation pass: removals first so that
// shared resource identifiers are freed before being reused, then additions.
func (r *Reconciler) reconcileLocked() {
	for _, id := range sets.List(sets.KeySet(r.active)) {
		if !r.tracker.Has(id) {
			r.deactivateLocked(id, "removed")
		}
	}

	if !r.ready || r.res == nil {
		return
	}

	for _, id := range r.tracker.Desired() {
		if _, ok := r.active[id]; ok {
			continue
		}
		if a, ok := r.inflight[id]; ok {
			if a.generation != r.generation || a.expired {
				// The attempt can no longer be promoted, but only one attempt
				// per id may run. The fresh setup starts once it resolves.
				a.rerun = true
				logging.Debug(subsystem, "Setup of %s (token %d) is stale, re-running once it resolves", id, a.token)
			}
			continue
		}
		r.startSetupLocked(id)
	}
}

// startSetupLocked moves id from Untracked to Inflight and issues its setup.
func (r *Reconciler) startSetupLocked(id pattern.ID) {
	capability, ok := r.tracker.Capability(id)
	if !ok {
		return
	}

	r.tokens[id]++
	a := &attachment{
		id:         id,
		capability: capability,
		res:        r.res,
		token:      r.tokens[id],
		generation: r.generation,
		startedAt:  r.clock.Now(),
	}

	ctx, cancel := context.WithCancel(r.ctx)
	a.cancel = cancel
	if r.config.SetupTimeout > 0 {
		a.timer = r.clock.AfterFunc(r.config.SetupTimeout, func() { r.expireSetup(a) })
	}
	r.inflight[id] = a

	r.metrics.RecordSetup(id)
	r.recorder.Record(events.ReasonPatternSetupStarted, events.EventData{
		Pattern:    string(id),
		Token:      a.token,
		Generation: a.generation,
	})
	logging.Debug(subsystem, "Setting up %s (token %d, generation %d)", id, a.token, a.generation)

	params := r.params.Clone()
	r.setups.Add(1)
	go r.runSetup(ctx, a, params)
}

func (r *Reconciler) runSetup(ctx context.Context, a *attachment, params pattern.Params) {
	defer r.setups.Done()
	err := safeSetup(ctx, a.capability, a.res, params)
	r.completeSetup(a, err)
}

// completeSetup handles a setup result: promote it (Inflight -> Active) if
// it is still current, otherwise discard it and clean up whatever the setup
// may have attached.
func (r *Reconciler) completeSetup(a *attachment, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.stop()
	current := r.inflight[a.id] == a
	if current {
		delete(r.inflight, a.id)
	}

	if err != nil {
		logging.Warn(subsystem, "Pattern %s failed to activate: %v", a.id, err)
		r.metrics.RecordSetupFailure(a.id, err.Error())
		r.recorder.Record(events.ReasonPatternSetupFailed, events.EventData{
			Pattern: string(a.id),
			Token:   a.token,
			Error:   err.Error(),
		})
		r.cleanupLocked(a)
		r.rerunLocked(a, current)
		return
	}

	if reason := r.staleReasonLocked(a, current); reason != "" {
		logging.Debug(subsystem, "Discarding setup of %s (token %d): %s", a.id, a.token, reason)
		r.metrics.RecordDiscard(a.id)
		r.recorder.Record(events.ReasonPatternDiscarded, events.EventData{
			Pattern: string(a.id),
			Token:   a.token,
			Detail:  reason,
		})
		r.cleanupLocked(a)
		r.rerunLocked(a, current)
		return
	}

	r.active[a.id] = a
	latency := r.clock.Since(a.startedAt)
	r.metrics.RecordActivation(a.id, latency)
	r.recorder.Record(events.ReasonPatternActivated, events.EventData{
		Pattern:    string(a.id),
		Token:      a.token,
		Generation: a.generation,
		Duration:   latency,
	})
	logging.Info(subsystem, "Pattern %s activated (token %d)", a.id, a.token)

	// Parameters may have changed while setup was running.
	r.updateLocked(a)
}

// rerunLocked starts the setup a reconciliation pass deferred while a stale
// attempt for the same id was still running.
func (r *Reconciler) rerunLocked(a *attachment, current bool) {
	if !current || !a.rerun || r.closed || !r.ready || r.res == nil {
		return
	}
	if !r.tracker.Has(a.id) {
		return
	}
	if _, ok := r.active[a.id]; ok {
		return
	}
	if _, ok := r.inflight[a.id]; ok {
		return
	}
	r.startSetupLocked(a.id)
}

// staleReasonLocked explains why a successful setup must not be promoted,
// or returns "" if it may be.
func (r *Reconciler) staleReasonLocked(a *attachment, current bool) string {
	switch {
	case r.closed:
		return "reconciler closed"
	case a.generation != r.generation:
		return "style reloaded"
	case a.expired:
		return "setup timed out"
	case !current || a.token != r.tokens[a.id]:
		return "superseded"
	case !r.tracker.Has(a.id):
		return "no longer desired"
	case !r.ready:
		return "resource not ready"
	default:
		return ""
	}
}

// deactivateLocked moves an active id to Untracked.
func (r *Reconciler) deactivateLocked(id pattern.ID, detail string) {
	a, ok := r.active[id]
	if !ok {
		return
	}
	delete(r.active, id)

	if a.generation == r.generation {
		r.cleanupLocked(a)
	} else {
		logging.Debug(subsystem, "Skipping cleanup of %s: its style generation %d is gone", id, a.generation)
	}
	r.tokens[id]++

	r.recorder.Record(events.ReasonPatternDeactivated, events.EventData{
		Pattern: string(id),
		Token:   a.token,
		Detail:  detail,
	})
	logging.Info(subsystem, "Pattern %s deactivated (%s)", id, detail)
}

// invalidateLocked fences everything attached to the current style: the
// generation advances, every active pattern is cleaned up exactly once and
// forgotten, and in-flight setups are left to discard themselves on arrival.
func (r *Reconciler) invalidateLocked(detail string) {
	r.generation++
	count := len(r.active)

	for _, id := range sets.List(sets.KeySet(r.active)) {
		a := r.active[id]
		delete(r.active, id)
		r.cleanupLocked(a)
		r.tokens[id]++
		r.recorder.Record(events.ReasonPatternDeactivated, events.EventData{
			Pattern: string(id),
			Token:   a.token,
			Detail:  detail,
		})
	}

	// Advisory only: the setups may ignore it.
	for _, a := range r.inflight {
		a.cancel()
	}

	r.metrics.RecordInvalidation()
	r.recorder.Record(events.ReasonStyleInvalidated, events.EventData{
		Generation: r.generation,
		Count:      count,
		Detail:     detail,
	})
	logging.Info(subsystem, "Resource invalidated (%s): generation %d, %d active, %d inflight",
		detail, r.generation, count, len(r.inflight))
}

// expireSetup gives up on an attempt that exceeded the setup timeout. Its
// context is cancelled and its token bumped so the late result is never
// promoted. The id stays Inflight until that result arrives; a
// reconciliation pass in the meantime schedules a fresh setup for then.
func (r *Reconciler) expireSetup(a *attachment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.inflight[a.id] != a || a.expired {
		return
	}
	a.expired = true
	r.tokens[a.id]++
	a.cancel()

	r.metrics.RecordTimeout(a.id)
	r.recorder.Record(events.ReasonPatternSetupTimedOut, events.EventData{
		Pattern:  string(a.id),
		Token:    a.token,
		Duration: r.config.SetupTimeout,
	})
	logging.Warn(subsystem, "Setup of %s abandoned after %v", a.id, r.config.SetupTimeout)
}

// cleanupLocked calls the attachment's cleanup, swallowing failures.
func (r *Reconciler) cleanupLocked(a *attachment) {
	err := safeCleanup(a.capability, a.res)
	r.metrics.RecordCleanup(a.id, err != nil)
	if err != nil {
		logging.Warn(subsystem, "Cleanup of %s failed: %v", a.id, err)
		r.recorder.Record(events.ReasonPatternCleanupFailed, events.EventData{
			Pattern: string(a.id),
			Token:   a.token,
			Error:   err.Error(),
		})
	}
}

func sameHandle(a, b resource.Handle) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.InstanceID() == b.InstanceID()
}
