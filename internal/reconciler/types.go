package reconciler

import (
	"context"
	"errors"
	"time"

	"k8s.io/utils/clock"

	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/resource"
)

// ErrClosed is returned by operations invoked after Close.
var ErrClosed = errors.New("reconciler closed")

// PatternState is the per-pattern reconciliation state.
type PatternState string

const (
	// StateUntracked means the pattern has no setup running and nothing attached.
	StateUntracked PatternState = "Untracked"

	// StateInflight means a setup attempt has started and not yet resolved.
	StateInflight PatternState = "Inflight"

	// StateActive means a setup completed and was promoted.
	StateActive PatternState = "Active"
)

// Config holds configuration for a Reconciler.
type Config struct {
	// InitialParams are handed to the first setups until UpdateParams is called.
	InitialParams pattern.Params

	// SetupTimeout gives up on a setup attempt that has not resolved in time.
	// The attempt is fenced like a superseded one: its late result is cleaned
	// up, never promoted. The id keeps its Inflight slot until that result
	// arrives. Zero disables the timeout.
	SetupTimeout time.Duration

	// Clock drives setup timeouts. Defaults to the real clock.
	Clock clock.WithDelayedExecution

	// Recorder receives lifecycle events. Optional.
	Recorder *events.Recorder

	// Metrics receives counters. A fresh instance is created when nil.
	Metrics *ReconcilerMetrics
}

// attachment is one setup attempt of one pattern, tracked from the moment
// setup is issued until it is promoted, discarded or cleaned up.
type attachment struct {
	id         pattern.ID
	capability pattern.Capability
	res        resource.Handle
	token      uint64
	generation uint64
	startedAt  time.Time

	cancel context.CancelFunc
	timer  clock.Timer

	// expired is set once the setup timeout fired.
	expired bool
	// rerun is set when a pass wanted a fresh setup while this attempt,
	// already unpromotable, still held the id.
	rerun bool
}

// stop releases the attempt's context and timer. Safe to call repeatedly.
func (a *attachment) stop() {
	if a.timer != nil {
		a.timer.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// PatternStatus is a read-only view of one tracked pattern.
type PatternStatus struct {
	ID         pattern.ID
	State      PatternState
	Desired    bool
	Token      uint64
	Generation uint64
	Since      time.Time
}

// Snapshot is a consistent, read-only view of the reconciler's bookkeeping.
type Snapshot struct {
	Ready      bool
	Closed     bool
	Generation uint64
	Desired    []pattern.ID
	Active     []pattern.ID
	Inflight   []pattern.ID
	Tokens     map[pattern.ID]uint64
	Patterns   []PatternStatus
}

// StateOf returns the state of id in the snapshot.
func (s Snapshot) StateOf(id pattern.ID) PatternState {
	for _, p := range s.Patterns {
		if p.ID == id {
			return p.State
		}
	}
	return StateUntracked
}
