package reconciler

import (
	"sort"
	"sync"
	"time"

	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/pkg/logging"
)

// ReconcilerMetrics tracks per-pattern lifecycle counters.
//
// Each Reconciler owns its own instance so hosts running side by side never
// share counters.
type ReconcilerMetrics struct {
	mu sync.RWMutex

	patternMetrics map[pattern.ID]*patternMetrics

	totalSetups          int64
	totalActivations     int64
	totalDiscards        int64
	totalSetupFailures   int64
	totalTimeouts        int64
	totalCleanups        int64
	totalCleanupFailures int64
	totalUpdateFailures  int64
	totalInvalidations   int64
}

// patternMetrics holds counters for a single pattern.
type patternMetrics struct {
	ID               pattern.ID
	Setups           int64
	Activations      int64
	Discards         int64
	SetupFailures    int64
	Timeouts         int64
	Cleanups         int64
	CleanupFailures  int64
	UpdateFailures   int64
	LastActivatedAt  time.Time
	LastFailureAt    time.Time
	LastSetupLatency time.Duration
}

// NewReconcilerMetrics creates a new ReconcilerMetrics instance.
func NewReconcilerMetrics() *ReconcilerMetrics {
	return &ReconcilerMetrics{
		patternMetrics: make(map[pattern.ID]*patternMetrics),
	}
}

// getOrCreate returns existing metrics for a pattern or creates new ones.
// Callers must hold m.mu.
func (m *ReconcilerMetrics) getOrCreate(id pattern.ID) *patternMetrics {
	if metrics, exists := m.patternMetrics[id]; exists {
		return metrics
	}
	metrics := &patternMetrics{ID: id}
	m.patternMetrics[id] = metrics
	return metrics
}

// RecordSetup records a setup attempt being issued.
func (m *ReconcilerMetrics) RecordSetup(id pattern.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(id).Setups++
	m.totalSetups++
}

// RecordActivation records a setup promoted to active after latency.
func (m *ReconcilerMetrics) RecordActivation(id pattern.ID, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(id)
	metrics.Activations++
	metrics.LastActivatedAt = time.Now()
	metrics.LastSetupLatency = latency
	m.totalActivations++
}

// RecordDiscard records a stale setup result being discarded.
func (m *ReconcilerMetrics) RecordDiscard(id pattern.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(id).Discards++
	m.totalDiscards++
}

// RecordSetupFailure records a setup that returned an error.
func (m *ReconcilerMetrics) RecordSetupFailure(id pattern.ID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(id)
	metrics.SetupFailures++
	metrics.LastFailureAt = time.Now()
	m.totalSetupFailures++

	logging.Debug("ReconcilerMetrics", "Setup failure for %s: %s (failures: %d)",
		id, reason, metrics.SetupFailures)
}

// RecordTimeout records a setup attempt abandoned after the setup timeout.
func (m *ReconcilerMetrics) RecordTimeout(id pattern.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(id)
	metrics.Timeouts++
	metrics.LastFailureAt = time.Now()
	m.totalTimeouts++
}

// RecordCleanup records a cleanup call and whether it failed.
func (m *ReconcilerMetrics) RecordCleanup(id pattern.ID, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics := m.getOrCreate(id)
	metrics.Cleanups++
	m.totalCleanups++
	if failed {
		metrics.CleanupFailures++
		m.totalCleanupFailures++
	}
}

// RecordUpdateFailure records an update call that failed.
func (m *ReconcilerMetrics) RecordUpdateFailure(id pattern.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getOrCreate(id).UpdateFailures++
	m.totalUpdateFailures++
}

// RecordInvalidation records a style reload fencing all attached state.
func (m *ReconcilerMetrics) RecordInvalidation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalInvalidations++
}

// ReconcilerMetricsSummary provides a summary of reconciliation metrics.
type ReconcilerMetricsSummary struct {
	TotalSetups          int64               `json:"total_setups"`
	TotalActivations     int64               `json:"total_activations"`
	TotalDiscards        int64               `json:"total_discards"`
	TotalSetupFailures   int64               `json:"total_setup_failures"`
	TotalTimeouts        int64               `json:"total_timeouts"`
	TotalCleanups        int64               `json:"total_cleanups"`
	TotalCleanupFailures int64               `json:"total_cleanup_failures"`
	TotalUpdateFailures  int64               `json:"total_update_failures"`
	TotalInvalidations   int64               `json:"total_invalidations"`
	PerPatternMetrics    []PatternMetricView `json:"per_pattern_metrics"`
	SetupFailureRate     float64             `json:"setup_failure_rate"`
}

// PatternMetricView is a read-only view of pattern-specific metrics.
type PatternMetricView struct {
	ID               pattern.ID    `json:"id"`
	Setups           int64         `json:"setups"`
	Activations      int64         `json:"activations"`
	Discards         int64         `json:"discards"`
	SetupFailures    int64         `json:"setup_failures"`
	Timeouts         int64         `json:"timeouts"`
	Cleanups         int64         `json:"cleanups"`
	CleanupFailures  int64         `json:"cleanup_failures"`
	UpdateFailures   int64         `json:"update_failures"`
	LastActivatedAt  time.Time     `json:"last_activated_at,omitempty"`
	LastFailureAt    time.Time     `json:"last_failure_at,omitempty"`
	LastSetupLatency time.Duration `json:"last_setup_latency"`
}

// GetSummary returns a snapshot of all counters, patterns sorted by id.
func (m *ReconcilerMetrics) GetSummary() ReconcilerMetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := ReconcilerMetricsSummary{
		TotalSetups:          m.totalSetups,
		TotalActivations:     m.totalActivations,
		TotalDiscards:        m.totalDiscards,
		TotalSetupFailures:   m.totalSetupFailures,
		TotalTimeouts:        m.totalTimeouts,
		TotalCleanups:        m.totalCleanups,
		TotalCleanupFailures: m.totalCleanupFailures,
		TotalUpdateFailures:  m.totalUpdateFailures,
		TotalInvalidations:   m.totalInvalidations,
		PerPatternMetrics:    make([]PatternMetricView, 0, len(m.patternMetrics)),
	}

	for _, metrics := range m.patternMetrics {
		summary.PerPatternMetrics = append(summary.PerPatternMetrics, metrics.view())
	}
	sort.Slice(summary.PerPatternMetrics, func(i, j int) bool {
		return summary.PerPatternMetrics[i].ID < summary.PerPatternMetrics[j].ID
	})

	if m.totalSetups > 0 {
		summary.SetupFailureRate = float64(m.totalSetupFailures+m.totalTimeouts) / float64(m.totalSetups)
	}
	return summary
}

// GetPatternMetrics returns the metrics view for one pattern.
func (m *ReconcilerMetrics) GetPatternMetrics(id pattern.ID) (PatternMetricView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	metrics, ok := m.patternMetrics[id]
	if !ok {
		return PatternMetricView{}, false
	}
	return metrics.view(), true
}

func (p *patternMetrics) view() PatternMetricView {
	return PatternMetricView{
		ID:               p.ID,
		Setups:           p.Setups,
		Activations:      p.Activations,
		Discards:         p.Discards,
		SetupFailures:    p.SetupFailures,
		Timeouts:         p.Timeouts,
		Cleanups:         p.Cleanups,
		CleanupFailures:  p.CleanupFailures,
		UpdateFailures:   p.UpdateFailures,
		LastActivatedAt:  p.LastActivatedAt,
		LastFailureAt:    p.LastFailureAt,
		LastSetupLatency: p.LastSetupLatency,
	}
}
