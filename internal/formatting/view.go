package formatting

import (
	"slices"
	"time"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/reconciler"
)

// statusView is the serialisable shape of app.HostStatus.
type statusView struct {
	StyleURL   string        `json:"styleURL" yaml:"styleURL"`
	Ready      bool          `json:"ready" yaml:"ready"`
	Closed     bool          `json:"closed,omitempty" yaml:"closed,omitempty"`
	Generation uint64        `json:"generation" yaml:"generation"`
	Declared   []string      `json:"declared" yaml:"declared"`
	Patterns   []patternView `json:"patterns" yaml:"patterns"`
	Layers     []layerView   `json:"layers" yaml:"layers"`
	Metrics    metricsView   `json:"metrics" yaml:"metrics"`
}

type patternView struct {
	ID         string `json:"id" yaml:"id"`
	State      string `json:"state" yaml:"state"`
	Desired    bool   `json:"desired" yaml:"desired"`
	Token      uint64 `json:"token" yaml:"token"`
	Generation uint64 `json:"generation" yaml:"generation"`
	Since      string `json:"since,omitempty" yaml:"since,omitempty"`
}

type layerView struct {
	ID     string         `json:"id" yaml:"id"`
	Type   string         `json:"type" yaml:"type"`
	Source string         `json:"source" yaml:"source"`
	Paint  map[string]any `json:"paint,omitempty" yaml:"paint,omitempty"`
}

type metricsView struct {
	Setups           int64   `json:"setups" yaml:"setups"`
	Activations      int64   `json:"activations" yaml:"activations"`
	Discards         int64   `json:"discards" yaml:"discards"`
	SetupFailures    int64   `json:"setupFailures" yaml:"setupFailures"`
	Timeouts         int64   `json:"timeouts" yaml:"timeouts"`
	Cleanups         int64   `json:"cleanups" yaml:"cleanups"`
	CleanupFailures  int64   `json:"cleanupFailures" yaml:"cleanupFailures"`
	UpdateFailures   int64   `json:"updateFailures" yaml:"updateFailures"`
	Invalidations    int64   `json:"invalidations" yaml:"invalidations"`
	SetupFailureRate float64 `json:"setupFailureRate" yaml:"setupFailureRate"`
}

type eventView struct {
	Time    string `json:"time" yaml:"time"`
	Type    string `json:"type" yaml:"type"`
	Reason  string `json:"reason" yaml:"reason"`
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Message string `json:"message" yaml:"message"`
}

type catalogEntry struct {
	ID       string `json:"id" yaml:"id"`
	Declared bool   `json:"declared" yaml:"declared"`
}

func newStatusView(status app.HostStatus) statusView {
	snap := status.Snapshot
	view := statusView{
		StyleURL:   status.StyleURL,
		Ready:      snap.Ready,
		Closed:     snap.Closed,
		Generation: snap.Generation,
		Declared:   idStrings(status.Declared),
		Patterns:   make([]patternView, 0, len(snap.Patterns)),
		Layers:     make([]layerView, 0, len(status.Layers)),
		Metrics:    newMetricsView(status.Metrics),
	}
	for _, p := range snap.Patterns {
		view.Patterns = append(view.Patterns, newPatternView(p))
	}
	for _, l := range status.Layers {
		view.Layers = append(view.Layers, layerView{ID: l.ID, Type: l.Type, Source: l.Source, Paint: l.Paint})
	}
	return view
}

func newPatternView(p reconciler.PatternStatus) patternView {
	view := patternView{
		ID:         string(p.ID),
		State:      string(p.State),
		Desired:    p.Desired,
		Token:      p.Token,
		Generation: p.Generation,
	}
	if !p.Since.IsZero() {
		view.Since = p.Since.UTC().Format(time.RFC3339)
	}
	return view
}

func newMetricsView(m reconciler.ReconcilerMetricsSummary) metricsView {
	return metricsView{
		Setups:           m.TotalSetups,
		Activations:      m.TotalActivations,
		Discards:         m.TotalDiscards,
		SetupFailures:    m.TotalSetupFailures,
		Timeouts:         m.TotalTimeouts,
		Cleanups:         m.TotalCleanups,
		CleanupFailures:  m.TotalCleanupFailures,
		UpdateFailures:   m.TotalUpdateFailures,
		Invalidations:    m.TotalInvalidations,
		SetupFailureRate: m.SetupFailureRate,
	}
}

func newEventViews(evs []events.Event) []eventView {
	views := make([]eventView, 0, len(evs))
	for _, e := range evs {
		views = append(views, eventView{
			Time:    e.Timestamp.UTC().Format(time.RFC3339),
			Type:    string(e.Type),
			Reason:  string(e.Reason),
			Pattern: e.Pattern,
			Message: e.Message,
		})
	}
	return views
}

func newCatalog(registered, declared []pattern.ID) []catalogEntry {
	entries := make([]catalogEntry, 0, len(registered))
	for _, id := range registered {
		entries = append(entries, catalogEntry{ID: string(id), Declared: slices.Contains(declared, id)})
	}
	return entries
}

func idStrings(ids []pattern.ID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
