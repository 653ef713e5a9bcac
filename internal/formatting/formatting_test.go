package formatting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/maprender"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/reconciler"
)

func sampleStatus() app.HostStatus {
	since := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return app.HostStatus{
		StyleURL: "demo://streets",
		Declared: []pattern.ID{"heatmap", "labels"},
		Snapshot: reconciler.Snapshot{
			Ready:      true,
			Generation: 2,
			Desired:    []pattern.ID{"heatmap", "labels"},
			Active:     []pattern.ID{"heatmap"},
			Inflight:   []pattern.ID{"labels"},
			Patterns: []reconciler.PatternStatus{
				{ID: "heatmap", State: reconciler.StateActive, Desired: true, Token: 3, Generation: 2, Since: since},
				{ID: "labels", State: reconciler.StateInflight, Desired: true, Token: 1, Generation: 2, Since: since},
			},
		},
		Metrics: reconciler.ReconcilerMetricsSummary{TotalSetups: 4, TotalActivations: 3},
		Layers: []maprender.Layer{
			{ID: "heatmap-layer", Type: "heatmap", Source: "heatmap-source", Paint: map[string]any{"heatmap-opacity": 0.5}},
		},
	}
}

func sampleEvents() []events.Event {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []events.Event{
		{Type: events.EventTypeNormal, Reason: events.ReasonPatternActivated, Pattern: "heatmap", Message: "activated", Timestamp: at},
		{Type: events.EventTypeWarning, Reason: events.ReasonPatternSetupFailed, Pattern: "labels", Message: "boom", Timestamp: at},
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format OutputFormat
		want   Formatter
	}{
		{FormatConsole, &ConsoleFormatter{}},
		{FormatJSON, &JSONFormatter{}},
		{FormatYAML, &YAMLFormatter{}},
		{FormatTable, &TableFormatter{}},
		{"unknown", &ConsoleFormatter{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f := NewFormatter(Options{Format: tt.format})
			assert.IsType(t, tt.want, f)
			assert.Equal(t, tt.format, f.GetOptions().Format)

			f.SetOptions(Options{Format: tt.format, Quiet: true})
			assert.True(t, f.GetOptions().Quiet)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat("yaml")
	assert.True(t, ok)
	assert.Equal(t, FormatYAML, f)

	_, ok = ParseFormat("xml")
	assert.False(t, ok)
}

func TestJSONFormatter_FormatStatus(t *testing.T) {
	out := NewJSONFormatter(Options{}).FormatStatus(sampleStatus())

	var view statusView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "demo://streets", view.StyleURL)
	assert.True(t, view.Ready)
	assert.Equal(t, uint64(2), view.Generation)
	require.Len(t, view.Patterns, 2)
	assert.Equal(t, "Active", view.Patterns[0].State)
	assert.Equal(t, uint64(3), view.Patterns[0].Token)
	assert.Equal(t, "2026-01-02T03:04:05Z", view.Patterns[0].Since)
	assert.Equal(t, int64(3), view.Metrics.Activations)
	require.Len(t, view.Layers, 1)
	assert.Equal(t, 0.5, view.Layers[0].Paint["heatmap-opacity"])
}

func TestYAMLFormatter_FormatEventsAndCatalog(t *testing.T) {
	f := NewYAMLFormatter(Options{})

	var evs []eventView
	require.NoError(t, yaml.Unmarshal([]byte(f.FormatEvents(sampleEvents())), &evs))
	require.Len(t, evs, 2)
	assert.Equal(t, "Warning", evs[1].Type)
	assert.Equal(t, "labels", evs[1].Pattern)

	var catalog []catalogEntry
	require.NoError(t, yaml.Unmarshal([]byte(f.FormatCatalog([]pattern.ID{"heatmap", "hexbin"}, []pattern.ID{"heatmap"})), &catalog))
	assert.Equal(t, []catalogEntry{{ID: "heatmap", Declared: true}, {ID: "hexbin"}}, catalog)
}

func TestConsoleFormatter(t *testing.T) {
	f := NewConsoleFormatter(Options{})

	status := f.FormatStatus(sampleStatus())
	assert.Contains(t, status, "Style: demo://streets (ready=true, generation=2)")
	assert.Contains(t, status, "heatmap")
	assert.Contains(t, status, "Inflight")
	assert.Contains(t, status, "heatmap-opacity=0.5")

	assert.Equal(t, "No events recorded.", f.FormatEvents(nil))
	assert.Contains(t, f.FormatEvents(sampleEvents()), "PatternSetupFailed")

	catalog := f.FormatCatalog([]pattern.ID{"heatmap", "hexbin"}, []pattern.ID{"hexbin"})
	assert.Contains(t, catalog, "1.   heatmap")
	assert.Contains(t, catalog, "2. * hexbin")

	assert.Equal(t, "No patterns declared.", NewConsoleFormatter(Options{Quiet: true}).FormatStatus(app.HostStatus{}))
}

func TestTableFormatter(t *testing.T) {
	f := NewTableFormatter(Options{})

	status := f.FormatStatus(sampleStatus())
	for _, want := range []string{"PATTERN", "heatmap", "labels", "heatmap-layer", "demo://streets", "activations=3"} {
		assert.Contains(t, status, want)
	}

	assert.Contains(t, f.FormatStatus(app.HostStatus{}), "No patterns declared")
	assert.Contains(t, f.FormatEvents(nil), "No events recorded")
	assert.Contains(t, f.FormatEvents(sampleEvents()), "boom")
	assert.Contains(t, f.FormatCatalog([]pattern.ID{"hexbin"}, nil), "hexbin")
}

func TestFormatPaint(t *testing.T) {
	assert.Equal(t, "a=1 b=x", formatPaint(map[string]any{"b": "x", "a": 1}))
	assert.Empty(t, formatPaint(nil))
}
