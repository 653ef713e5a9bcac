package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/giantswarm/patternhost/internal/maprender"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/reconciler"
)

func patternByID(t *testing.T, opts Options, id pattern.ID) *LayerPattern {
	t.Helper()
	for _, p := range Patterns(opts) {
		if p.ID() == id {
			return p
		}
	}
	t.Fatalf("no demo pattern %s", id)
	return nil
}

func TestRegister(t *testing.T) {
	registry := pattern.NewRegistry()
	require.NoError(t, Register(registry, Options{}))
	assert.Equal(t, []pattern.ID{"choropleth", "heatmap", "hexbin", "labels"}, registry.IDs())

	assert.Error(t, Register(registry, Options{}), "duplicate registration fails")
}

func TestLayerPattern_Lifecycle(t *testing.T) {
	m := maprender.New("map-1", "map", maprender.Options{})
	heat := patternByID(t, Options{}, "heatmap")

	require.NoError(t, heat.Setup(context.Background(), m, pattern.Params{"opacity": 0.6}))
	layer, ok := m.Layer("heatmap-layer")
	require.True(t, ok)
	assert.Equal(t, "heatmap", layer.Type)
	assert.Equal(t, 0.6, layer.Paint["heatmap-opacity"])
	assert.True(t, m.HasSource("heatmap-source"))

	require.NoError(t, heat.Update(m, pattern.Params{"opacity": 3.0}))
	layer, _ = m.Layer("heatmap-layer")
	assert.Equal(t, 1.0, layer.Paint["heatmap-opacity"], "opacity is clamped")

	require.NoError(t, heat.Cleanup(m))
	assert.Empty(t, m.Layers())
	assert.Empty(t, m.Sources())

	require.NoError(t, heat.Cleanup(m), "cleanup tolerates missing state")
}

func TestLayerPattern_Labels(t *testing.T) {
	m := maprender.New("map-1", "map", maprender.Options{})
	labels := patternByID(t, Options{}, "labels")

	require.NoError(t, labels.Setup(context.Background(), m, pattern.Params{"labelField": "title"}))
	layer, ok := m.Layer("labels-layer")
	require.True(t, ok)
	assert.Equal(t, "title", layer.Paint["text-field"])
	assert.Equal(t, 1.0, layer.Paint["text-opacity"])
}

func TestLayerPattern_SetupDelayHonoursContext(t *testing.T) {
	m := maprender.New("map-1", "map", maprender.Options{})

	cancelled := patternByID(t, Options{SetupDelay: time.Second, Clock: testingclock.NewFakeClock(time.Now())}, "heatmap")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cancelled.Setup(ctx, m, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.Layers())

	fakeClock := testingclock.NewFakeClock(time.Now())
	heat := patternByID(t, Options{SetupDelay: time.Second, Clock: fakeClock}, "heatmap")
	done := make(chan error, 1)
	go func() { done <- heat.Setup(context.Background(), m, nil) }()

	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)
	fakeClock.Step(time.Second)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("setup did not finish after the delay")
	}
	assert.True(t, m.HasLayer("heatmap-layer"))
}

func TestLayerPattern_RejectsForeignResource(t *testing.T) {
	heat := patternByID(t, Options{}, "heatmap")
	err := heat.Setup(context.Background(), fakeHandle{}, nil)
	assert.Error(t, err)
}

type fakeHandle struct{}

func (fakeHandle) InstanceID() string { return "fake" }

func TestDemoPatterns_SurviveStyleReload(t *testing.T) {
	m := maprender.New("map-1", "map", maprender.Options{StyleURL: "demo://streets"})
	r := reconciler.New(reconciler.Config{InitialParams: pattern.Params{"opacity": 0.5}})
	defer r.Close()

	m.OnStyle(func(e maprender.StyleEvent) {
		_ = r.SetReadiness(m, e == maprender.StyleLoaded)
	})
	require.NoError(t, r.SetReadiness(m, m.IsStyleLoaded()))

	registry := pattern.NewRegistry()
	require.NoError(t, Register(registry, Options{}))
	declared, err := registry.Resolve([]pattern.ID{"heatmap", "labels"})
	require.NoError(t, err)
	require.NoError(t, r.SetPatterns(declared))

	wait := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, r.Wait(ctx))
	}
	wait()
	assert.Len(t, m.Layers(), 2)

	m.ReloadStyle()
	wait()

	assert.Equal(t, []pattern.ID{"heatmap", "labels"}, r.Snapshot().Active)
	assert.Len(t, m.Layers(), 2, "patterns re-attached to the new style")
	assert.Equal(t, uint64(1), r.Snapshot().Generation)

	summary := r.Metrics().GetSummary()
	assert.Zero(t, summary.TotalCleanupFailures)
	assert.Zero(t, summary.TotalSetupFailures)

	require.NoError(t, r.Close())
	assert.Empty(t, m.Layers())
	assert.Empty(t, m.Sources())
}

func TestDemoPatterns_SlowSetupAcrossStyleReload(t *testing.T) {
	m := maprender.New("map-1", "map", maprender.Options{StyleURL: "demo://streets"})
	r := reconciler.New(reconciler.Config{})
	defer r.Close()

	m.OnStyle(func(e maprender.StyleEvent) {
		_ = r.SetReadiness(m, e == maprender.StyleLoaded)
	})
	require.NoError(t, r.SetReadiness(m, m.IsStyleLoaded()))

	fakeClock := testingclock.NewFakeClock(time.Now())
	registry := pattern.NewRegistry()
	require.NoError(t, Register(registry, Options{SetupDelay: time.Second, Clock: fakeClock}))
	declared, err := registry.Resolve([]pattern.ID{"heatmap"})
	require.NoError(t, err)
	require.NoError(t, r.SetPatterns(declared))
	require.Eventually(t, fakeClock.HasWaiters, time.Second, time.Millisecond)

	// The first setup is still fetching when the style is swapped.
	m.ReloadStyle()

	require.Eventually(t, func() bool {
		return r.Metrics().GetSummary().TotalSetups == 2
	}, time.Second, time.Millisecond, "a fresh setup follows the stale one")
	require.Eventually(t, func() bool {
		fakeClock.Step(time.Second)
		return len(r.Snapshot().Active) == 1
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Wait(ctx))

	assert.Equal(t, []pattern.ID{"heatmap"}, r.Snapshot().Active)
	assert.True(t, m.HasLayer("heatmap-layer"), "stale cleanup must not remove the fresh layer")
	assert.True(t, m.HasSource("heatmap-source"))

	summary := r.Metrics().GetSummary()
	assert.Equal(t, int64(2), summary.TotalSetups)
	assert.Equal(t, int64(1), summary.TotalActivations)
	assert.Equal(t, int64(1), summary.TotalDiscards+summary.TotalSetupFailures)
}
