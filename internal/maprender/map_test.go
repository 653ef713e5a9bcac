package maprender

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"
)

type styleLog struct {
	mu     sync.Mutex
	events []StyleEvent
}

func (l *styleLog) record(e StyleEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *styleLog) get() []StyleEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]StyleEvent(nil), l.events...)
}

func loadedMap(t *testing.T) *Map {
	t.Helper()
	m := New("map-1", "map", Options{StyleURL: "demo://streets"})
	require.True(t, m.IsStyleLoaded())
	return m
}

func TestMap_LayersAndSources(t *testing.T) {
	m := loadedMap(t)

	require.NoError(t, m.AddSource(Source{ID: "points", Kind: "geojson"}))
	assert.ErrorIs(t, m.AddSource(Source{ID: "points"}), ErrExists)

	assert.ErrorIs(t, m.AddLayer(Layer{ID: "heat", Source: "missing"}), ErrNotFound)
	require.NoError(t, m.AddLayer(Layer{ID: "heat", Type: "heatmap", Source: "points", Paint: map[string]any{"opacity": 1.0}}))
	assert.ErrorIs(t, m.AddLayer(Layer{ID: "heat", Source: "points"}), ErrExists)

	require.NoError(t, m.SetPaintProperty("heat", "opacity", 0.4))
	layer, ok := m.Layer("heat")
	require.True(t, ok)
	assert.Equal(t, 0.4, layer.Paint["opacity"])

	layer.Paint["opacity"] = 0.0
	again, _ := m.Layer("heat")
	assert.Equal(t, 0.4, again.Paint["opacity"], "layers are returned as copies")

	assert.ErrorIs(t, m.RemoveSource("points"), ErrInUse)
	require.NoError(t, m.RemoveLayer("heat"))
	assert.ErrorIs(t, m.RemoveLayer("heat"), ErrNotFound)
	require.NoError(t, m.RemoveSource("points"))
	assert.Empty(t, m.Sources())
	assert.Empty(t, m.Layers())
}

func TestMap_ReloadWipesState(t *testing.T) {
	m := loadedMap(t)
	log := &styleLog{}

	var layersAtLoading int
	m.OnStyle(func(e StyleEvent) {
		log.record(e)
		if e == StyleLoading {
			layersAtLoading = len(m.Layers())
		}
	})

	require.NoError(t, m.AddSource(Source{ID: "points"}))
	require.NoError(t, m.AddLayer(Layer{ID: "heat", Source: "points"}))

	m.ReloadStyle()

	assert.Equal(t, []StyleEvent{StyleLoading, StyleLoaded}, log.get())
	assert.Equal(t, 1, layersAtLoading, "listeners see the old style while it is loading")
	assert.False(t, m.HasLayer("heat"))
	assert.False(t, m.HasSource("points"))
	assert.Equal(t, "demo://streets", m.StyleURL())
}

func TestMap_LoadDelay(t *testing.T) {
	fakeClock := testingclock.NewFakeClock(time.Now())
	m := New("map-1", "map", Options{StyleURL: "demo://streets", LoadDelay: 50 * time.Millisecond, Clock: fakeClock})
	log := &styleLog{}
	m.OnStyle(log.record)

	assert.False(t, m.IsStyleLoaded())
	assert.ErrorIs(t, m.AddSource(Source{ID: "points"}), ErrStyleNotLoaded)

	fakeClock.Step(50 * time.Millisecond)
	require.Eventually(t, m.IsStyleLoaded, time.Second, time.Millisecond)
	assert.Equal(t, []StyleEvent{StyleLoaded}, log.get())

	// A second switch while loading supersedes the first.
	m.SetStyle("demo://dark")
	m.SetStyle("demo://light")
	fakeClock.Step(50 * time.Millisecond)
	require.Eventually(t, m.IsStyleLoaded, time.Second, time.Millisecond)
	assert.Equal(t, "demo://light", m.StyleURL())
	assert.Equal(t, []StyleEvent{StyleLoaded, StyleLoading, StyleLoaded}, log.get())
}

func TestMap_Close(t *testing.T) {
	m := loadedMap(t)
	m.Close()
	m.Close()

	assert.ErrorIs(t, m.AddSource(Source{ID: "points"}), ErrMapClosed)
	m.ReloadStyle()
	assert.True(t, m.IsStyleLoaded(), "closed maps ignore style switches")
}

func TestNewFactory(t *testing.T) {
	factory := NewFactory(Options{StyleURL: "demo://streets"})

	handle, err := factory(context.Background(), "map", "instance-1")
	require.NoError(t, err)
	m, ok := handle.(*Map)
	require.True(t, ok)
	assert.Equal(t, "instance-1", m.InstanceID())
	assert.Equal(t, "map", string(m.Container()))

	_, err = factory(context.Background(), "", "instance-2")
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = factory(ctx, "map", "instance-3")
	assert.ErrorIs(t, err, context.Canceled)
}
