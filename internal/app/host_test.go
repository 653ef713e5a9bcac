package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/patternhost/internal/config"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/reconciler"
)

func testConfig() config.PatternHostConfig {
	cfg := config.GetDefaultConfig()
	cfg.Map.LoadDelay = 0
	cfg.Demo.SetupDelay = 0
	cfg.Watch.Enabled = false
	return cfg
}

func newTestHost(t *testing.T, cfg config.PatternHostConfig, manifestYAML string) (*Host, *atomic.Int32) {
	t.Helper()
	dir := t.TempDir()
	if manifestYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultManifestFile), []byte(manifestYAML), 0644))
	}

	host, err := InitializeHost(cfg, dir)
	require.NoError(t, err)

	notified := &atomic.Int32{}
	host.notify = func(state string) (bool, error) {
		notified.Add(1)
		return false, nil
	}
	t.Cleanup(func() { _ = host.Stop() })
	return host, notified
}

func waitSetups(t *testing.T, host *Host) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, host.Wait(ctx))
}

func TestInitializeHost_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Map.Container = ""
	_, err := InitializeHost(cfg, t.TempDir())
	assert.Error(t, err)
}

func TestHost_StartAppliesManifest(t *testing.T) {
	host, notified := newTestHost(t, testConfig(), `
params:
  opacity: 0.4
patterns:
  - id: heatmap
  - id: labels
  - id: hexbin
    enabled: false
`)

	require.NoError(t, host.Start(context.Background()))
	waitSetups(t, host)

	select {
	case <-host.Ready():
	case <-time.After(time.Second):
		t.Fatal("host never became ready")
	}
	assert.Equal(t, int32(1), notified.Load())

	status := host.Status()
	assert.Equal(t, config.DefaultStyleURL, status.StyleURL)
	assert.Equal(t, []pattern.ID{"heatmap", "labels"}, status.Declared)
	assert.Equal(t, []pattern.ID{"heatmap", "labels"}, status.Snapshot.Active)
	require.Len(t, status.Layers, 2)
	for _, layer := range status.Layers {
		if layer.ID == "heatmap-layer" {
			assert.Equal(t, 0.4, layer.Paint["heatmap-opacity"])
		}
	}
}

func TestHost_StartWithoutManifest(t *testing.T) {
	host, _ := newTestHost(t, testConfig(), "")
	require.NoError(t, host.Start(context.Background()))
	assert.Empty(t, host.Status().Declared)
}

func TestHost_EnableDisableAndParams(t *testing.T) {
	host, _ := newTestHost(t, testConfig(), "")
	require.NoError(t, host.Start(context.Background()))

	require.NoError(t, host.Enable("choropleth"))
	require.NoError(t, host.Enable("choropleth"))
	assert.ErrorIs(t, host.Enable("contours"), pattern.ErrUnknownPattern)
	waitSetups(t, host)
	assert.Equal(t, []pattern.ID{"choropleth"}, host.Status().Snapshot.Active)

	require.NoError(t, host.SetParam("opacity", 0.25))
	layers := host.Status().Layers
	require.Len(t, layers, 1)
	assert.Equal(t, 0.25, layers[0].Paint["fill-opacity"])

	require.NoError(t, host.Disable("choropleth"))
	status := host.Status()
	assert.Empty(t, status.Snapshot.Active)
	assert.Empty(t, status.Layers)
}

func TestHost_ConcurrentEditsAreNotLost(t *testing.T) {
	host, _ := newTestHost(t, testConfig(), "")
	require.NoError(t, host.Start(context.Background()))

	ids := []pattern.ID{"choropleth", "heatmap", "hexbin", "labels"}
	for round := 0; round < 20; round++ {
		var g errgroup.Group
		for _, id := range ids {
			g.Go(func() error { return host.Enable(id) })
		}
		g.Go(func() error { return host.SetParam(fmt.Sprintf("round-%d", round), round) })
		g.Go(func() error { return host.SetParam("opacity", 0.3) })
		require.NoError(t, g.Wait())

		status := host.Status()
		require.ElementsMatch(t, ids, status.Declared, "round %d", round)
		require.ElementsMatch(t, ids, status.Snapshot.Desired, "round %d", round)

		var disable errgroup.Group
		for _, id := range ids {
			disable.Go(func() error { return host.Disable(id) })
		}
		require.NoError(t, disable.Wait())
		require.Empty(t, host.Status().Declared, "round %d", round)
		require.Empty(t, host.Status().Snapshot.Desired, "round %d", round)
	}

	params := host.reconciler.Params()
	for round := 0; round < 20; round++ {
		assert.Equal(t, round, params[fmt.Sprintf("round-%d", round)])
	}
	waitSetups(t, host)
}

func TestHost_ReloadStyleReattaches(t *testing.T) {
	host, notified := newTestHost(t, testConfig(), "patterns:\n  - id: heatmap\n")
	require.NoError(t, host.Start(context.Background()))
	waitSetups(t, host)

	require.NoError(t, host.SetStyle("demo://dark"))
	waitSetups(t, host)

	status := host.Status()
	assert.Equal(t, "demo://dark", status.StyleURL)
	assert.Equal(t, uint64(1), status.Snapshot.Generation)
	assert.Equal(t, []pattern.ID{"heatmap"}, status.Snapshot.Active)
	assert.Len(t, status.Layers, 1)
	assert.Equal(t, int32(1), notified.Load(), "ready notification is sent once")
}

func TestHost_UnknownManifestIDs(t *testing.T) {
	host, _ := newTestHost(t, testConfig(), "patterns:\n  - id: heatmap\n  - id: contours\n")
	require.NoError(t, host.Start(context.Background()))
	waitSetups(t, host)

	assert.Equal(t, []pattern.ID{"heatmap"}, host.Status().Snapshot.Active)
	assert.ErrorIs(t, host.Declare([]pattern.ID{"contours"}), pattern.ErrUnknownPattern)
}

func TestHost_WatchesManifest(t *testing.T) {
	cfg := testConfig()
	cfg.Watch.Enabled = true
	cfg.Watch.Debounce = 20 * time.Millisecond

	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultManifestFile)
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - id: heatmap\n"), 0644))

	host, err := InitializeHost(cfg, dir)
	require.NoError(t, err)
	host.notify = func(string) (bool, error) { return false, nil }
	defer func() { _ = host.Stop() }()

	require.NoError(t, host.Start(context.Background()))
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - id: labels\n"), 0644))

	require.Eventually(t, func() bool {
		active := host.Status().Snapshot.Active
		return len(active) == 1 && active[0] == "labels"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHost_Stop(t *testing.T) {
	host, _ := newTestHost(t, testConfig(), "patterns:\n  - id: heatmap\n")
	require.NoError(t, host.Start(context.Background()))
	waitSetups(t, host)

	require.NoError(t, host.Stop())
	require.NoError(t, host.Stop())

	assert.True(t, host.Status().Snapshot.Closed)
	assert.ErrorIs(t, host.Enable("labels"), reconciler.ErrClosed)
	assert.Error(t, host.ReloadStyle())
}
