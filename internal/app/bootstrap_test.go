package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/patternhost/internal/config"
	"github.com/giantswarm/patternhost/internal/pattern"
)

func TestNewApplication_LoadsConfigFromPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("map:\n  styleURL: demo://dark\n"), 0644))

	application, err := NewApplication(NewConfig(false, true, dir))
	require.NoError(t, err)
	require.NotNil(t, application.Host())
	assert.Equal(t, "demo://dark", application.config.HostConfig.Map.StyleURL)
}

func TestNewApplication_MalformedConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("map: ["), 0644))

	_, err := NewApplication(NewConfig(false, true, dir))
	assert.Error(t, err)
}

func TestApplication_RunReportsFinalStatus(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultManifestFile), []byte("patterns:\n  - id: labels\n"), 0644))

	hostCfg := testConfig()
	cfg := NewConfig(false, true, dir)
	cfg.HostConfig = &hostCfg

	final := make(chan HostStatus, 1)
	cfg.OnShutdown = func(s HostStatus) { final <- s }

	application, err := NewApplication(cfg)
	require.NoError(t, err)
	application.Host().notify = func(string) (bool, error) { return false, nil }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	require.Eventually(t, func() bool {
		active := application.Host().Status().Snapshot.Active
		return len(active) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	status := <-final
	assert.Equal(t, []pattern.ID{"labels"}, status.Snapshot.Active)
	assert.True(t, application.Host().Status().Snapshot.Closed)
}
