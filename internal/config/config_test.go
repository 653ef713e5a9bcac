package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	config, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestLoadConfig_Override(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
manifest: /etc/patternhost/patterns.yaml
reconciler:
  setupTimeout: 30s
watch:
  debounce: 1s
map:
  styleURL: demo://dark
`)

	config, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "/etc/patternhost/patterns.yaml", config.Manifest)
	assert.Equal(t, 30*time.Second, config.Reconciler.SetupTimeout)
	assert.Equal(t, 64, config.Reconciler.EventBuffer, "unset fields keep defaults")
	assert.True(t, config.Watch.Enabled)
	assert.Equal(t, time.Second, config.Watch.Debounce)
	assert.Equal(t, "demo://dark", config.Map.StyleURL)
	assert.Equal(t, "map", config.Map.Container)
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reconciler: [")

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var configErr ConfigurationError
	require.True(t, errors.As(err, &configErr))
	assert.Equal(t, "parse", configErr.ErrorType)
	assert.Equal(t, configFileName, configErr.FileName)
	assert.Contains(t, configErr.DetailedError(), "Type: parse")
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reconciler:\n  setupTimeout: -1s\nmap:\n  container: \"\"\n")

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var validationErrs ValidationErrors
	require.True(t, errors.As(err, &validationErrs))
	assert.Len(t, validationErrs, 2)
}

func TestPatternHostConfig_ManifestPath(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		want     string
	}{
		{"relative", "patterns.yaml", filepath.Join("/cfg", "patterns.yaml")},
		{"absolute", "/srv/patterns.yaml", "/srv/patterns.yaml"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := PatternHostConfig{Manifest: tt.manifest}
			assert.Equal(t, tt.want, config.ManifestPath("/cfg"))
		})
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors
	assert.False(t, errs.HasErrors())
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("watch.debounce", "must not be negative", -1)
	assert.Equal(t, "field 'watch.debounce': must not be negative", errs.Error())

	errs.Add("", "something else")
	assert.Equal(t, "validation failed: field 'watch.debounce': must not be negative; something else", errs.Error())
}
