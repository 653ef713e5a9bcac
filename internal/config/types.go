package config

import (
	"path/filepath"
	"time"
)

// PatternHostConfig is the top-level configuration structure for patternhost.
type PatternHostConfig struct {
	// Manifest is the declared pattern list, relative to the config directory
	// unless absolute.
	Manifest   string           `yaml:"manifest"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Watch      WatchConfig      `yaml:"watch"`
	Map        MapConfig        `yaml:"map"`
	Demo       DemoConfig       `yaml:"demo"`
}

// ReconcilerConfig tunes the pattern reconciler.
type ReconcilerConfig struct {
	SetupTimeout time.Duration `yaml:"setupTimeout"` // Abandon stuck setups after this long (0: never)
	EventBuffer  int           `yaml:"eventBuffer"`  // Number of lifecycle events kept in history
}

// WatchConfig controls manifest file watching.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// MapConfig describes the map resource patterns attach to.
type MapConfig struct {
	Container string        `yaml:"container"` // Mount target name
	StyleURL  string        `yaml:"styleURL"`
	LoadDelay time.Duration `yaml:"loadDelay"` // Simulated style load time
}

// DemoConfig tunes the built-in demo patterns.
type DemoConfig struct {
	SetupDelay time.Duration `yaml:"setupDelay"` // Simulated data fetch per setup
}

// ManifestPath resolves the manifest location against configDir.
func (c PatternHostConfig) ManifestPath(configDir string) string {
	if c.Manifest == "" || filepath.IsAbs(c.Manifest) {
		return c.Manifest
	}
	return filepath.Join(configDir, c.Manifest)
}
