package config

import "time"

const (
	// DefaultManifestFile is the manifest file name inside the config directory.
	DefaultManifestFile = "patterns.yaml"

	// DefaultStyleURL is the style loaded when none is configured.
	DefaultStyleURL = "demo://streets"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() PatternHostConfig {
	return PatternHostConfig{
		Manifest: DefaultManifestFile,
		Reconciler: ReconcilerConfig{
			SetupTimeout: 0,
			EventBuffer:  64,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 250 * time.Millisecond,
		},
		Map: MapConfig{
			Container: "map",
			StyleURL:  DefaultStyleURL,
			LoadDelay: 50 * time.Millisecond,
		},
		Demo: DemoConfig{
			SetupDelay: 100 * time.Millisecond,
		},
	}
}
