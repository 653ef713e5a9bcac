package app

import (
	"github.com/giantswarm/patternhost/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Silent suppresses all log output
	Silent bool

	// Custom configuration path (optional)
	// When empty, ~/.config/patternhost is used
	ConfigPath string

	// Host configuration, loaded during bootstrap when nil
	HostConfig *config.PatternHostConfig

	// OnShutdown receives the host status right before teardown
	OnShutdown func(HostStatus)
}

// NewConfig creates a new application configuration
func NewConfig(debug, silent bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Silent:     silent,
		ConfigPath: configPath,
	}
}
