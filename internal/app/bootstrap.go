package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/giantswarm/patternhost/internal/config"
	"github.com/giantswarm/patternhost/pkg/logging"
)

// Application represents the main application structure that bootstraps and
// runs the pattern host.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: Load configuration, initialize logging, build the host
//  2. Execution phase: Run the host until the context is cancelled
//
// Example usage:
//
//	cfg := app.NewConfig(true, false, "")  // debug enabled
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config *Config
	host   *Host
}

// NewApplication creates and initializes a new application instance with the
// provided configuration:
//
//  1. Configures logging based on debug and silent settings
//  2. Loads the host configuration from cfg.ConfigPath (or the default directory)
//  3. Initializes the host and its components
func NewApplication(cfg *Config) (*Application, error) {
	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(appLogLevel, logOutput)

	configDir := cfg.ConfigPath
	if configDir == "" {
		configDir = config.GetDefaultConfigPathOrPanic()
	}

	if cfg.HostConfig == nil {
		hostCfg, err := config.LoadConfig(configDir)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", configDir)
			return nil, fmt.Errorf("failed to load configuration from path %s: %w", configDir, err)
		}
		cfg.HostConfig = &hostCfg
	}

	host, err := InitializeHost(*cfg.HostConfig, configDir)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize host")
		return nil, fmt.Errorf("failed to initialize host: %w", err)
	}

	return &Application{
		config: cfg,
		host:   host,
	}, nil
}

// Host returns the application's host.
func (a *Application) Host() *Host {
	return a.host
}

// Run executes the application until ctx is cancelled or a termination
// signal arrives.
func (a *Application) Run(ctx context.Context) error {
	return runHeadless(ctx, a.host, a.config.OnShutdown)
}
