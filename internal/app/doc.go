// Package app provides application bootstrap and lifecycle management for
// the pattern host.
//
// # Architecture Overview
//
//  1. **Bootstrap (`bootstrap.go`)**: loads configuration, sets up logging and builds the Host
//  2. **Configuration (`config.go`)**: runtime flags (debug, silent, config path)
//  3. **Host (`host.go`)**: wires the map provider, pattern registry, reconciler and manifest watcher
//  4. **Modes (`modes.go`)**: headless execution with signal handling
//
// # Data Flow
//
//	maprender.Map --style events--> resource.Provider --Readiness--> reconciler.Reconciler
//	manifest.Watcher --Manifest--> Host.Declare / UpdateParams --> reconciler.Reconciler
//
// The first time a map becomes ready the host notifies the service manager
// (sd_notify READY=1) when running under systemd.
//
// # Usage
//
//	cfg := app.NewConfig(debug, false, configPath)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
package app
