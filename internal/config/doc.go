// Package config provides configuration management for patternhost.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/patternhost; commands accept --config-path to point elsewhere.
//
// # Configuration Directory
//
// The directory contains:
//   - config.yaml (main configuration file, optional)
//   - patterns.yaml (the declared pattern list, see package manifest)
//
// # Example
//
//	manifest: patterns.yaml
//	reconciler:
//	  setupTimeout: 30s
//	  eventBuffer: 64
//	watch:
//	  enabled: true
//	  debounce: 250ms
//	map:
//	  container: map
//	  styleURL: demo://streets
//	  loadDelay: 50ms
//	demo:
//	  setupDelay: 100ms
//
// Missing fields keep their defaults (see GetDefaultConfig).
package config
