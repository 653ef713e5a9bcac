package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/giantswarm/patternhost/internal/config"
	"github.com/giantswarm/patternhost/internal/demo"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/manifest"
	"github.com/giantswarm/patternhost/internal/maprender"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/reconciler"
	"github.com/giantswarm/patternhost/internal/resource"
	"github.com/giantswarm/patternhost/pkg/logging"
)

// Host wires the map resource, the pattern catalogue and the reconciler
// together and keeps the declared pattern list in sync with the manifest.
//
// Initialization order:
//  1. Pattern registry with the built-in demo patterns
//  2. Event recorder
//  3. Resource provider building maprender maps
//  4. Reconciler, fed by the provider's readiness changes
//  5. Manifest watcher (when enabled)
type Host struct {
	cfg          config.PatternHostConfig
	manifestPath string

	registry   *pattern.Registry
	recorder   *events.Recorder
	provider   *resource.Provider
	reconciler *reconciler.Reconciler
	watcher    *manifest.Watcher

	// notify reports service state to the init system.
	notify func(state string) (bool, error)

	// declareMu serialises changes to the declared list so a read, the
	// edit and the SetPatterns call that follows happen as one step.
	declareMu sync.Mutex
	// paramsMu does the same for parameter edits.
	paramsMu sync.Mutex

	mu       sync.Mutex
	declared []pattern.ID
	m        *maprender.Map
	started  bool
	stopped  bool

	readyOnce sync.Once
	readyCh   chan struct{}
}

// HostStatus is a point-in-time view of the host.
type HostStatus struct {
	StyleURL string
	Declared []pattern.ID
	Snapshot reconciler.Snapshot
	Metrics  reconciler.ReconcilerMetricsSummary
	Layers   []maprender.Layer
}

// InitializeHost creates every component of the host. Nothing runs until
// Start is called.
func InitializeHost(cfg config.PatternHostConfig, configDir string) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	h := &Host{
		cfg:          cfg,
		manifestPath: cfg.ManifestPath(configDir),
		registry:     pattern.NewRegistry(),
		recorder:     events.NewRecorder(cfg.Reconciler.EventBuffer),
		readyCh:      make(chan struct{}),
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}

	if err := demo.Register(h.registry, demo.Options{SetupDelay: cfg.Demo.SetupDelay}); err != nil {
		return nil, err
	}

	h.provider = resource.NewProvider(maprender.NewFactory(maprender.Options{
		StyleURL:  cfg.Map.StyleURL,
		LoadDelay: cfg.Map.LoadDelay,
	}))

	h.reconciler = reconciler.New(reconciler.Config{
		SetupTimeout: cfg.Reconciler.SetupTimeout,
		Recorder:     h.recorder,
	})

	h.provider.OnChange(func(s resource.Readiness) {
		if err := h.reconciler.SetReadiness(s.Handle, s.Ready); err != nil && !errors.Is(err, reconciler.ErrClosed) {
			logging.Warn("Host", "Failed to forward readiness: %v", err)
		}
	})
	h.provider.OnReady(h.onFirstReady)

	if cfg.Watch.Enabled && h.manifestPath != "" {
		h.watcher = manifest.NewWatcher(h.manifestPath, cfg.Watch.Debounce)
	}

	return h, nil
}

// onFirstReady runs once per map instance.
func (h *Host) onFirstReady(handle resource.Handle) {
	h.recorder.Record(events.ReasonResourceReady, events.EventData{Detail: handle.InstanceID()})
	h.readyOnce.Do(func() {
		close(h.readyCh)
		sent, err := h.notify(daemon.SdNotifyReady)
		switch {
		case err != nil:
			logging.Warn("Host", "Failed to notify service manager: %v", err)
		case sent:
			logging.Debug("Host", "Notified service manager: ready")
		}
	})
	logging.Info("Host", "Map %s is ready", handle.InstanceID())
}

// Ready is closed the first time a map becomes ready.
func (h *Host) Ready() <-chan struct{} {
	return h.readyCh
}

// Start acquires the map, applies the manifest and starts watching it.
func (h *Host) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil
	}
	h.started = true
	h.mu.Unlock()

	handle, err := h.provider.Acquire(ctx, resource.MountTarget(h.cfg.Map.Container))
	if err != nil {
		return err
	}
	m, ok := handle.(*maprender.Map)
	if !ok {
		return fmt.Errorf("unexpected resource type %T", handle)
	}

	h.mu.Lock()
	h.m = m
	h.mu.Unlock()

	m.OnStyle(func(e maprender.StyleEvent) {
		if err := h.provider.SetReady(e == maprender.StyleLoaded); err != nil {
			logging.Warn("Host", "Failed to record readiness: %v", err)
		}
	})
	// The style may have finished loading before the listener was attached.
	if m.IsStyleLoaded() {
		if err := h.provider.SetReady(true); err != nil {
			return err
		}
	}

	if err := h.loadManifest(); err != nil {
		return err
	}

	if h.watcher != nil {
		if err := h.watcher.Start(ctx, h.applyManifest); err != nil {
			return fmt.Errorf("failed to watch manifest: %w", err)
		}
	}
	return nil
}

func (h *Host) loadManifest() error {
	if h.manifestPath == "" {
		return nil
	}
	mf, err := manifest.Load(h.manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Warn("Host", "No manifest at %s, starting without patterns", h.manifestPath)
			return nil
		}
		return err
	}
	h.applyManifest(mf)
	return nil
}

// applyManifest replaces parameters and the declared pattern list.
func (h *Host) applyManifest(mf manifest.Manifest) {
	h.paramsMu.Lock()
	err := h.reconciler.UpdateParams(mf.Params)
	h.paramsMu.Unlock()
	if err != nil {
		logging.Warn("Host", "Failed to apply manifest params: %v", err)
		return
	}
	if err := h.Declare(mf.EnabledIDs()); err != nil {
		logging.Warn("Host", "Manifest applied partially: %v", err)
	}
}

// Declare replaces the declared pattern list. Unknown ids are reported in the
// returned error; the known ones are still reconciled.
func (h *Host) Declare(ids []pattern.ID) error {
	h.declareMu.Lock()
	defer h.declareMu.Unlock()
	return h.declareLocked(ids)
}

// Enable adds id to the declared list.
func (h *Host) Enable(id pattern.ID) error {
	if _, ok := h.registry.Get(id); !ok {
		return fmt.Errorf("%w: %s", pattern.ErrUnknownPattern, id)
	}

	h.declareMu.Lock()
	defer h.declareMu.Unlock()

	ids := h.declaredIDs()
	if slices.Contains(ids, id) {
		return nil
	}
	return h.declareLocked(append(ids, id))
}

// Disable removes id from the declared list.
func (h *Host) Disable(id pattern.ID) error {
	h.declareMu.Lock()
	defer h.declareMu.Unlock()

	ids := slices.DeleteFunc(h.declaredIDs(), func(d pattern.ID) bool { return d == id })
	return h.declareLocked(ids)
}

// declareLocked must be called with declareMu held.
func (h *Host) declareLocked(ids []pattern.ID) error {
	capabilities, resolveErr := h.registry.Resolve(ids)

	h.mu.Lock()
	h.declared = slices.Clone(ids)
	h.mu.Unlock()

	if err := h.reconciler.SetPatterns(capabilities); err != nil {
		return err
	}
	return resolveErr
}

func (h *Host) declaredIDs() []pattern.ID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.declared)
}

// SetParam changes one parameter and forwards the result to active patterns.
func (h *Host) SetParam(key string, value any) error {
	h.paramsMu.Lock()
	defer h.paramsMu.Unlock()

	params := h.reconciler.Params()
	params[key] = value
	return h.reconciler.UpdateParams(params)
}

// ReloadStyle reloads the map's style, forcing every pattern to re-attach.
func (h *Host) ReloadStyle() error {
	m, err := h.currentMap()
	if err != nil {
		return err
	}
	m.ReloadStyle()
	return nil
}

// SetStyle switches the map to another style.
func (h *Host) SetStyle(url string) error {
	m, err := h.currentMap()
	if err != nil {
		return err
	}
	m.SetStyle(url)
	return nil
}

func (h *Host) currentMap() (*maprender.Map, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.m == nil {
		return nil, resource.ErrNotAcquired
	}
	return h.m, nil
}

// Registry returns the pattern catalogue.
func (h *Host) Registry() *pattern.Registry {
	return h.registry
}

// Events returns recent lifecycle events.
func (h *Host) Events() []events.Event {
	return h.recorder.History()
}

// Subscribe streams lifecycle events.
func (h *Host) Subscribe(buffer int) (<-chan events.Event, func()) {
	return h.reconciler.Events(buffer)
}

// Wait blocks until all outstanding setups finished.
func (h *Host) Wait(ctx context.Context) error {
	return h.reconciler.Wait(ctx)
}

// Status returns a consistent view of the host.
func (h *Host) Status() HostStatus {
	h.mu.Lock()
	declared := slices.Clone(h.declared)
	m := h.m
	h.mu.Unlock()

	status := HostStatus{
		Declared: declared,
		Snapshot: h.reconciler.Snapshot(),
		Metrics:  h.reconciler.Metrics().GetSummary(),
	}
	if m != nil {
		status.StyleURL = m.StyleURL()
		status.Layers = m.Layers()
	}
	return status
}

// Stop tears the host down: the watcher stops, every pattern is cleaned up
// and the map is released. It is safe to call more than once.
func (h *Host) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	m := h.m
	h.m = nil
	h.mu.Unlock()

	var errs []error
	if h.watcher != nil {
		errs = append(errs, h.watcher.Stop())
	}
	errs = append(errs, h.reconciler.Close())
	h.provider.Release()
	if m != nil {
		m.Close()
	}
	h.recorder.Close()

	logging.Info("Host", "Host stopped")
	return errors.Join(errs...)
}
