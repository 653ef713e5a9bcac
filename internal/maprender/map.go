package maprender

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/giantswarm/patternhost/internal/resource"
	"github.com/giantswarm/patternhost/pkg/logging"
)

var (
	// ErrStyleNotLoaded is returned by mutations issued while a style is loading.
	ErrStyleNotLoaded = errors.New("style is not loaded")

	// ErrExists is returned when adding a layer or source whose id is taken.
	ErrExists = errors.New("already exists")

	// ErrNotFound is returned when a layer or source does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInUse is returned when removing a source that layers still reference.
	ErrInUse = errors.New("in use")

	// ErrMapClosed is returned by every operation after Close.
	ErrMapClosed = errors.New("map closed")
)

// StyleEvent is emitted when the map's style starts or finishes loading.
type StyleEvent string

const (
	StyleLoading StyleEvent = "StyleLoading"
	StyleLoaded  StyleEvent = "StyleLoaded"
)

// Source is a named data source layers draw from.
type Source struct {
	ID   string
	Kind string
	Data any
}

// Layer draws one source with the given paint properties.
type Layer struct {
	ID     string
	Type   string
	Source string
	Paint  map[string]any
}

// Options configure a Map.
type Options struct {
	// StyleURL is the style loaded at construction.
	StyleURL string

	// LoadDelay simulates the time a style takes to load.
	LoadDelay time.Duration

	// Clock drives LoadDelay. Defaults to the real clock.
	Clock clock.WithDelayedExecution
}

// Map is an in-memory stand-in for a stateful map renderer. Loading a style
// wipes every layer and source; patterns have to re-attach afterwards.
type Map struct {
	id        string
	container resource.MountTarget
	clock     clock.WithDelayedExecution
	loadDelay time.Duration

	mu          sync.RWMutex
	styleURL    string
	styleLoaded bool
	revision    uint64
	loadTimer   clock.Timer
	layers      []Layer
	sources     map[string]Source
	listeners   []func(StyleEvent)
	closed      bool
}

// New creates a map mounted into container and starts loading the
// configured style.
func New(id string, container resource.MountTarget, opts Options) *Map {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	m := &Map{
		id:        id,
		container: container,
		clock:     opts.Clock,
		loadDelay: opts.LoadDelay,
		sources:   make(map[string]Source),
	}
	m.SetStyle(opts.StyleURL)
	return m
}

// NewFactory returns a resource.Factory that builds maps with opts.
func NewFactory(opts Options) resource.Factory {
	return func(ctx context.Context, target resource.MountTarget, instanceID string) (resource.Handle, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if target == "" {
			return nil, fmt.Errorf("empty mount target")
		}
		return New(instanceID, target, opts), nil
	}
}

// InstanceID implements resource.Handle.
func (m *Map) InstanceID() string {
	return m.id
}

// Container returns the mount target.
func (m *Map) Container() resource.MountTarget {
	return m.container
}

// OnStyle registers fn for style events. Listeners run outside the map's
// lock and may call back into the map.
func (m *Map) OnStyle(fn func(StyleEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// StyleURL returns the current style.
func (m *Map) StyleURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.styleURL
}

// IsStyleLoaded reports whether the current style finished loading.
func (m *Map) IsStyleLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.styleLoaded
}

// SetStyle switches to url. Listeners first see StyleLoading while the old
// style is still in place; then every layer and source is dropped, and
// StyleLoaded follows after the load delay.
func (m *Map) SetStyle(url string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	wasLoaded := m.styleLoaded
	m.styleLoaded = false
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	if wasLoaded {
		emit(listeners, StyleLoading)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.styleURL = url
	m.layers = nil
	m.sources = make(map[string]Source)
	m.revision++
	revision := m.revision
	if m.loadTimer != nil {
		m.loadTimer.Stop()
		m.loadTimer = nil
	}
	if m.loadDelay > 0 {
		m.loadTimer = m.clock.AfterFunc(m.loadDelay, func() { m.finishLoad(revision) })
	}
	m.mu.Unlock()

	logging.Debug("MapRenderer", "Map %s loading style %s", m.id, url)
	if m.loadDelay <= 0 {
		m.finishLoad(revision)
	}
}

// ReloadStyle reloads the current style, wiping all attached state.
func (m *Map) ReloadStyle() {
	m.SetStyle(m.StyleURL())
}

func (m *Map) finishLoad(revision uint64) {
	m.mu.Lock()
	if m.closed || revision != m.revision || m.styleLoaded {
		m.mu.Unlock()
		return
	}
	m.styleLoaded = true
	m.loadTimer = nil
	listeners := slices.Clone(m.listeners)
	url := m.styleURL
	m.mu.Unlock()

	logging.Debug("MapRenderer", "Map %s loaded style %s", m.id, url)
	emit(listeners, StyleLoaded)
}

func emit(listeners []func(StyleEvent), event StyleEvent) {
	for _, fn := range listeners {
		fn(event)
	}
}

// AddSource adds a data source.
func (m *Map) AddSource(source Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkWritableLocked(); err != nil {
		return err
	}
	if _, ok := m.sources[source.ID]; ok {
		return fmt.Errorf("source %q: %w", source.ID, ErrExists)
	}
	m.sources[source.ID] = source
	return nil
}

// RemoveSource removes a data source no layer references.
func (m *Map) RemoveSource(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkWritableLocked(); err != nil {
		return err
	}
	if _, ok := m.sources[id]; !ok {
		return fmt.Errorf("source %q: %w", id, ErrNotFound)
	}
	for _, l := range m.layers {
		if l.Source == id {
			return fmt.Errorf("source %q used by layer %q: %w", id, l.ID, ErrInUse)
		}
	}
	delete(m.sources, id)
	return nil
}

// AddLayer appends a layer drawing an existing source.
func (m *Map) AddLayer(layer Layer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkWritableLocked(); err != nil {
		return err
	}
	if m.layerIndexLocked(layer.ID) >= 0 {
		return fmt.Errorf("layer %q: %w", layer.ID, ErrExists)
	}
	if _, ok := m.sources[layer.Source]; !ok {
		return fmt.Errorf("layer %q source %q: %w", layer.ID, layer.Source, ErrNotFound)
	}
	layer.Paint = maps.Clone(layer.Paint)
	if layer.Paint == nil {
		layer.Paint = map[string]any{}
	}
	m.layers = append(m.layers, layer)
	return nil
}

// RemoveLayer removes a layer.
func (m *Map) RemoveLayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkWritableLocked(); err != nil {
		return err
	}
	i := m.layerIndexLocked(id)
	if i < 0 {
		return fmt.Errorf("layer %q: %w", id, ErrNotFound)
	}
	m.layers = slices.Delete(m.layers, i, i+1)
	return nil
}

// SetPaintProperty changes one paint property of a layer.
func (m *Map) SetPaintProperty(layerID, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkWritableLocked(); err != nil {
		return err
	}
	i := m.layerIndexLocked(layerID)
	if i < 0 {
		return fmt.Errorf("layer %q: %w", layerID, ErrNotFound)
	}
	m.layers[i].Paint[key] = value
	return nil
}

// HasLayer reports whether a layer exists.
func (m *Map) HasLayer(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.layerIndexLocked(id) >= 0
}

// HasSource reports whether a source exists.
func (m *Map) HasSource(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sources[id]
	return ok
}

// Layer returns a copy of one layer.
func (m *Map) Layer(id string) (Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.layerIndexLocked(id)
	if i < 0 {
		return Layer{}, false
	}
	return copyLayer(m.layers[i]), true
}

// Layers returns copies of all layers in draw order.
func (m *Map) Layers() []Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Layer, 0, len(m.layers))
	for _, l := range m.layers {
		out = append(out, copyLayer(l))
	}
	return out
}

// Sources returns the sorted source ids.
func (m *Map) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.sources))
}

// Close stops any pending style load. Later mutations fail with ErrMapClosed.
func (m *Map) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.loadTimer != nil {
		m.loadTimer.Stop()
		m.loadTimer = nil
	}
	m.layers = nil
	m.sources = make(map[string]Source)
	m.listeners = nil
}

func (m *Map) checkWritableLocked() error {
	if m.closed {
		return ErrMapClosed
	}
	if !m.styleLoaded {
		return ErrStyleNotLoaded
	}
	return nil
}

func (m *Map) layerIndexLocked(id string) int {
	return slices.IndexFunc(m.layers, func(l Layer) bool { return l.ID == id })
}

func copyLayer(l Layer) Layer {
	l.Paint = maps.Clone(l.Paint)
	return l
}
