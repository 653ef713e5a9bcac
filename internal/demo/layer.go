package demo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/giantswarm/patternhost/internal/maprender"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/resource"
	"github.com/giantswarm/patternhost/pkg/logging"
)

// LayerPattern draws one generated source as a single map layer.
type LayerPattern struct {
	id        pattern.ID
	layerType string
	paintKey  string
	features  int

	delay time.Duration
	clock clock.Clock
}

func (p *LayerPattern) sourceID() string { return string(p.id) + "-source" }
func (p *LayerPattern) layerID() string  { return string(p.id) + "-layer" }

// ID implements pattern.Capability.
func (p *LayerPattern) ID() pattern.ID {
	return p.id
}

// Setup waits for the simulated data fetch, then adds the source and layer.
func (p *LayerPattern) Setup(ctx context.Context, res resource.Handle, params pattern.Params) error {
	m, err := asMap(res)
	if err != nil {
		return err
	}

	if p.delay > 0 {
		select {
		case <-p.clock.After(p.delay):
		case <-ctx.Done():
			return fmt.Errorf("fetching %s data: %w", p.id, ctx.Err())
		}
	}

	if err := m.AddSource(maprender.Source{
		ID:   p.sourceID(),
		Kind: "geojson",
		Data: sampleFeatures(p.id, p.features),
	}); err != nil {
		return fmt.Errorf("adding source for %s: %w", p.id, err)
	}

	if err := m.AddLayer(maprender.Layer{
		ID:     p.layerID(),
		Type:   p.layerType,
		Source: p.sourceID(),
		Paint:  p.paint(params),
	}); err != nil {
		_ = m.RemoveSource(p.sourceID())
		return fmt.Errorf("adding layer for %s: %w", p.id, err)
	}

	logging.Debug("DemoPattern", "Attached %s to map %s", p.id, m.InstanceID())
	return nil
}

// Update applies the latest parameters to the layer's paint.
func (p *LayerPattern) Update(res resource.Handle, params pattern.Params) error {
	m, err := asMap(res)
	if err != nil {
		return err
	}
	for key, value := range p.paint(params) {
		if err := m.SetPaintProperty(p.layerID(), key, value); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup removes whatever Setup attached. Missing layers and sources are
// not an error: a reload may already have dropped them.
func (p *LayerPattern) Cleanup(res resource.Handle) error {
	m, err := asMap(res)
	if err != nil {
		return err
	}

	var errs []error
	if m.HasLayer(p.layerID()) {
		errs = append(errs, ignoreGone(m.RemoveLayer(p.layerID())))
	}
	if m.HasSource(p.sourceID()) {
		errs = append(errs, ignoreGone(m.RemoveSource(p.sourceID())))
	}
	return errors.Join(errs...)
}

func (p *LayerPattern) paint(params pattern.Params) map[string]any {
	paint := map[string]any{
		p.paintKey: clamp(params.Float("opacity", 1), 0, 1),
	}
	if p.layerType == "symbol" {
		paint["text-field"] = params.String("labelField", "name")
	}
	return paint
}

func asMap(res resource.Handle) (*maprender.Map, error) {
	m, ok := res.(*maprender.Map)
	if !ok {
		return nil, fmt.Errorf("unsupported resource %T", res)
	}
	return m, nil
}

// ignoreGone treats a layer or source wiped by a concurrent style load as
// already removed.
func ignoreGone(err error) error {
	if errors.Is(err, maprender.ErrNotFound) || errors.Is(err, maprender.ErrStyleNotLoaded) {
		return nil
	}
	return err
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// sampleFeatures generates a deterministic point set for a pattern.
func sampleFeatures(id pattern.ID, n int) []map[string]any {
	features := make([]map[string]any, 0, n)
	seed := 0
	for _, r := range id {
		seed += int(r)
	}
	for i := 0; i < n; i++ {
		features = append(features, map[string]any{
			"name": fmt.Sprintf("%s-%d", id, i),
			"lon":  float64((seed*31+i*97)%360) - 180,
			"lat":  float64((seed*17+i*53)%180) - 90,
		})
	}
	return features
}
