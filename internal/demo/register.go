package demo

import (
	"fmt"
	"time"

	"k8s.io/utils/clock"

	"github.com/giantswarm/patternhost/internal/pattern"
)

// Options tune the demo patterns.
type Options struct {
	// SetupDelay simulates the data fetch every setup performs.
	SetupDelay time.Duration

	// Clock drives SetupDelay. Defaults to the real clock.
	Clock clock.Clock
}

// Patterns returns the built-in demo patterns.
func Patterns(opts Options) []*LayerPattern {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	build := func(id, layerType, paintKey string, features int) *LayerPattern {
		return &LayerPattern{
			id:        pattern.ID(id),
			layerType: layerType,
			paintKey:  paintKey,
			features:  features,
			delay:     opts.SetupDelay,
			clock:     opts.Clock,
		}
	}
	return []*LayerPattern{
		build("heatmap", "heatmap", "heatmap-opacity", 200),
		build("choropleth", "fill", "fill-opacity", 50),
		build("hexbin", "fill-extrusion", "fill-extrusion-opacity", 120),
		build("labels", "symbol", "text-opacity", 30),
	}
}

// Register adds the demo patterns to registry.
func Register(registry *pattern.Registry, opts Options) error {
	for _, p := range Patterns(opts) {
		if err := registry.Register(p); err != nil {
			return fmt.Errorf("registering demo pattern: %w", err)
		}
	}
	return nil
}
