package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatStatus formats the host status as YAML
func (f *YAMLFormatter) FormatStatus(status app.HostStatus) string {
	return f.marshal(newStatusView(status))
}

// FormatEvents formats events as a YAML sequence
func (f *YAMLFormatter) FormatEvents(evs []events.Event) string {
	return f.marshal(newEventViews(evs))
}

// FormatCatalog formats the pattern catalogue as a YAML sequence
func (f *YAMLFormatter) FormatCatalog(registered, declared []pattern.ID) string {
	return f.marshal(newCatalog(registered, declared))
}

func (f *YAMLFormatter) marshal(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v\n", err)
	}
	return string(out)
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}
