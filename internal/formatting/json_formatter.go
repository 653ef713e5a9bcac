package formatting

import (
	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatStatus formats the host status as JSON
func (f *JSONFormatter) FormatStatus(status app.HostStatus) string {
	return PrettyJSON(newStatusView(status))
}

// FormatEvents formats events as a JSON array
func (f *JSONFormatter) FormatEvents(evs []events.Event) string {
	return PrettyJSON(newEventViews(evs))
}

// FormatCatalog formats the pattern catalogue as a JSON array
func (f *JSONFormatter) FormatCatalog(registered, declared []pattern.ID) string {
	return PrettyJSON(newCatalog(registered, declared))
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}
