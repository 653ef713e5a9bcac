// Package formatting renders host status, lifecycle events and the pattern
// catalogue for the CLI in several output formats (console, JSON, YAML, table).
package formatting

import (
	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
}

// Formatter renders host data as text.
type Formatter interface {
	FormatStatus(status app.HostStatus) string
	FormatEvents(events []events.Event) string
	// FormatCatalog lists every registered pattern and whether it is declared.
	FormatCatalog(registered, declared []pattern.ID) string

	SetOptions(options Options)
	GetOptions() Options
}

// ParseFormat returns the OutputFormat named by s.
func ParseFormat(s string) (OutputFormat, bool) {
	switch f := OutputFormat(s); f {
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, true
	}
	return "", false
}

// NewFormatter creates the formatter for options.Format. Unknown formats fall
// back to console output.
func NewFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		return NewTableFormatter(options)
	case FormatConsole:
		fallthrough
	default:
		return NewConsoleFormatter(options)
	}
}
