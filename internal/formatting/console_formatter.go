package formatting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(options Options) Formatter {
	return &ConsoleFormatter{
		options: options,
	}
}

// FormatStatus formats the host status for console output
func (f *ConsoleFormatter) FormatStatus(status app.HostStatus) string {
	view := newStatusView(status)

	var output []string
	if !f.options.Quiet {
		output = append(output, fmt.Sprintf("Style: %s (ready=%t, generation=%d)", view.StyleURL, view.Ready, view.Generation))
	}
	if len(view.Patterns) == 0 {
		output = append(output, "No patterns declared.")
	} else {
		output = append(output, fmt.Sprintf("Patterns (%d):", len(view.Patterns)))
		for _, p := range view.Patterns {
			output = append(output, fmt.Sprintf("  %-20s %-10s token=%d desired=%t", p.ID, p.State, p.Token, p.Desired))
		}
	}
	if len(view.Layers) > 0 {
		output = append(output, fmt.Sprintf("Layers (%d):", len(view.Layers)))
		for _, l := range view.Layers {
			output = append(output, fmt.Sprintf("  %-20s %-10s %s", l.ID, l.Type, formatPaint(l.Paint)))
		}
	}
	return strings.Join(output, "\n")
}

// FormatEvents formats events for console output
func (f *ConsoleFormatter) FormatEvents(evs []events.Event) string {
	if len(evs) == 0 {
		return "No events recorded."
	}

	var output []string
	for _, e := range newEventViews(evs) {
		subject := e.Pattern
		if subject == "" {
			subject = "-"
		}
		output = append(output, fmt.Sprintf("%s  %-7s %-24s %-12s %s", e.Time, e.Type, e.Reason, subject, e.Message))
	}
	return strings.Join(output, "\n")
}

// FormatCatalog formats the pattern catalogue for console output
func (f *ConsoleFormatter) FormatCatalog(registered, declared []pattern.ID) string {
	if len(registered) == 0 {
		return "No patterns registered."
	}

	var output []string
	output = append(output, fmt.Sprintf("Available patterns (%d):", len(registered)))
	for i, entry := range newCatalog(registered, declared) {
		marker := " "
		if entry.Declared {
			marker = "*"
		}
		output = append(output, fmt.Sprintf("  %d. %s %s", i+1, marker, entry.ID))
	}
	return strings.Join(output, "\n")
}

// SetOptions updates the formatter options
func (f *ConsoleFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *ConsoleFormatter) GetOptions() Options {
	return f.options
}

// formatPaint renders paint properties in a stable order.
func formatPaint(paint map[string]any) string {
	keys := make([]string, 0, len(paint))
	for k := range paint {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, paint[k]))
	}
	return strings.Join(parts, " ")
}
