package formatting

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/giantswarm/patternhost/internal/app"
	"github.com/giantswarm/patternhost/internal/events"
	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/reconciler"
	pkgstrings "github.com/giantswarm/patternhost/pkg/strings"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// FormatStatus renders patterns, layers and counters as tables.
func (f *TableFormatter) FormatStatus(status app.HostStatus) string {
	view := newStatusView(status)

	var b strings.Builder
	if !f.options.Quiet {
		fmt.Fprintf(&b, "%s %s  %s %s  %s %d\n",
			text.FgHiBlue.Sprint("Style:"), text.FgHiWhite.Sprint(view.StyleURL),
			text.FgHiBlue.Sprint("Ready:"), f.formatBool(view.Ready),
			text.FgHiBlue.Sprint("Generation:"), view.Generation)
	}

	if len(view.Patterns) == 0 {
		b.WriteString(f.formatEmptyMessage("📋", "No patterns declared"))
	} else {
		t := f.createTable()
		t.AppendHeader(f.header("PATTERN", "STATE", "DESIRED", "TOKEN", "GENERATION", "SINCE"))
		for _, p := range view.Patterns {
			t.AppendRow(table.Row{
				text.FgHiCyan.Sprint(p.ID),
				f.formatState(p.State),
				f.formatBool(p.Desired),
				p.Token,
				p.Generation,
				p.Since,
			})
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if len(view.Layers) > 0 {
		t := f.createTable()
		t.AppendHeader(f.header("LAYER", "TYPE", "SOURCE", "PAINT"))
		for _, l := range view.Layers {
			t.AppendRow(table.Row{text.FgHiCyan.Sprint(l.ID), l.Type, l.Source, pkgstrings.Truncate(formatPaint(l.Paint), pkgstrings.DefaultCellMaxLen)})
		}
		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if !f.options.Quiet {
		m := view.Metrics
		fmt.Fprintf(&b, "%s setups=%d activations=%d discards=%d failures=%d timeouts=%d cleanups=%d\n",
			text.FgHiBlue.Sprint("Totals:"),
			m.Setups, m.Activations, m.Discards, m.SetupFailures, m.Timeouts, m.Cleanups)
	}
	return b.String()
}

// FormatEvents renders events as a table, oldest first.
func (f *TableFormatter) FormatEvents(evs []events.Event) string {
	if len(evs) == 0 {
		return f.formatEmptyMessage("📋", "No events recorded")
	}

	t := f.createTable()
	t.AppendHeader(f.header("TIME", "TYPE", "REASON", "PATTERN", "MESSAGE"))
	for _, e := range newEventViews(evs) {
		eventType := e.Type
		if e.Type == string(events.EventTypeWarning) {
			eventType = text.FgYellow.Sprint(e.Type)
		}
		t.AppendRow(table.Row{e.Time, eventType, e.Reason, e.Pattern, pkgstrings.Truncate(e.Message, pkgstrings.DefaultCellMaxLen)})
	}
	return t.Render() + "\n"
}

// FormatCatalog renders the registered patterns and their declared state.
func (f *TableFormatter) FormatCatalog(registered, declared []pattern.ID) string {
	if len(registered) == 0 {
		return f.formatEmptyMessage("📋", "No patterns registered")
	}

	t := f.createTable()
	t.AppendHeader(f.header("PATTERN", "DECLARED"))
	for _, entry := range newCatalog(registered, declared) {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(entry.ID), f.formatBool(entry.Declared)})
	}
	return t.Render() + "\n"
}

// SetOptions updates the formatter options
func (f *TableFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *TableFormatter) GetOptions() Options {
	return f.options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(columns ...string) table.Row {
	row := make(table.Row, 0, len(columns))
	for _, c := range columns {
		row = append(row, text.FgHiCyan.Sprint(c))
	}
	return row
}

func (f *TableFormatter) formatState(state string) string {
	switch reconciler.PatternState(state) {
	case reconciler.StateActive:
		return text.FgGreen.Sprint(state)
	case reconciler.StateInflight:
		return text.FgYellow.Sprint(state)
	default:
		return text.FgHiBlack.Sprint(state)
	}
}

func (f *TableFormatter) formatBool(v bool) string {
	if v {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgRed.Sprint("no")
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", text.FgYellow.Sprint(icon), text.FgYellow.Sprint(message))
}
