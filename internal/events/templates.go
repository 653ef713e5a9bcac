package events

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/giantswarm/patternhost/pkg/logging"
)

// MessageTemplateEngine provides dynamic message generation for events.
type MessageTemplateEngine struct {
	mu        sync.RWMutex
	templates map[EventReason]*template.Template
	sources   map[EventReason]string
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		templates: make(map[EventReason]*template.Template),
		sources:   make(map[EventReason]string),
	}
	engine.loadDefaultTemplates()
	return engine
}

var defaultTemplates = map[EventReason]string{
	ReasonPatternSetupStarted:  "Pattern {{.Pattern}} setup started (token {{.Token}}, generation {{.Generation}})",
	ReasonPatternActivated:     "Pattern {{.Pattern}} activated{{if .Duration}} after {{.Duration}}{{end}}",
	ReasonPatternDiscarded:     "Pattern {{.Pattern}} setup result discarded: {{.Detail | default \"stale\"}}",
	ReasonPatternSetupFailed:   "Pattern {{.Pattern}} failed to activate{{if .Error}}: {{.Error}}{{end}}",
	ReasonPatternSetupTimedOut: "Pattern {{.Pattern}} setup abandoned after {{.Duration}}",
	ReasonPatternDeactivated:   "Pattern {{.Pattern}} deactivated ({{.Detail}})",
	ReasonPatternCleanupFailed: "Pattern {{.Pattern}} cleanup failed{{if .Error}}: {{.Error}}{{end}}",
	ReasonPatternUpdateFailed:  "Pattern {{.Pattern}} update failed{{if .Error}}: {{.Error}}{{end}}",
	ReasonStyleInvalidated:     "Style reload began, generation now {{.Generation}}; {{.Count}} active {{if eq .Count 1}}pattern{{else}}patterns{{end}} cleaned up",
	ReasonResourceReady:        "Map resource ready, {{.Count}} desired {{if eq .Count 1}}pattern{{else}}patterns{{end}}",
	ReasonReconcilerClosed:     "Reconciler closed, {{.Count}} active {{if eq .Count 1}}pattern{{else}}patterns{{end}} cleaned up",
}

// loadDefaultTemplates parses the built-in template for every known reason.
func (e *MessageTemplateEngine) loadDefaultTemplates() {
	for reason, text := range defaultTemplates {
		if err := e.SetTemplate(reason, text); err != nil {
			// Built-in templates are fixed; a parse failure is a programming error.
			panic(fmt.Sprintf("invalid default template for %s: %v", reason, err))
		}
	}
}

// Render generates a message for the given event reason and data.
func (e *MessageTemplateEngine) Render(reason EventReason, data EventData) string {
	e.mu.RLock()
	tmpl, exists := e.templates[reason]
	e.mu.RUnlock()

	if !exists {
		// Fallback for unknown event reasons
		return fmt.Sprintf("Event: %s for %s", string(reason), data.Pattern)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		logging.Warn("events", "Failed to render template for %s: %v", reason, err)
		return fmt.Sprintf("Event: %s for %s", string(reason), data.Pattern)
	}
	return buf.String()
}

// SetTemplate parses text and uses it for reason from now on.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, text string) error {
	tmpl, err := template.New(string(reason)).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse template for %s: %w", reason, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[reason] = tmpl
	e.sources[reason] = text
	return nil
}

// GetTemplate returns the template source for a specific event reason.
func (e *MessageTemplateEngine) GetTemplate(reason EventReason) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	text, exists := e.sources[reason]
	return text, exists
}
