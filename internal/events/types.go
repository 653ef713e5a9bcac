package events

import (
	"time"
)

// EventType represents the severity of an event.
type EventType string

const (
	// EventTypeNormal indicates normal, non-problematic events.
	EventTypeNormal EventType = "Normal"

	// EventTypeWarning indicates events that may require attention.
	EventTypeWarning EventType = "Warning"
)

// EventReason represents the reason code for an event.
type EventReason string

// Pattern lifecycle event reasons
const (
	// ReasonPatternSetupStarted indicates a setup attempt was issued for a pattern.
	ReasonPatternSetupStarted EventReason = "PatternSetupStarted"

	// ReasonPatternActivated indicates a completed setup was promoted to active.
	ReasonPatternActivated EventReason = "PatternActivated"

	// ReasonPatternDiscarded indicates a completed setup arrived stale and was cleaned up.
	ReasonPatternDiscarded EventReason = "PatternDiscarded"

	// ReasonPatternSetupFailed indicates a pattern's setup returned an error.
	ReasonPatternSetupFailed EventReason = "PatternSetupFailed"

	// ReasonPatternSetupTimedOut indicates a setup attempt was abandoned after the configured timeout.
	ReasonPatternSetupTimedOut EventReason = "PatternSetupTimedOut"

	// ReasonPatternDeactivated indicates an active pattern was detached.
	ReasonPatternDeactivated EventReason = "PatternDeactivated"

	// ReasonPatternCleanupFailed indicates a pattern's cleanup returned an error.
	ReasonPatternCleanupFailed EventReason = "PatternCleanupFailed"

	// ReasonPatternUpdateFailed indicates a pattern's update returned an error.
	ReasonPatternUpdateFailed EventReason = "PatternUpdateFailed"
)

// Resource event reasons
const (
	// ReasonStyleInvalidated indicates the resource went not-ready and all attached state was fenced.
	ReasonStyleInvalidated EventReason = "StyleInvalidated"

	// ReasonResourceReady indicates the resource became ready.
	ReasonResourceReady EventReason = "ResourceReady"

	// ReasonReconcilerClosed indicates the reconciler tore down all patterns.
	ReasonReconcilerClosed EventReason = "ReconcilerClosed"
)

// EventData holds contextual information for event message templating.
type EventData struct {
	// Pattern is the pattern id involved in the event, if any.
	Pattern string

	// Token is the setup token of the attempt involved.
	Token uint64

	// Generation is the style generation at the time of the event.
	Generation uint64

	// Detail explains why a transition happened (e.g. "removed", "superseded").
	Detail string

	// Count is the number of patterns affected by a resource-wide event.
	Count int

	// Error contains error information for failure events.
	Error string

	// Duration is how long the operation took.
	Duration time.Duration
}

// Event is a rendered, timestamped event.
type Event struct {
	Type      EventType   `json:"type"`
	Reason    EventReason `json:"reason"`
	Pattern   string      `json:"pattern,omitempty"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Data      EventData   `json:"-"`
}

// getEventType returns the appropriate EventType for a given EventReason.
func getEventType(reason EventReason) EventType {
	switch reason {
	case ReasonPatternSetupFailed,
		ReasonPatternSetupTimedOut,
		ReasonPatternCleanupFailed,
		ReasonPatternUpdateFailed:
		return EventTypeWarning
	default:
		return EventTypeNormal
	}
}
