// Package events records pattern lifecycle events emitted by the reconciler.
//
// Every event carries a reason (PatternActivated, PatternDiscarded, ...), a
// Normal or Warning type derived from the reason, and a human-readable
// message rendered from a per-reason template. Templates are Go
// text/templates with the sprig function library available, and can be
// overridden per reason with SetTemplate.
//
// A Recorder keeps a bounded history of recent events and fans each new event
// out to subscribers:
//
//	recorder := events.NewRecorder(128)
//	ch, cancel := recorder.Subscribe(16)
//	defer cancel()
//
// Delivery to a subscriber never blocks the reconciler; when a subscriber's
// buffer is full the event is dropped for that subscriber and a warning is
// logged.
package events
