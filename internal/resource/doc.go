// Package resource acquires the shared map renderer that every pattern
// attaches to and tracks whether it is ready for use.
//
// The renderer itself is owned by whoever supplies the Factory. The Provider
// only constructs it once, remembers the outcome, and relays readiness
// changes (a style reload flips readiness to false until the new style has
// finished loading) to registered listeners.
//
// OnReady hooks fire exactly once per resource instance, the first time that
// instance becomes ready, no matter how often readiness toggles afterwards.
package resource
