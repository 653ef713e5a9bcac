// Package reconciler keeps the patterns attached to a shared map resource in
// line with the patterns a host declares.
//
// # Overview
//
// A host declares a list of pattern capabilities and reports the readiness
// of a single shared resource. The Reconciler drives each declared pattern
// through a small state machine:
//
//	Untracked --setup issued--> Inflight --setup succeeded--> Active
//	    ^                          |                            |
//	    +------ failure/stale -----+----- removed/reload -------+
//
// Setup is asynchronous. While it runs the world may change: the pattern may
// be removed from the declaration, the resource's style may be reloaded, or
// the host may be torn down. Two fences make late results harmless:
//
//   - a per-pattern setup token, bumped whenever an attempt is superseded
//   - a style generation, bumped whenever the resource stops being ready
//
// A result whose token or generation no longer matches is discarded and
// cleaned up, never promoted.
//
// At most one setup attempt per pattern runs at a time. When a pass finds a
// desired pattern still held by an attempt that can no longer be promoted
// (started before a reload, or past its setup timeout), the fresh setup is
// issued as soon as that attempt resolves and has been cleaned up.
//
// # Reconciliation
//
// A reconciliation pass runs when desired-set membership changes or the
// resource becomes ready. It deactivates active patterns that are no longer
// desired before it sets up missing ones, so identifiers shared between
// patterns are freed before reuse.
//
// # Usage
//
//	r := reconciler.New(reconciler.Config{InitialParams: params})
//	defer r.Close()
//
//	provider.OnChange(func(s resource.Readiness) {
//	    _ = r.SetReadiness(s.Handle, s.Ready)
//	})
//	_ = r.SetPatterns(capabilities)
//	_ = r.UpdateParams(pattern.Params{"opacity": 0.5})
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Update and Cleanup are
// invoked with the reconciler's lock held; capabilities must not call back
// into the Reconciler from them.
package reconciler
