package resource

import (
	"context"
	"fmt"
)

// Handle is the externally owned renderer instance patterns attach to.
// Patterns type-assert it to the concrete renderer they know how to drive.
type Handle interface {
	// InstanceID uniquely identifies this renderer instance.
	InstanceID() string
}

// MountTarget names the container the renderer is mounted into.
type MountTarget string

// Factory constructs a renderer for target. instanceID is assigned by the
// Provider and must be returned by the handle's InstanceID method.
type Factory func(ctx context.Context, target MountTarget, instanceID string) (Handle, error)

// Readiness is delivered to change listeners whenever the ready flag flips
// or the handle is replaced.
type Readiness struct {
	Handle Handle
	Ready  bool
}

// CreationError reports that the renderer could not be constructed.
type CreationError struct {
	Target MountTarget
	Err    error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create map resource for %q: %v", e.Target, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}
