package reconciler

import (
	"context"
	"fmt"

	"github.com/giantswarm/patternhost/internal/pattern"
	"github.com/giantswarm/patternhost/internal/resource"
)

// Capability methods are third-party code; a panic inside one must not take
// the reconciler (or its lock) down with it.

func safeSetup(ctx context.Context, c pattern.Capability, res resource.Handle, params pattern.Params) (err error) {
	defer recoverInto(&err, c.ID(), "setup")
	return c.Setup(ctx, res, params)
}

func safeUpdate(c pattern.Capability, res resource.Handle, params pattern.Params) (err error) {
	defer recoverInto(&err, c.ID(), "update")
	return c.Update(res, params)
}

func safeCleanup(c pattern.Capability, res resource.Handle) (err error) {
	defer recoverInto(&err, c.ID(), "cleanup")
	return c.Cleanup(res)
}

func recoverInto(err *error, id pattern.ID, op string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("pattern %s panicked during %s: %v", id, op, r)
	}
}
