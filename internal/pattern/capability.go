package pattern

import (
	"context"
	"errors"
	"maps"

	"github.com/giantswarm/patternhost/internal/resource"
)

// ID names one pattern capability.
type ID string

// Params is the parameter bag handed to Setup and Update.
type Params map[string]any

// Clone returns a shallow copy so callers can hand params to a pattern
// without sharing the map.
func (p Params) Clone() Params {
	if p == nil {
		return Params{}
	}
	return maps.Clone(p)
}

// Float returns the numeric value stored under key, or def when the key is
// missing or not a number.
func (p Params) Float(key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

// String returns the string stored under key, or def.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Capability is the three-method contract every pattern implements.
//
// Setup attaches the pattern to the resource and may block (fetching data,
// waiting on the renderer). It runs in its own goroutine; ctx is cancelled
// when the attempt has been superseded, but implementations are not required
// to honour it. Update and Cleanup must be quick and must not call back into
// the reconciler.
type Capability interface {
	ID() ID
	Setup(ctx context.Context, res resource.Handle, params Params) error
	Update(res resource.Handle, params Params) error
	Cleanup(res resource.Handle) error
}

// ErrUnknownPattern is returned when a declared id has no registered capability.
var ErrUnknownPattern = errors.New("unknown pattern")

// Funcs adapts plain functions to the Capability interface. Nil functions are
// treated as no-ops.
type Funcs struct {
	Name        ID
	SetupFunc   func(ctx context.Context, res resource.Handle, params Params) error
	UpdateFunc  func(res resource.Handle, params Params) error
	CleanupFunc func(res resource.Handle) error
}

func (f *Funcs) ID() ID {
	return f.Name
}

func (f *Funcs) Setup(ctx context.Context, res resource.Handle, params Params) error {
	if f.SetupFunc == nil {
		return nil
	}
	return f.SetupFunc(ctx, res, params)
}

func (f *Funcs) Update(res resource.Handle, params Params) error {
	if f.UpdateFunc == nil {
		return nil
	}
	return f.UpdateFunc(res, params)
}

func (f *Funcs) Cleanup(res resource.Handle) error {
	if f.CleanupFunc == nil {
		return nil
	}
	return f.CleanupFunc(res)
}
