package resource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/giantswarm/patternhost/pkg/logging"
)

// ErrNotAcquired is returned by SetReady when no resource has been acquired.
var ErrNotAcquired = errors.New("resource not acquired")

const acquireKey = "acquire"

// Provider constructs the shared resource once and tracks its readiness.
type Provider struct {
	factory Factory
	group   singleflight.Group

	mu     sync.RWMutex
	handle Handle
	err    error
	ready  bool

	// readyFired records the instances whose OnReady hooks already ran.
	readyFired map[string]bool

	onReady  []func(Handle)
	onChange []func(Readiness)
}

// NewProvider creates a provider that builds its resource with factory.
func NewProvider(factory Factory) *Provider {
	return &Provider{
		factory:    factory,
		readyFired: make(map[string]bool),
	}
}

// Acquire constructs the resource for target, or returns the one already
// built. Concurrent callers share a single construction. A failed
// construction is remembered and returned to every later caller; there is no
// automatic retry.
func (p *Provider) Acquire(ctx context.Context, target MountTarget) (Handle, error) {
	p.mu.RLock()
	handle, err := p.handle, p.err
	p.mu.RUnlock()
	if handle != nil || err != nil {
		return handle, err
	}

	v, err, _ := p.group.Do(acquireKey, func() (interface{}, error) {
		// Double-check after winning the flight.
		p.mu.RLock()
		handle, err := p.handle, p.err
		p.mu.RUnlock()
		if handle != nil || err != nil {
			return handle, err
		}

		instanceID := uuid.New().String()
		logging.Debug("ResourceProvider", "Creating map resource %s for %s", instanceID, target)

		created, createErr := p.factory(ctx, target, instanceID)
		if createErr == nil && created == nil {
			createErr = fmt.Errorf("factory returned no handle")
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if createErr != nil {
			p.err = &CreationError{Target: target, Err: createErr}
			logging.Error("ResourceProvider", createErr, "Failed to create map resource for %s", target)
			return nil, p.err
		}
		p.handle = created
		logging.Info("ResourceProvider", "Created map resource %s", created.InstanceID())
		return created, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Handle), nil
}

// Handle returns the acquired resource, or nil.
func (p *Provider) Handle() Handle {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle
}

// IsReady reports the current readiness flag.
func (p *Provider) IsReady() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// OnReady registers fn to run the first time each resource instance becomes
// ready. If the current instance is already ready, fn runs immediately.
func (p *Provider) OnReady(fn func(Handle)) {
	p.mu.Lock()
	p.onReady = append(p.onReady, fn)
	handle := p.handle
	fireNow := handle != nil && p.ready
	p.mu.Unlock()

	if fireNow {
		fn(handle)
	}
}

// OnChange registers fn to receive every readiness change. Listeners run
// synchronously, in registration order, outside the provider's lock.
func (p *Provider) OnChange(fn func(Readiness)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// SetReady records a readiness transition reported by the resource. Repeated
// reports of the same value are ignored.
func (p *Provider) SetReady(ready bool) error {
	p.mu.Lock()
	if p.handle == nil {
		p.mu.Unlock()
		return ErrNotAcquired
	}
	if p.ready == ready {
		p.mu.Unlock()
		return nil
	}
	p.ready = ready
	handle := p.handle

	var readyHooks []func(Handle)
	if ready && !p.readyFired[handle.InstanceID()] {
		p.readyFired[handle.InstanceID()] = true
		readyHooks = append(readyHooks, p.onReady...)
	}
	changeHooks := append([]func(Readiness){}, p.onChange...)
	p.mu.Unlock()

	logging.Debug("ResourceProvider", "Resource %s ready=%t", handle.InstanceID(), ready)

	for _, fn := range readyHooks {
		fn(handle)
	}
	for _, fn := range changeHooks {
		fn(Readiness{Handle: handle, Ready: ready})
	}
	return nil
}

// Release forgets the current resource (and any creation failure) so a later
// Acquire builds a fresh instance. Listeners are told the resource is gone.
func (p *Provider) Release() {
	p.mu.Lock()
	handle := p.handle
	wasReady := p.ready
	p.handle = nil
	p.err = nil
	p.ready = false
	changeHooks := append([]func(Readiness){}, p.onChange...)
	p.mu.Unlock()

	if handle == nil {
		return
	}
	logging.Info("ResourceProvider", "Released map resource %s", handle.InstanceID())
	if wasReady {
		for _, fn := range changeHooks {
			fn(Readiness{Handle: nil, Ready: false})
		}
	}
}
