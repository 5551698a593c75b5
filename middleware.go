package injector

import (
	"context"
	"sync"
)

// Middleware provides hooks for intercepting resolution.
// Hooks run for every resolve, including the nested resolves a factory
// performs, so they observe the whole dependency walk.
type Middleware interface {
	// BeforeResolve is called before resolving a service.
	// The returned context is passed to the factory and to AfterResolve.
	// Return error to abort resolution.
	BeforeResolve(ctx context.Context, key TypeKey) (context.Context, error)

	// AfterResolve is called after resolving a service.
	// Called even if resolution failed (instance and err may both be set).
	AfterResolve(ctx context.Context, key TypeKey, instance any, err error) error
}

// middlewareChain manages multiple middleware.
type middlewareChain struct {
	middleware []Middleware
	mu         sync.RWMutex
}

// newMiddlewareChain creates a new middleware chain.
func newMiddlewareChain() *middlewareChain {
	return &middlewareChain{
		middleware: make([]Middleware, 0),
	}
}

// add appends middleware to the chain.
func (m *middlewareChain) add(middleware ...Middleware) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.middleware = append(m.middleware, middleware...)
}

func (m *middlewareChain) snapshot() []Middleware {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.middleware
}

// beforeResolve calls BeforeResolve on all middleware in order. It
// returns how many middleware ran, so afterResolve unwinds only those.
func (m *middlewareChain) beforeResolve(ctx context.Context, key TypeKey) (context.Context, int, error) {
	chain := m.snapshot()
	for i, mw := range chain {
		next, err := mw.BeforeResolve(ctx, key)
		if err != nil {
			return ctx, i, err
		}

		if next != nil {
			ctx = next
		}
	}

	return ctx, len(chain), nil
}

// afterResolve calls AfterResolve on the first n middleware in reverse order.
func (m *middlewareChain) afterResolve(ctx context.Context, n int, key TypeKey, instance any, err error) error {
	chain := m.snapshot()
	if n > len(chain) {
		n = len(chain)
	}

	for i := n - 1; i >= 0; i-- {
		if mwErr := chain[i].AfterResolve(ctx, key, instance, err); mwErr != nil {
			return mwErr
		}
	}

	return nil
}

// FuncMiddleware wraps functions as Middleware.
type FuncMiddleware struct {
	BeforeResolveFunc func(ctx context.Context, key TypeKey) (context.Context, error)
	AfterResolveFunc  func(ctx context.Context, key TypeKey, instance any, err error) error
}

// BeforeResolve implements Middleware.
func (f *FuncMiddleware) BeforeResolve(ctx context.Context, key TypeKey) (context.Context, error) {
	if f.BeforeResolveFunc != nil {
		return f.BeforeResolveFunc(ctx, key)
	}

	return ctx, nil
}

// AfterResolve implements Middleware.
func (f *FuncMiddleware) AfterResolve(ctx context.Context, key TypeKey, instance any, err error) error {
	if f.AfterResolveFunc != nil {
		return f.AfterResolveFunc(ctx, key, instance, err)
	}

	return nil
}
