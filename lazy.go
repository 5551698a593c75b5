package injector

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Lazy wraps a dependency that is resolved on first access.
// This is useful for breaking circular dependencies or deferring
// resolution of expensive services until they're actually needed.
//
// A Lazy created inside a factory resolves through the injector or
// scope that invoked the factory, with a fresh chain, so a deferred
// lookup of a key under construction is not reported as a cycle. A Lazy
// built into a singleton resolves through the injector, so it keeps
// working after the scope that first resolved the singleton ends.
type Lazy[T any] struct {
	resolver Resolver
	key      Key[T]
	once     sync.Once
	value    T
	err      error
	resolved atomic.Bool
}

// NewLazy creates a new lazy dependency wrapper.
func NewLazy[T any](r Resolver, key Key[T]) *Lazy[T] {
	return &Lazy[T]{
		resolver: detachResolver(r),
		key:      key,
	}
}

// Get resolves the dependency and returns it.
// The resolution happens only once; subsequent calls return the cached value.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		l.value, l.err = Resolve(l.resolver, l.key)
		l.resolved.Store(l.err == nil)
	})

	return l.value, l.err
}

// MustGet resolves the dependency and returns it, panicking on error.
func (l *Lazy[T]) MustGet() T {
	value, err := l.Get()
	if err != nil {
		panic(fmt.Sprintf("lazy dependency %s failed: %v", l.key, err))
	}

	return value
}

// IsResolved returns true if the dependency has been resolved.
func (l *Lazy[T]) IsResolved() bool {
	return l.resolved.Load()
}

// Key returns the key of the dependency.
func (l *Lazy[T]) Key() Key[T] {
	return l.key
}

// Provider wraps a dependency that is resolved on each access.
// With a transient binding every call returns a fresh instance.
type Provider[T any] struct {
	resolver Resolver
	key      Key[T]
}

// NewProvider creates a new provider.
func NewProvider[T any](r Resolver, key Key[T]) *Provider[T] {
	return &Provider[T]{
		resolver: detachResolver(r),
		key:      key,
	}
}

// Provide resolves and returns an instance of the dependency.
func (p *Provider[T]) Provide() (T, error) {
	return Resolve(p.resolver, p.key)
}

// MustProvide resolves and returns an instance, panicking on error.
func (p *Provider[T]) MustProvide() T {
	value, err := p.Provide()
	if err != nil {
		panic(fmt.Sprintf("provider %s failed: %v", p.key, err))
	}

	return value
}

// Key returns the key of the dependency.
func (p *Provider[T]) Key() Key[T] {
	return p.key
}
