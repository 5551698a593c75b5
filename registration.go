package injector

import (
	"fmt"
	"sync"
)

// Factory creates a service instance. Dependencies are obtained by
// resolving them through r.
type Factory func(r Resolver) (any, error)

// registration holds one binding and, for singletons, its cached instance.
type registration struct {
	key       TypeKey
	factory   Factory
	lifestyle Lifestyle

	// guarded by mu
	instance    any
	initialized bool
	mu          sync.RWMutex
}

func newRegistration(key TypeKey, factory Factory, lifestyle Lifestyle) *registration {
	return &registration{
		key:       key,
		factory:   factory,
		lifestyle: lifestyle,
	}
}

// singleton returns the cached instance, running build once on first use.
// A failed build leaves the registration uninitialized.
func (reg *registration) singleton(build func() (any, error)) (instance any, created bool, err error) {
	// Fast path: already initialized (read lock)
	reg.mu.RLock()
	if reg.initialized {
		instance = reg.instance
		reg.mu.RUnlock()

		return instance, false, nil
	}
	reg.mu.RUnlock()

	// Slow path: build under the write lock so concurrent first
	// resolvers of this key wait for a single factory call.
	reg.mu.Lock()
	defer reg.mu.Unlock()

	// Double-check after acquiring write lock
	if reg.initialized {
		return reg.instance, false, nil
	}

	instance, err = build()
	if err != nil {
		return nil, false, err
	}

	reg.instance = instance
	reg.initialized = true

	return instance, true, nil
}

// cached returns the singleton instance if one was built.
func (reg *registration) cached() (any, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return reg.instance, reg.initialized
}

// info snapshots the registration for introspection.
func (reg *registration) info() RegistrationInfo {
	info := RegistrationInfo{
		Key:       reg.key,
		Lifestyle: reg.lifestyle,
		Type:      "unknown",
	}

	if instance, ok := reg.cached(); ok {
		info.Initialized = true
		info.Type = fmt.Sprintf("%T", instance)
	}

	return info
}

// RegistrationInfo contains diagnostic information about a binding.
type RegistrationInfo struct {
	Key          TypeKey
	Lifestyle    Lifestyle
	Registered   bool
	Initialized  bool
	Type         string
	Dependencies []TypeKey
}
