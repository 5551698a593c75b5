// Package injector provides a dependency-injection container with
// transient, scoped and singleton lifestyles and cycle detection.
package injector

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const rootScopeID = "root"

// Injector binds keys to factories and resolves instances on demand.
// The registration table and the root scope stack are guarded by one
// container-wide lock; singleton construction is guarded per
// registration so unrelated services build concurrently.
type Injector struct {
	registrations map[TypeKey]*registration
	scopes        scopeStack
	graph         *DependencyGraph
	middleware    *middlewareChain
	logger        *zap.Logger
	closed        bool
	mu            sync.RWMutex

	// singletons in construction order, for teardown
	singletons  []*registration
	singletonMu sync.Mutex
}

// New creates a new injector.
func New(opts ...Option) *Injector {
	o := mergeOptions(opts)

	inj := &Injector{
		registrations: make(map[TypeKey]*registration),
		graph:         NewDependencyGraph(),
		middleware:    newMiddlewareChain(),
		logger:        o.logger,
	}
	inj.middleware.add(o.middleware...)

	return inj
}

// Register installs or replaces the binding for key.
// Replacing a singleton that was already resolved does not affect
// references to the old instance; it is still disposed on Close.
func (inj *Injector) Register(key TypeKey, factory Factory, lifestyle Lifestyle) error {
	if key.IsZero() {
		return ErrInvalidKey
	}

	if factory == nil {
		return ErrInvalidFactory
	}

	if !lifestyle.Valid() {
		return ErrInvalidLifestyle(lifestyle)
	}

	inj.mu.Lock()
	if inj.closed {
		inj.mu.Unlock()

		return ErrInjectorClosed
	}

	_, replaced := inj.registrations[key]
	inj.registrations[key] = newRegistration(key, factory, lifestyle)
	inj.mu.Unlock()

	if replaced {
		inj.graph.ResetNode(key)
	} else {
		inj.graph.AddNode(key)
	}

	inj.logger.Debug("service registered",
		zap.String("key", key.Name()),
		zap.Stringer("lifestyle", lifestyle),
		zap.Bool("replaced", replaced),
	)

	return nil
}

// Resolve returns an instance for key.
func (inj *Injector) Resolve(key TypeKey) (any, error) {
	return inj.ResolveContext(context.Background(), key)
}

// ResolveContext is Resolve with a context carrying trace and log values.
// The context does not cancel resolution.
func (inj *Injector) ResolveContext(ctx context.Context, key TypeKey) (any, error) {
	return inj.resolve(newResolution(ctx, inj, inj), key)
}

// resolve runs middleware around resolveInternal.
func (inj *Injector) resolve(r *resolution, key TypeKey) (any, error) {
	ctx, ran, err := inj.middleware.beforeResolve(r.ctx, key)
	if err != nil {
		if mwErr := inj.middleware.afterResolve(ctx, ran, key, nil, err); mwErr != nil {
			return nil, mwErr
		}

		return nil, err
	}

	instance, err := inj.resolveInternal(r.withContext(ctx), key)

	if mwErr := inj.middleware.afterResolve(ctx, ran, key, instance, err); mwErr != nil {
		return nil, mwErr
	}

	return instance, err
}

// resolveInternal performs the actual resolution without middleware.
func (inj *Injector) resolveInternal(r *resolution, key TypeKey) (any, error) {
	inj.mu.RLock()
	closed := inj.closed
	reg, exists := inj.registrations[key]
	inj.mu.RUnlock()

	if closed {
		return nil, ErrInjectorClosed
	}

	if !exists {
		return nil, ErrNotRegistered(key)
	}

	// Check for a cycle before any lock for key is taken, so a factory
	// re-entering its own singleton fails instead of blocking.
	child, err := r.enter(key, reg.lifestyle)
	if err != nil {
		inj.logger.Warn("cyclic dependency detected",
			zap.String("key", key.Name()),
			zap.String("scope", r.owner.scopeID()),
			zap.Error(err),
		)

		return nil, err
	}

	var instance any

	switch reg.lifestyle {
	case Singleton:
		var created bool

		instance, created, err = reg.singleton(func() (any, error) {
			return reg.factory(child)
		})
		if created {
			inj.trackSingleton(reg)
		}

	case Scoped:
		instance, err = inj.resolveScoped(r, child, reg)

	default:
		instance, err = reg.factory(child)
	}

	if err != nil {
		return nil, err
	}

	if parent, ok := r.current(); ok {
		inj.graph.AddEdge(parent, key)
	}

	return instance, nil
}

// resolveScoped consults the owner's top frame, constructing on miss.
func (inj *Injector) resolveScoped(r, child *resolution, reg *registration) (any, error) {
	frame, err := r.owner.topFrame()
	if err != nil {
		return nil, err
	}

	instance, ok, err := frame.get(reg.key)
	if err != nil || ok {
		return instance, err
	}

	instance, err = reg.factory(child)
	if err != nil {
		return nil, err
	}

	stored, won, err := frame.put(reg.key, instance)
	if err != nil {
		// The frame ended while the factory ran; nothing owns the instance now.
		return nil, multierr.Append(err, dispose(reg.key, instance))
	}

	if !won {
		// Another resolve filled the frame first; drop our copy.
		_ = inj.logDisposeError(dispose(reg.key, instance), r.owner.scopeID())
	}

	return stored, nil
}

func (inj *Injector) trackSingleton(reg *registration) {
	inj.singletonMu.Lock()
	inj.singletons = append(inj.singletons, reg)
	inj.singletonMu.Unlock()

	inj.logger.Debug("singleton constructed", zap.String("key", reg.key.Name()))
}

// CreateScope pushes a new frame onto the injector's scope stack.
// The injector's stack is shared by all its callers; concurrent units of
// work should use BeginScope instead.
func (inj *Injector) CreateScope() {
	inj.mu.Lock()
	inj.scopes.push()
	depth := inj.scopes.depth()
	inj.mu.Unlock()

	inj.logger.Debug("scope frame opened",
		zap.String("scope", rootScopeID),
		zap.Int("depth", depth),
	)
}

// EndScope pops the top frame and disposes its instances.
// It is a no-op when no scope is open.
func (inj *Injector) EndScope() error {
	inj.mu.Lock()
	frame := inj.scopes.pop()
	depth := inj.scopes.depth()
	inj.mu.Unlock()

	if frame == nil {
		return nil
	}

	inj.logger.Debug("scope frame closed",
		zap.String("scope", rootScopeID),
		zap.Int("depth", depth),
	)

	return inj.logDisposeError(frame.release(), rootScopeID)
}

// ScopeDepth returns the number of open frames on the injector's stack.
func (inj *Injector) ScopeDepth() int {
	inj.mu.RLock()
	defer inj.mu.RUnlock()

	return inj.scopes.depth()
}

// BeginScope creates an independent scope with one open frame.
func (inj *Injector) BeginScope() *Scope {
	s := newScope(inj)

	inj.logger.Debug("scope started", zap.String("scope", s.id))

	return s
}

// topFrame implements owner.
func (inj *Injector) topFrame() (*scopeFrame, error) {
	inj.mu.RLock()
	defer inj.mu.RUnlock()

	frame := inj.scopes.top()
	if frame == nil {
		return nil, ErrNoActiveScope
	}

	return frame, nil
}

// scopeID implements owner.
func (inj *Injector) scopeID() string {
	return rootScopeID
}

// Has checks if a key is registered.
func (inj *Injector) Has(key TypeKey) bool {
	inj.mu.RLock()
	defer inj.mu.RUnlock()

	_, exists := inj.registrations[key]

	return exists
}

// Keys returns all registered keys sorted by name.
func (inj *Injector) Keys() []TypeKey {
	inj.mu.RLock()
	keys := make([]TypeKey, 0, len(inj.registrations))
	for key := range inj.registrations {
		keys = append(keys, key)
	}
	inj.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		return keys[i].name < keys[j].name
	})

	return keys
}

// Inspect returns diagnostic information about a key.
func (inj *Injector) Inspect(key TypeKey) RegistrationInfo {
	inj.mu.RLock()
	reg, exists := inj.registrations[key]
	inj.mu.RUnlock()

	if !exists {
		return RegistrationInfo{Key: key, Type: "unknown"}
	}

	info := reg.info()
	info.Registered = true
	info.Dependencies = inj.graph.Dependencies(key)

	return info
}

// Graph returns the dependency edges observed so far.
func (inj *Injector) Graph() *DependencyGraph {
	return inj.graph
}

// Use adds middleware to the injector.
// Middleware is called in the order they are added.
func (inj *Injector) Use(middleware Middleware) {
	inj.middleware.add(middleware)
}

// Close ends every open frame of the injector's stack, disposes
// singletons in reverse construction order and rejects further use.
// Scopes obtained from BeginScope are ended by their owners.
func (inj *Injector) Close() error {
	inj.mu.Lock()
	if inj.closed {
		inj.mu.Unlock()

		return nil
	}

	inj.closed = true
	frames := inj.scopes.drain()
	inj.mu.Unlock()

	err := releaseFrames(frames)

	inj.singletonMu.Lock()
	singletons := inj.singletons
	inj.singletons = nil
	inj.singletonMu.Unlock()

	for i := len(singletons) - 1; i >= 0; i-- {
		reg := singletons[i]
		if instance, ok := reg.cached(); ok {
			err = multierr.Append(err, dispose(reg.key, instance))
		}
	}

	inj.logger.Debug("injector closed",
		zap.Int("frames", len(frames)),
		zap.Int("singletons", len(singletons)),
	)

	return inj.logDisposeError(err, rootScopeID)
}

// logDisposeError logs each combined dispose error and returns err unchanged.
func (inj *Injector) logDisposeError(err error, scope string) error {
	if err == nil {
		return nil
	}

	for _, e := range multierr.Errors(err) {
		inj.logger.Error("dispose failed", zap.String("scope", scope), zap.Error(e))
	}

	return err
}
