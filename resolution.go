package injector

import (
	"context"
)

// Resolver resolves services by key. *Injector and *Scope implement it,
// and every factory receives one bound to the resolution that invoked it.
type Resolver interface {
	Resolve(key TypeKey) (any, error)
	ResolveContext(ctx context.Context, key TypeKey) (any, error)
}

// owner is a top-level Resolver that also owns a scope stack.
type owner interface {
	Resolver
	topFrame() (*scopeFrame, error)
	scopeID() string
}

// resolution is the Resolver handed to factories. It carries the chain
// of keys under construction for one top-level resolve. Chains are
// never mutated: entering a factory produces a child with the key
// appended, so concurrent or unrelated resolutions cannot interfere.
type resolution struct {
	injector *Injector
	owner    owner
	ctx      context.Context
	chain    []TypeKey

	// home serves deferred lookups made by the instance being built.
	// It is the injector once a singleton is under construction, since
	// the singleton outlives the scope that first resolved it.
	home Resolver
}

func newResolution(ctx context.Context, inj *Injector, o owner) *resolution {
	if ctx == nil {
		ctx = context.Background()
	}

	return &resolution{
		injector: inj,
		owner:    o,
		ctx:      ctx,
		home:     o,
	}
}

// Resolve implements Resolver.
func (r *resolution) Resolve(key TypeKey) (any, error) {
	return r.injector.resolve(r, key)
}

// ResolveContext implements Resolver.
func (r *resolution) ResolveContext(ctx context.Context, key TypeKey) (any, error) {
	return r.injector.resolve(r.withContext(ctx), key)
}

func (r *resolution) withContext(ctx context.Context) *resolution {
	if ctx == nil || ctx == r.ctx {
		return r
	}

	cp := *r
	cp.ctx = ctx

	return &cp
}

// current returns the key whose factory is running, if any.
func (r *resolution) current() (TypeKey, bool) {
	if len(r.chain) == 0 {
		return TypeKey{}, false
	}

	return r.chain[len(r.chain)-1], true
}

// enter returns the resolution a factory for key runs with, or a
// CyclicDependencyError when key is already under construction.
func (r *resolution) enter(key TypeKey, lifestyle Lifestyle) (*resolution, error) {
	for i, k := range r.chain {
		if k == key {
			cycle := make([]TypeKey, 0, len(r.chain)-i+1)
			cycle = append(cycle, r.chain[i:]...)
			cycle = append(cycle, key)

			return nil, &CyclicDependencyError{Chain: cycle}
		}
	}

	chain := make([]TypeKey, len(r.chain)+1)
	copy(chain, r.chain)
	chain[len(r.chain)] = key

	home := r.home
	if lifestyle == Singleton {
		home = r.injector
	}

	return &resolution{
		injector: r.injector,
		owner:    r.owner,
		ctx:      r.ctx,
		chain:    chain,
		home:     home,
	}, nil
}

// detach returns the top-level Resolver for deferred lookups, with an
// empty chain.
func (r *resolution) detach() Resolver {
	return r.home
}

// Chain returns the keys under construction, outermost first.
func (r *resolution) Chain() []TypeKey {
	chain := make([]TypeKey, len(r.chain))
	copy(chain, r.chain)

	return chain
}

// detachResolver strips a factory's resolution down to a top-level
// Resolver so deferred lookups start a fresh chain.
func detachResolver(r Resolver) Resolver {
	if res, ok := r.(*resolution); ok {
		return res.detach()
	}

	return r
}

// ChainOf returns the keys under construction for a Resolver handed to a
// factory, outermost first. It returns nil for top-level resolvers.
func ChainOf(r Resolver) []TypeKey {
	if res, ok := r.(*resolution); ok {
		return res.Chain()
	}

	return nil
}

// ContextOf returns the context a Resolver handed to a factory runs
// with, including values added by middleware. Top-level resolvers
// return context.Background().
func ContextOf(r Resolver) context.Context {
	if res, ok := r.(*resolution); ok {
		return res.ctx
	}

	return context.Background()
}
