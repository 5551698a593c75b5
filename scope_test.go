package injector

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestBeginScope(t *testing.T) {
	inj := New()

	scope := inj.BeginScope()
	require.NotNil(t, scope)
	assert.NotEmpty(t, scope.ID())
	assert.Equal(t, 1, scope.Depth())
	assert.False(t, scope.IsEnded())

	// The injector's own stack is untouched.
	assert.Equal(t, 0, inj.ScopeDepth())
}

func TestScope_UniqueIDs(t *testing.T) {
	inj := New()

	a := inj.BeginScope()
	b := inj.BeginScope()

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestScope_ScopedInstances(t *testing.T) {
	inj := New()

	var calls atomic.Int32
	require.NoError(t, inj.Register(key1.TypeKey(), countingFactory(&calls), Scoped))

	s1 := inj.BeginScope()
	s2 := inj.BeginScope()

	a, err := s1.Resolve(key1.TypeKey())
	require.NoError(t, err)
	b, err := s1.Resolve(key1.TypeKey())
	require.NoError(t, err)
	c, err := s2.Resolve(key1.TypeKey())
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 1, s1.Instances())

	// Scopes from BeginScope do not serve the injector's own stack.
	_, err = inj.Resolve(key1.TypeKey())
	assert.ErrorIs(t, err, ErrNoActiveScope)

	require.NoError(t, s1.End())
	require.NoError(t, s2.End())
}

func TestScope_SingletonsSharedAcrossScopes(t *testing.T) {
	inj := New()

	var calls atomic.Int32
	require.NoError(t, inj.Register(key1.TypeKey(), countingFactory(&calls), Singleton))

	a, err := inj.BeginScope().Resolve(key1.TypeKey())
	require.NoError(t, err)
	b, err := inj.BeginScope().Resolve(key1.TypeKey())
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScope_NestedFrames(t *testing.T) {
	inj := New()

	var calls atomic.Int32
	require.NoError(t, inj.Register(key1.TypeKey(), countingFactory(&calls), Scoped))

	scope := inj.BeginScope()

	outer, err := Resolve(scope, key1)
	require.NoError(t, err)

	require.NoError(t, scope.CreateScope())
	assert.Equal(t, 2, scope.Depth())

	inner, err := Resolve(scope, key1)
	require.NoError(t, err)
	assert.NotSame(t, outer, inner)

	require.NoError(t, scope.EndScope())

	again, err := Resolve(scope, key1)
	require.NoError(t, err)
	assert.Same(t, outer, again)

	require.NoError(t, scope.EndScope())
	assert.Equal(t, 0, scope.Depth())

	_, err = Resolve(scope, key1)
	assert.ErrorIs(t, err, ErrNoActiveScope)

	assert.NoError(t, scope.EndScope())
}

func TestScope_End(t *testing.T) {
	inj := New()

	var log []string

	k := NewTypeKey("svc")
	require.NoError(t, inj.Register(k, func(Resolver) (any, error) {
		return &disposable{name: "svc", log: &log}, nil
	}, Scoped))

	scope := inj.BeginScope()
	require.NoError(t, scope.CreateScope())

	_, err := scope.Resolve(k)
	require.NoError(t, err)

	require.NoError(t, scope.End())
	assert.Equal(t, []string{"svc"}, log)
	assert.True(t, scope.IsEnded())

	assert.ErrorIs(t, scope.End(), ErrScopeEnded)
	assert.ErrorIs(t, scope.CreateScope(), ErrScopeEnded)
	assert.ErrorIs(t, scope.EndScope(), ErrScopeEnded)

	_, err = scope.Resolve(k)
	assert.ErrorIs(t, err, ErrScopeEnded)
}

func TestScope_EndAggregatesDisposeErrors(t *testing.T) {
	inj := New()

	a := NewTypeKey("a")
	b := NewTypeKey("b")

	require.NoError(t, inj.Register(a, func(Resolver) (any, error) {
		return &disposable{err: errors.New("a failed")}, nil
	}, Scoped))
	require.NoError(t, inj.Register(b, func(Resolver) (any, error) {
		return &disposable{err: errors.New("b failed")}, nil
	}, Scoped))

	scope := inj.BeginScope()
	_, err := scope.Resolve(a)
	require.NoError(t, err)
	_, err = scope.Resolve(b)
	require.NoError(t, err)

	err = scope.End()
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "failed to dispose b")
	assert.Contains(t, errs[1].Error(), "failed to dispose a")
}

type closerService struct{ closed bool }

func (c *closerService) Close() error {
	c.closed = true

	return nil
}

func TestScope_EndClosesClosers(t *testing.T) {
	inj := New()
	svc := &closerService{}

	k := NewTypeKey("closer")
	require.NoError(t, inj.Register(k, func(Resolver) (any, error) { return svc, nil }, Scoped))

	scope := inj.BeginScope()
	_, err := scope.Resolve(k)
	require.NoError(t, err)
	require.NoError(t, scope.End())

	assert.True(t, svc.closed)
}

func TestScope_TransientNotDisposed(t *testing.T) {
	inj := New()
	svc := &disposable{}

	k := NewTypeKey("transient")
	require.NoError(t, inj.Register(k, func(Resolver) (any, error) { return svc, nil }, Transient))

	scope := inj.BeginScope()
	_, err := scope.Resolve(k)
	require.NoError(t, err)
	require.NoError(t, scope.End())

	assert.False(t, svc.closed)
}

func TestScope_Has(t *testing.T) {
	inj := New()
	require.NoError(t, RegisterValue[Interface1](inj, key1, &impl1{}))

	scope := inj.BeginScope()

	assert.True(t, scope.Has(key1.TypeKey()))
	assert.False(t, scope.Has(key2.TypeKey()))
}

func TestScope_ConcurrentResolveSharesInstance(t *testing.T) {
	inj := New()

	var calls atomic.Int32
	require.NoError(t, inj.Register(key1.TypeKey(), countingFactory(&calls), Scoped))

	scope := inj.BeginScope()

	const goroutines = 32

	results := make([]any, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			v, err := scope.Resolve(key1.TypeKey())
			assert.NoError(t, err)

			results[i] = v
		}(i)
	}

	wg.Wait()

	// Factories may race, but every caller sees the stored instance.
	for _, v := range results {
		assert.Same(t, results[0], v)
	}

	require.NoError(t, scope.End())
}

func TestScope_ConcurrentScopesAreIsolated(t *testing.T) {
	inj := New()

	var calls atomic.Int32
	require.NoError(t, inj.Register(key1.TypeKey(), countingFactory(&calls), Scoped))

	const scopes = 16

	var wg sync.WaitGroup
	for range scopes {
		wg.Add(1)

		go func() {
			defer wg.Done()

			scope := inj.BeginScope()
			defer func() { assert.NoError(t, scope.End()) }()

			a, err := scope.Resolve(key1.TypeKey())
			assert.NoError(t, err)
			b, err := scope.Resolve(key1.TypeKey())
			assert.NoError(t, err)
			assert.Same(t, a, b)
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(scopes), calls.Load())
}

func TestScope_LosingBuildIsDisposed(t *testing.T) {
	inj := New()
	scope := inj.BeginScope()

	var built []*disposable

	k := NewTypeKey("conn")
	require.NoError(t, inj.Register(k, func(Resolver) (any, error) {
		d := &disposable{name: "conn"}
		built = append(built, d)

		if len(built) == 1 {
			// A second resolve fills the frame while this build is running.
			if _, err := scope.Resolve(k); err != nil {
				return nil, err
			}
		}

		return d, nil
	}, Scoped))

	got, err := scope.Resolve(k)
	require.NoError(t, err)

	require.Len(t, built, 2)
	assert.Same(t, built[1], got)
	assert.True(t, built[0].closed)
	assert.False(t, built[1].closed)

	again, err := scope.Resolve(k)
	require.NoError(t, err)
	assert.Same(t, got, again)

	require.NoError(t, scope.End())
	assert.True(t, built[1].closed)
}
