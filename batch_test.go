package injector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterServices(t *testing.T) {
	inj := New()

	err := RegisterServices(inj,
		TypedService(key1, Singleton, func(Resolver) (Interface1, error) {
			return &impl1{name: "one"}, nil
		}),
		Service(NewTypeKey("raw"), func(Resolver) (any, error) { return 42, nil }, Transient),
	)
	require.NoError(t, err)

	assert.True(t, Has(inj, key1))
	assert.True(t, inj.Has(NewTypeKey("raw")))
}

func TestRegisterServices_StopsAtFirstError(t *testing.T) {
	inj := New()

	err := RegisterServices(inj,
		TypedService[Interface1](key1, Singleton, nil),
		TypedService(key2, Transient, func(Resolver) (Interface2, error) { return &impl2{}, nil }),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFactory)
	assert.Contains(t, err.Error(), "register interface1")
	assert.False(t, Has(inj, key2))
}

type debugCalculator struct{ plainCalculator }

func TestInstall_Modules(t *testing.T) {
	release := func(inj *Injector) error {
		return RegisterType[Calculator, plainCalculator](inj, calculatorKey, Singleton)
	}
	debug := func(inj *Injector) error {
		return RegisterType[Calculator, debugCalculator](inj, calculatorKey, Transient)
	}

	inj := New()
	require.NoError(t, inj.Install(release, nil, debug))

	// The later module replaces the binding.
	calc, err := Resolve(inj, calculatorKey)
	require.NoError(t, err)
	assert.IsType(t, &debugCalculator{}, calc)
	assert.Equal(t, Transient, Inspect(inj, calculatorKey).Lifestyle)
}

func TestInstall_Error(t *testing.T) {
	failing := errors.New("module failed")

	inj := New()
	err := inj.Install(
		func(*Injector) error { return nil },
		func(*Injector) error { return failing },
	)

	assert.ErrorIs(t, err, failing)
	assert.Contains(t, err.Error(), "install module 1")
}
