package injector

import (
	"context"
	"fmt"
	"strings"
)

// paramPrefix marks a string constructor param passed by value.
const paramPrefix = "param:"

// Configurable is implemented by concrete types registered with
// RegisterType that accept constructor params.
type Configurable interface {
	Configure(params ...any) error
}

// Resolve resolves key with type safety. Inside a factory it keeps the
// context of the resolution that invoked the factory.
func Resolve[T any](r Resolver, key Key[T]) (T, error) {
	instance, err := r.Resolve(key.TypeKey())

	return typed(key, instance, err)
}

// ResolveContext is Resolve with a context carrying trace and log values.
func ResolveContext[T any](ctx context.Context, r Resolver, key Key[T]) (T, error) {
	instance, err := r.ResolveContext(ctx, key.TypeKey())

	return typed(key, instance, err)
}

func typed[T any](key Key[T], instance any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}

	v, ok := instance.(T)
	if !ok {
		return zero, ErrTypeMismatch(key.TypeKey(), instance)
	}

	return v, nil
}

// MustResolve resolves or panics - use only during startup.
func MustResolve[T any](r Resolver, key Key[T]) T {
	instance, err := Resolve(r, key)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", key, err))
	}

	return instance
}

// RegisterFactory binds key to a typed factory closure.
//
// Example:
//
//	injector.RegisterFactory(inj, UserServiceKey, injector.Transient,
//	    func(r injector.Resolver) (*UserService, error) {
//	        db, err := injector.Resolve(r, DatabaseConfigKey)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return &UserService{db: db}, nil
//	    })
func RegisterFactory[T any](inj *Injector, key Key[T], lifestyle Lifestyle, factory func(Resolver) (T, error)) error {
	if factory == nil {
		return ErrInvalidFactory
	}

	return inj.Register(key.TypeKey(), func(r Resolver) (any, error) {
		return factory(r)
	}, lifestyle)
}

// RegisterType binds the abstraction I to the concrete type C. Each
// construction allocates a new C; *C must implement I. When *C
// implements Configurable it receives params, with the "param:" prefix
// stripped from string params.
//
// Example:
//
//	injector.RegisterType[Calculator, AddingCalculator](inj, CalculatorKey, injector.Scoped)
func RegisterType[I any, C any](inj *Injector, key Key[I], lifestyle Lifestyle, params ...any) error {
	if _, ok := any(new(C)).(I); !ok {
		return ErrTypeMismatch(key.TypeKey(), new(C))
	}

	resolved := resolveParams(params)

	return inj.Register(key.TypeKey(), func(Resolver) (any, error) {
		instance := new(C)

		if c, ok := any(instance).(Configurable); ok {
			if err := c.Configure(resolved...); err != nil {
				return nil, fmt.Errorf("configure %s: %w", key, err)
			}
		}

		return any(instance).(I), nil
	}, lifestyle)
}

// RegisterValue registers a pre-built instance (always singleton).
func RegisterValue[T any](inj *Injector, key Key[T], instance T) error {
	return inj.Register(key.TypeKey(), func(Resolver) (any, error) {
		return instance, nil
	}, Singleton)
}

// RegisterSingleton is a convenience wrapper for singleton services.
func RegisterSingleton[T any](inj *Injector, key Key[T], factory func(Resolver) (T, error)) error {
	return RegisterFactory(inj, key, Singleton, factory)
}

// RegisterScoped is a convenience wrapper for scoped services.
func RegisterScoped[T any](inj *Injector, key Key[T], factory func(Resolver) (T, error)) error {
	return RegisterFactory(inj, key, Scoped, factory)
}

// RegisterTransient is a convenience wrapper for transient services.
func RegisterTransient[T any](inj *Injector, key Key[T], factory func(Resolver) (T, error)) error {
	return RegisterFactory(inj, key, Transient, factory)
}

// Has checks if a typed key is registered.
func Has[T any](inj *Injector, key Key[T]) bool {
	return inj.Has(key.TypeKey())
}

// Inspect returns diagnostic information about a typed key.
func Inspect[T any](inj *Injector, key Key[T]) RegistrationInfo {
	return inj.Inspect(key.TypeKey())
}

// resolveParams strips the value prefix from string params.
func resolveParams(params []any) []any {
	if len(params) == 0 {
		return nil
	}

	resolved := make([]any, len(params))
	for i, p := range params {
		if s, ok := p.(string); ok {
			p = strings.TrimPrefix(s, paramPrefix)
		}

		resolved[i] = p
	}

	return resolved
}
