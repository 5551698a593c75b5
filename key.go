package injector

import (
	"reflect"
)

// TypeKey identifies an abstraction inside an Injector.
// Two keys are equal when their names are equal.
type TypeKey struct {
	name string
}

// NewTypeKey creates an untyped key with the given name.
func NewTypeKey(name string) TypeKey {
	return TypeKey{name: name}
}

// Name returns the key name.
func (k TypeKey) Name() string {
	return k.name
}

// IsZero reports whether the key was never assigned a name.
func (k TypeKey) IsZero() bool {
	return k.name == ""
}

func (k TypeKey) String() string {
	return k.name
}

// Key is a TypeKey bound to the Go type its instances have.
// Use NewKey for explicit names or KeyOf to derive the name from T.
//
// Example:
//
//	var LoggerKey = injector.NewKey[Logger]("logger")
//	var CalculatorKey = injector.KeyOf[Calculator]()
type Key[T any] struct {
	id TypeKey
}

// NewKey creates a typed key with an explicit name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{id: NewTypeKey(name)}
}

// KeyOf creates a typed key named after T, e.g. "mypkg.Calculator".
func KeyOf[T any]() Key[T] {
	return Key[T]{id: NewTypeKey(reflect.TypeFor[T]().String())}
}

// TypeKey returns the untyped identity of k.
func (k Key[T]) TypeKey() TypeKey {
	return k.id
}

// Name returns the key name.
func (k Key[T]) Name() string {
	return k.id.name
}

func (k Key[T]) String() string {
	return k.id.name
}

// keyNames converts keys to their names, preserving order.
func keyNames(keys []TypeKey) []string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.name
	}

	return names
}
