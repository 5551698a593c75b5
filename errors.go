package injector

import (
	"fmt"
	"strings"

	"github.com/xraph/go-utils/errs"
)

// =============================================================================
// ERROR CODES
// =============================================================================

const (
	// CodeNotRegistered indicates a key has no binding
	CodeNotRegistered = "SERVICE_NOT_REGISTERED"

	// CodeNoActiveScope indicates a scoped resolve with no open scope frame
	CodeNoActiveScope = "NO_ACTIVE_SCOPE"

	// CodeCyclicDependency indicates a factory re-entered a key under construction
	CodeCyclicDependency = "CYCLIC_DEPENDENCY"

	// CodeInvalidKey indicates an empty service key
	CodeInvalidKey = "INVALID_KEY"

	// CodeInvalidFactory indicates a factory function is nil
	CodeInvalidFactory = "INVALID_FACTORY"

	// CodeInvalidLifestyle indicates an unknown lifestyle
	CodeInvalidLifestyle = "INVALID_LIFESTYLE"

	// CodeTypeMismatch indicates a resolved instance is not of the requested type
	CodeTypeMismatch = "TYPE_MISMATCH"

	// CodeScopeEnded indicates operation on an ended scope
	CodeScopeEnded = "SCOPE_ENDED"

	// CodeInjectorClosed indicates operation on a closed injector
	CodeInjectorClosed = "INJECTOR_CLOSED"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

// ErrNotRegisteredSentinel is a sentinel error for unbound keys (for error checking).
var ErrNotRegisteredSentinel = errs.NewError(CodeNotRegistered, "service not registered", nil)

// ErrNoActiveScope is returned when a scoped service is resolved with an empty scope stack.
var ErrNoActiveScope = errs.NewError(CodeNoActiveScope, "no active scope", nil)

// ErrCyclicDependencySentinel is a sentinel error for cycles (for error checking).
var ErrCyclicDependencySentinel = errs.NewError(CodeCyclicDependency, "cyclic dependency", nil)

// ErrInvalidKey is returned when a binding is registered under the zero key.
var ErrInvalidKey = errs.NewError(CodeInvalidKey, "service key cannot be empty", nil)

// ErrInvalidFactory is returned when a nil factory is registered.
var ErrInvalidFactory = errs.NewError(CodeInvalidFactory, "factory cannot be nil", nil)

// ErrInvalidLifestyleSentinel is a sentinel error for unknown lifestyles (for error checking).
var ErrInvalidLifestyleSentinel = errs.NewError(CodeInvalidLifestyle, "invalid lifestyle", nil)

// ErrTypeMismatchSentinel is a sentinel error for type mismatch during resolution.
var ErrTypeMismatchSentinel = errs.NewError(CodeTypeMismatch, "type mismatch", nil)

// ErrScopeEnded is returned when operations are attempted on an ended scope.
var ErrScopeEnded = errs.NewError(CodeScopeEnded, "scope has ended", nil)

// ErrInjectorClosed is returned when operations are attempted on a closed injector.
var ErrInjectorClosed = errs.NewError(CodeInjectorClosed, "injector is closed", nil)

// =============================================================================
// ERROR CONSTRUCTORS
// =============================================================================

// ErrNotRegistered creates an error for a key without a binding.
func ErrNotRegistered(key TypeKey) *errs.Error {
	return errs.NewError(
		CodeNotRegistered,
		fmt.Sprintf("service '%s' not registered", key),
		nil,
	).WithContext("service", key.Name()).(*errs.Error)
}

// ErrInvalidLifestyle creates an error for an unknown lifestyle value.
func ErrInvalidLifestyle(value any) *errs.Error {
	return errs.NewError(
		CodeInvalidLifestyle,
		fmt.Sprintf("invalid lifestyle %v", value),
		nil,
	).WithContext("lifestyle", fmt.Sprint(value)).(*errs.Error)
}

// ErrTypeMismatch creates an error for type mismatch during resolution.
func ErrTypeMismatch(key TypeKey, actual any) *errs.Error {
	return errs.NewError(
		CodeTypeMismatch,
		fmt.Sprintf("service '%s' type mismatch: got %T", key, actual),
		nil,
	).WithContext("service", key.Name()).
		WithContext("actual_type", fmt.Sprintf("%T", actual)).(*errs.Error)
}

// CyclicDependencyError reports a factory that would re-enter a key
// already under construction in the same resolution. Chain starts and
// ends with that key.
type CyclicDependencyError struct {
	Chain []TypeKey
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency detected: " + strings.Join(keyNames(e.Chain), " -> ")
}

// Unwrap makes errors.Is(err, ErrCyclicDependencySentinel) hold.
func (e *CyclicDependencyError) Unwrap() error {
	return ErrCyclicDependencySentinel
}

// Contains reports whether key takes part in the cycle.
func (e *CyclicDependencyError) Contains(key TypeKey) bool {
	return containsKey(e.Chain, key)
}
