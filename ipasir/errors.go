package ipasir

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors. Every error returned by a Session matches one of them with errors.Is.
var (
	ErrInitialization = errors.New("engine initialization failed")
	ErrInvalidLiteral = errors.New("invalid literal")
	ErrInvalidState   = errors.New("invalid session state")
	ErrEngineFailure  = errors.New("engine failure")
	ErrReleased       = errors.New("session already released")
	// ErrUnsupported is returned by engines that cannot honour an optional
	// capability, such as a conflict budget. The session stays usable.
	ErrUnsupported = errors.New("unsupported by engine")
)

// InitializationError is returned by New when no engine could be built.
type InitializationError struct {
	Engine string
	Err    error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("could not initialize engine %q: %v", e.Engine, e.Err)
}

func (e *InitializationError) Is(target error) bool { return target == ErrInitialization }

func (e *InitializationError) Unwrap() error { return e.Err }

// InvalidLiteralError is returned when a literal is out of range.
// The session is left untouched.
type InvalidLiteralError struct {
	Op  string
	Lit int
	Max int
}

func (e *InvalidLiteralError) Error() string {
	if e.Lit == 0 {
		return fmt.Sprintf("%s: 0 is not a literal", e.Op)
	}
	return fmt.Sprintf("%s: literal %d out of range (max variable %d)", e.Op, e.Lit, e.Max)
}

func (e *InvalidLiteralError) Is(target error) bool { return target == ErrInvalidLiteral }

// InvalidStateError is returned when an operation is called in a state that does not allow it.
// It always denotes a bug in the caller.
type InvalidStateError struct {
	Op     string
	State  State
	Reason string
}

func (e *InvalidStateError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: not allowed in state %s", e.Op, e.State)
	}
	return fmt.Sprintf("%s: not allowed in state %s: %s", e.Op, e.State, e.Reason)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// EngineFailure is returned when the engine failed in a way the session cannot recover from.
// The session must then be released.
type EngineFailure struct {
	Op  string
	Err error
}

func (e *EngineFailure) Error() string {
	return fmt.Sprintf("engine failure during %s: %v", e.Op, e.Err)
}

func (e *EngineFailure) Is(target error) bool { return target == ErrEngineFailure }

func (e *EngineFailure) Unwrap() error { return e.Err }
