// Package fault defines the error taxonomy shared by the voice service components.
//
// Components never panic across their boundaries: every failure is returned as an
// error that wraps exactly one of the sentinels below, so the command layer can
// translate it into a failure reply with errors.Is or Code.
package fault

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input (config fields, empty ids, bad wakewords).
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate marks an attempt to register something that already exists.
	ErrDuplicate = errors.New("already exists")
	// ErrNotFound marks an unknown agent, capability, action or event.
	ErrNotFound = errors.New("not found")
	// ErrState marks an operation that is not possible in the current state.
	ErrState = errors.New("invalid state")
	// ErrBackendCall marks a failed outbound call to a voice agent backend or app manager.
	ErrBackendCall = errors.New("backend call failed")
)

// Code returns a stable, lowercase code for the taxonomy member err wraps.
// Errors outside the taxonomy yield "unknown".
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrState):
		return "state"
	case errors.Is(err, ErrBackendCall):
		return "backend_call"
	default:
		return "unknown"
	}
}

// Validation wraps ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Duplicate wraps ErrDuplicate with a formatted message.
func Duplicate(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDuplicate, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// State wraps ErrState with a formatted message.
func State(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

// Backend wraps ErrBackendCall and the underlying cause.
func Backend(api, verb string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s/%s", ErrBackendCall, api, verb)
	}
	return fmt.Errorf("%w: %s/%s: %w", ErrBackendCall, api, verb, cause)
}
