package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain engines. Callers branch with errors.Is; the
// request boundary maps each one onto an HTTP status.
var (
	// ErrValidation: malformed or missing input, caller's fault.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState: operation not legal from the entity's current state.
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrForbidden: actor lacks permission or ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrAlreadyResolved: redundant call on a terminal state.
	ErrAlreadyResolved = errors.New("already resolved")
	// ErrQuotaExceeded: a rate or limit policy was hit.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrNotFound: referenced entity missing.
	ErrNotFound = errors.New("not found")
	// ErrConflict: concurrent transactions collided even after retries; the
	// caller should retry the request.
	ErrConflict = errors.New("conflict")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// InvalidStatef wraps ErrInvalidState with a formatted detail message.
func InvalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidState}, args...)...)
}

// Forbiddenf wraps ErrForbidden with a formatted detail message.
func Forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrForbidden}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}
