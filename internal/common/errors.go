// Package common defines shared constants and sentinel errors used across
// the repository, service and HTTP layers of gophaccount. Callers should use
// errors.Is to match these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal server error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorStaleToken       = errors.New("auth token is stale")
	ErrorMissingInput     = errors.New("missing request body")
	ErrorPasswordMismatch = errors.New("new password and confirmation do not match")

	// Validation errors, carried by ValidationError and PolicyError.
	ErrorValidation = errors.New("validation error")
	ErrorPolicy     = errors.New("password does not satisfy policy")

	// Token verification failures. All of them are reported to clients as
	// "unauthorized"; the distinction is kept for logs and metrics.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
)

// ValidationError lists the structural rules an input violated.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return ErrorValidation.Error() + ": " + strings.Join(e.Errors, "; ")
}

// Is makes errors.Is(err, ErrorValidation) hold for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// PolicyError lists the password policy rules a candidate violated.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return ErrorPolicy.Error() + ": " + strings.Join(e.Violations, "; ")
}

// Is makes errors.Is(err, ErrorPolicy) hold for any *PolicyError.
func (e *PolicyError) Is(target error) bool {
	return target == ErrorPolicy
}
