package school

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy. Every handler-level failure is mapped onto one of
// these before it leaves the process; no raw store error reaches a caller.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	// ErrCrossTenant is kept distinct from ErrNotFound for audit logs, but
	// both map to the same generic wire shape so a caller cannot tell
	// "exists in another org" from "does not exist".
	ErrCrossTenant = errors.New("cross-tenant access denied")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("resource conflict")
	ErrValidation  = errors.New("validation failed")
)

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates per-field messages and unwraps to ErrValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a single-field validation error.
func Invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
