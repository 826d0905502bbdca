// Package errors provides structured error types for tool-level failures.
// Partial transformation failures are not errors; they are diagnostics
// carried alongside the result (see internal/migration/core).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	// ErrTypeValidation represents validation errors.
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeConfig represents configuration errors.
	ErrTypeConfig ErrorType = "config"
	// ErrTypeNotFound represents resource not found errors.
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeParse represents source document parse errors.
	ErrTypeParse ErrorType = "parse"
	// ErrTypeStorage represents run-store errors.
	ErrTypeStorage ErrorType = "storage"
	// ErrTypeInternal represents internal errors.
	ErrTypeInternal ErrorType = "internal"
)

// AppError represents a structured application error.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}
	if len(e.Context) > 0 {
		contextParts := make([]string, 0, len(e.Context))
		for k, v := range e.Context {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ValidationError creates a new validation error.
func ValidationError(msg string) *AppError {
	return &AppError{Type: ErrTypeValidation, Message: msg}
}

// ConfigError creates a new configuration error.
func ConfigError(msg string) *AppError {
	return &AppError{Type: ErrTypeConfig, Message: msg}
}

// NotFoundError creates a new not-found error.
func NotFoundError(msg string) *AppError {
	return &AppError{Type: ErrTypeNotFound, Message: msg}
}

// ParseError creates a new parse error wrapping its cause.
func ParseError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeParse, Message: msg, Cause: cause}
}

// StorageError creates a new run-store error wrapping its cause.
func StorageError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeStorage, Message: msg, Cause: cause}
}

// InternalError creates a new internal error wrapping its cause.
func InternalError(msg string, cause error) *AppError {
	return &AppError{Type: ErrTypeInternal, Message: msg, Cause: cause}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrTypeNotFound)
}
