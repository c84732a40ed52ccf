package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the photo frame.
type ErrorCode string

// Generation error codes
const (
	ErrSynthesisFailed  ErrorCode = "SYNTHESIS_FAILED"
	ErrStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"
)

// Display error codes
const (
	ErrRenderFailed ErrorCode = "RENDER_FAILED"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrInvalidImage ErrorCode = "INVALID_IMAGE"
)

// Lifecycle error codes
const (
	ErrConfigInvalid      ErrorCode = "CONFIG_INVALID"
	ErrCleanupFailed      ErrorCode = "CLEANUP_FAILED"
	ErrContinuousDisabled ErrorCode = "CONTINUOUS_DISABLED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Provider  string    `json:"provider,omitempty"`
	Path      string    `json:"path,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the synthesizer or render target name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// WithPath sets the file path the error refers to.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// AsError extracts a *Error from anywhere in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && GetErrorCode(err) == code
}

// NewSynthesisError wraps a synthesizer failure.
func NewSynthesisError(provider string, cause error) *Error {
	return NewError(ErrSynthesisFailed, "image synthesis failed").
		WithProvider(provider).
		WithCause(cause)
}

// NewRenderError wraps a render target failure.
func NewRenderError(target string, cause error) *Error {
	return NewError(ErrRenderFailed, "render failed").
		WithProvider(target).
		WithCause(cause)
}

// NewNotFoundError reports a missing image file.
func NewNotFoundError(path string) *Error {
	return NewError(ErrNotFound, "file not found: "+path).WithPath(path)
}
