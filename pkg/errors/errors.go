package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Domain errors
	ErrorTypeValidation    ErrorType = "VALIDATION"
	ErrorTypeNotFound      ErrorType = "NOT_FOUND"
	ErrorTypeDuplicateID   ErrorType = "DUPLICATE_ID"
	ErrorTypeSelfReference ErrorType = "SELF_REFERENCE"

	// Persistence errors
	ErrorTypeCorruptData     ErrorType = "CORRUPT_DATA"
	ErrorTypeVersionMismatch ErrorType = "VERSION_MISMATCH"
	ErrorTypeIO              ErrorType = "IO"

	// Application errors
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AppError of the same type.
// This lets callers write errors.Is(err, pkgerrors.ErrNotFound).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a single detail entry
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// Sentinels for errors.Is comparisons. Only the Type is compared.
var (
	ErrValidation      = &AppError{Type: ErrorTypeValidation}
	ErrNotFound        = &AppError{Type: ErrorTypeNotFound}
	ErrDuplicateID     = &AppError{Type: ErrorTypeDuplicateID}
	ErrSelfReference   = &AppError{Type: ErrorTypeSelfReference}
	ErrCorruptData     = &AppError{Type: ErrorTypeCorruptData}
	ErrVersionMismatch = &AppError{Type: ErrorTypeVersionMismatch}
	ErrIO              = &AppError{Type: ErrorTypeIO}
	ErrInternal        = &AppError{Type: ErrorTypeInternal}
)

// captureStackTrace captures the current stack trace
func captureStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := ""
	for {
		frame, more := frames.Next()
		stack += fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return stack
}

// Constructor functions for common error types

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// NewNotFoundError creates a not found error for the given resource kind and id
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s %q not found", resource, id),
		Details:    map[string]interface{}{"resource": resource, "id": id},
		StackTrace: captureStackTrace(),
	}
}

// NewDuplicateIDError creates an error for an id that is already taken
func NewDuplicateIDError(resource, id string) *AppError {
	return &AppError{
		Type:       ErrorTypeDuplicateID,
		Message:    fmt.Sprintf("%s %q already exists", resource, id),
		Details:    map[string]interface{}{"resource": resource, "id": id},
		StackTrace: captureStackTrace(),
	}
}

// NewSelfReferenceError creates an error for a reference from a thought to itself
func NewSelfReferenceError(id string) *AppError {
	return &AppError{
		Type:       ErrorTypeSelfReference,
		Message:    fmt.Sprintf("thought %q cannot reference itself", id),
		Details:    map[string]interface{}{"id": id},
		StackTrace: captureStackTrace(),
	}
}

// NewCorruptDataError creates an error for undecodable or inconsistent persisted data
func NewCorruptDataError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeCorruptData,
		Message:    message,
		Cause:      cause,
		StackTrace: captureStackTrace(),
	}
}

// NewVersionMismatchError creates an error for an unsupported format version
func NewVersionMismatchError(got, want int) *AppError {
	return &AppError{
		Type:       ErrorTypeVersionMismatch,
		Message:    fmt.Sprintf("unsupported format version %d (expected %d)", got, want),
		Details:    map[string]interface{}{"got": got, "want": want},
		StackTrace: captureStackTrace(),
	}
}

// NewIOError wraps a storage-layer failure. The cause is kept unmodified.
func NewIOError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeIO,
		Message:    fmt.Sprintf("%s failed", operation),
		Cause:      err,
		StackTrace: captureStackTrace(),
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StackTrace: captureStackTrace(),
	}
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// TypeOf returns the error type, or INTERNAL for errors outside the hierarchy
func TypeOf(err error) ErrorType {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsDuplicateID checks if an error is a duplicate id error
func IsDuplicateID(err error) bool {
	return IsType(err, ErrorTypeDuplicateID)
}

// IsSelfReference checks if an error is a self reference error
func IsSelfReference(err error) bool {
	return IsType(err, ErrorTypeSelfReference)
}

// IsCorruptData checks if an error is a corrupt data error
func IsCorruptData(err error) bool {
	return IsType(err, ErrorTypeCorruptData)
}

// IsVersionMismatch checks if an error is a version mismatch error
func IsVersionMismatch(err error) bool {
	return IsType(err, ErrorTypeVersionMismatch)
}

// IsIO checks if an error is an I/O error
func IsIO(err error) bool {
	return IsType(err, ErrorTypeIO)
}
