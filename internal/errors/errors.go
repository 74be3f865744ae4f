package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrConstraintViolation indicates a foreign key or other constraint failure
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotPersisted indicates an operation needs a stored entity but got a transient one
	ErrNotPersisted = errors.New("entity is not persisted")

	// ErrNotificationFailed indicates the MWI notification callback failed
	ErrNotificationFailed = errors.New("mwi notification failed")

	// ErrContextNotFound indicates the voicemail context was not found
	ErrContextNotFound = errors.New("context not found")

	// ErrMailboxNotFound indicates the mailbox was not found
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrFolderNotFound indicates the folder was not found
	ErrFolderNotFound = errors.New("folder not found")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound            = "NOT_FOUND"
	CodeDuplicateEntry      = "DUPLICATE_ENTRY"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotPersisted        = "NOT_PERSISTED"
	CodeNotificationFailed  = "NOTIFICATION_FAILED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrContextNotFound) ||
		errors.Is(err, ErrMailboxNotFound) ||
		errors.Is(err, ErrFolderNotFound) ||
		errors.Is(err, ErrMessageNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case errors.Is(err, ErrConstraintViolation):
		return CodeConstraintViolation
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrNotPersisted):
		return CodeNotPersisted
	case errors.Is(err, ErrNotificationFailed):
		return CodeNotificationFailed
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	default:
		return CodeInternalError
	}
}
