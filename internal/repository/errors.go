package repository

import (
	"strings"

	apperrors "github.com/welldanyogia/voicemail-store/internal/errors"
)

// Common repository errors
var (
	ErrNotFound           = apperrors.ErrNotFound
	ErrDuplicateEntry     = apperrors.ErrDuplicateEntry
	ErrInvalidInput       = apperrors.ErrInvalidInput
	ErrNotPersisted       = apperrors.ErrNotPersisted
	ErrNotificationFailed = apperrors.ErrNotificationFailed
)

// IsAlreadyExists reports whether err is the engine's complaint about a table
// or index that is already there. A joined error qualifies only when every
// error in it does.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs := joined.Unwrap()
		for _, e := range errs {
			if !IsAlreadyExists(e) {
				return false
			}
		}
		return len(errs) > 0
	}
	errStr := err.Error()
	return strings.Contains(errStr, "already exists") ||
		strings.Contains(errStr, "42P07") // PostgreSQL duplicate_table (also raised for indexes)
}

// IsConstraintViolation reports whether err is a unique or foreign key violation.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return isDuplicateKeyError(err) ||
		strings.Contains(errStr, "FOREIGN KEY constraint") ||
		strings.Contains(errStr, "violates foreign key constraint") ||
		strings.Contains(errStr, "NOT NULL constraint") ||
		strings.Contains(errStr, "23503") // PostgreSQL foreign key violation code
}

// isDuplicateKeyError checks if the error is a duplicate key violation
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "23505") // PostgreSQL unique violation code
}
