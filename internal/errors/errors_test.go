package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAppError_CreatesErrorWithCorrectFields(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := NewAppError(baseErr, "custom message", CodeNotFound)

	assert.Equal(t, baseErr, appErr.Err)
	assert.Equal(t, "custom message", appErr.Message)
	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestAppError_Error_ReturnsMessage(t *testing.T) {
	appErr := NewAppError(errors.New("base error"), "custom message", CodeNotFound)
	assert.Equal(t, "custom message", appErr.Error())
}

func TestAppError_Error_ReturnsBaseErrorWhenNoMessage(t *testing.T) {
	appErr := NewAppError(errors.New("base error"), "", CodeNotFound)
	assert.Equal(t, "base error", appErr.Error())
}

func TestAppError_Unwrap_ReturnsWrappedError(t *testing.T) {
	baseErr := errors.New("base error")
	appErr := NewAppError(baseErr, "custom message", CodeNotFound)
	assert.Equal(t, baseErr, appErr.Unwrap())
}

func TestWrap_WrapsErrorWithContext(t *testing.T) {
	wrapped := Wrap(errors.New("base error"), "context")

	assert.Contains(t, wrapped.Error(), "context")
	assert.Contains(t, wrapped.Error(), "base error")
}

func TestWrap_ReturnsNilForNilError(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
}

func TestIsNotFound_ReturnsTrueForNotFoundErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrNotFound", ErrNotFound, true},
		{"ErrContextNotFound", ErrContextNotFound, true},
		{"ErrMailboxNotFound", ErrMailboxNotFound, true},
		{"ErrFolderNotFound", ErrFolderNotFound, true},
		{"ErrMessageNotFound", ErrMessageNotFound, true},
		{"wrapped ErrMailboxNotFound", fmt.Errorf("lookup: %w", ErrMailboxNotFound), true},
		{"ErrDuplicateEntry", ErrDuplicateEntry, false},
		{"random error", errors.New("random"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestGetErrorCode_ReturnsCorrectCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", ErrNotFound, CodeNotFound},
		{"mailbox not found", ErrMailboxNotFound, CodeNotFound},
		{"duplicate", ErrDuplicateEntry, CodeDuplicateEntry},
		{"constraint", ErrConstraintViolation, CodeConstraintViolation},
		{"invalid input", ErrInvalidInput, CodeInvalidInput},
		{"not persisted", ErrNotPersisted, CodeNotPersisted},
		{"notification", fmt.Errorf("new message: %w", ErrNotificationFailed), CodeNotificationFailed},
		{"unauthorized", ErrUnauthorized, CodeUnauthorized},
		{"app error code wins", NewAppError(ErrNotFound, "", CodeInvalidInput), CodeInvalidInput},
		{"unknown", errors.New("boom"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorCode(tt.err))
		})
	}
}
