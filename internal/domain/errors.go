package domain

import (
	"errors"
	"fmt"

	"git.appkode.ru/pub/go/failure"

	"price_simulator/pkg/errcodes"
)

// AppError is a domain error carrying a machine readable code.
type AppError struct {
	Code    failure.ErrorCode
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewError creates a domain error without a cause.
func NewError(code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// WrapError attaches a code and message to err.
func WrapError(err error, code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in the chain.
func GetCode(err error) (failure.ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// StorageFailure wraps an error returned by the persistence layer. Such
// failures are transient: the simulator logs them and retries on its next tick.
func StorageFailure(err error, message string) *AppError {
	return WrapError(err, errcodes.StorageFailure, message)
}

// IsStorageFailure reports whether err originates from the persistence layer.
func IsStorageFailure(err error) bool {
	code, ok := GetCode(err)
	return ok && code == errcodes.StorageFailure
}
