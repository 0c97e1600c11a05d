package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Registry and scheduling error codes
const (
	ErrInvalidCode ErrorCode = iota + 2000
	ErrCodeCollision
	ErrNoEffectiveRevision
	ErrInvalidParentScope
	ErrInvalidEffectiveDate
	ErrRoomsNotSupported
	ErrRoomRequired
	ErrRoomForbidden
	ErrInvalidTimeWindow
	ErrPreconditionNotMet
	ErrInvalidTransition
	ErrSchedulingConflict
	ErrInvalidGateMode
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func InvalidCode(message string) *AppError {
	return &AppError{Code: ErrInvalidCode, Message: message}
}

func CodeCollision(message string) *AppError {
	return &AppError{Code: ErrCodeCollision, Message: message}
}

func NoEffectiveRevision(message string) *AppError {
	return &AppError{Code: ErrNoEffectiveRevision, Message: message}
}

func InvalidParentScope(message string) *AppError {
	return &AppError{Code: ErrInvalidParentScope, Message: message}
}

func InvalidEffectiveDate(message string) *AppError {
	return &AppError{Code: ErrInvalidEffectiveDate, Message: message}
}

func RoomsNotSupported(message string) *AppError {
	return &AppError{Code: ErrRoomsNotSupported, Message: message}
}

func RoomRequired(message string) *AppError {
	return &AppError{Code: ErrRoomRequired, Message: message}
}

func RoomForbidden(message string) *AppError {
	return &AppError{Code: ErrRoomForbidden, Message: message}
}

func InvalidTimeWindow(message string) *AppError {
	return &AppError{Code: ErrInvalidTimeWindow, Message: message}
}

func PreconditionNotMet(message string) *AppError {
	return &AppError{Code: ErrPreconditionNotMet, Message: message}
}

func InvalidTransition(message string) *AppError {
	return &AppError{Code: ErrInvalidTransition, Message: message}
}

func SchedulingConflict(message string) *AppError {
	return &AppError{Code: ErrSchedulingConflict, Message: message}
}

func InvalidGateMode(message string) *AppError {
	return &AppError{Code: ErrInvalidGateMode, Message: message}
}

// AsAppError unwraps err to the AppError it carries, if any.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns ErrInternal when err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
