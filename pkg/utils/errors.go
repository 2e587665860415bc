package utils

import (
	"fmt"
)

// ResponseCode HTTP-style error code carried across the service boundary
type ResponseCode int

const (
	CodeBadRequest   ResponseCode = 400
	CodeUnauthorized ResponseCode = 401
	CodeForbidden    ResponseCode = 403
	CodeNotFound     ResponseCode = 404
	CodeConflict     ResponseCode = 409
	CodeInternal     ResponseCode = 500
)

// AppError application error structure
type AppError struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Err     error        `json:"-"`
}

// Error implement error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code: %d, message: %s, error: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// Unwrap implement errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewError create new application error
func NewError(code ResponseCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithErr create application error with original error
func NewErrorWithErr(code ResponseCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Predefined errors
var (
	// Parameter errors
	ErrInvalidParam = NewError(CodeBadRequest, "invalid parameter")

	// User / seller related errors
	ErrUserNotFound   = NewError(CodeNotFound, "user not found")
	ErrSellerNotFound = NewError(CodeNotFound, "seller not found")

	// Service post related errors
	ErrPostNotFound    = NewError(CodeNotFound, "service post not found")
	ErrPackageNotFound = NewError(CodeNotFound, "package not found")

	// Message group related errors
	ErrGroupNotFound  = NewError(CodeNotFound, "message group not found")
	ErrMemberNotFound = NewError(CodeNotFound, "group member not found")
	ErrGroupExists    = NewError(CodeConflict, "you already have a conversation about this service")
	ErrOwnService     = NewError(CodeForbidden, "you cannot message your own service")
	ErrNotGroupOwner  = NewError(CodeForbidden, "only the group owner may do this")
	ErrNotMember      = NewError(CodeForbidden, "you are not a member of this group")

	// Order request related errors
	ErrRequestNotFound    = NewError(CodeNotFound, "order request not found")
	ErrRequestResolved    = NewError(CodeConflict, "this request has already been resolved")
	ErrRequestExpired     = NewError(CodeConflict, "this request has expired")
	ErrRequestPending     = NewError(CodeConflict, "you already have a pending request for this package")
	ErrMessageSellerFirst = NewError(CodeBadRequest, "you must message the seller before requesting an order")
	ErrNotYourRequest     = NewError(CodeForbidden, "you are not allowed to act on this request")

	// Order related errors
	ErrOrderNotFound   = NewError(CodeNotFound, "order not found")
	ErrOrderNotActive  = NewError(CodeConflict, "this order is no longer active")
	ErrCompletePending = NewError(CodeConflict, "a complete-order request is already pending for this order")

	// Notification related errors
	ErrNotificationNotFound = NewError(CodeNotFound, "notification not found")

	// System errors
	ErrInternalError = NewError(CodeInternal, "internal server error")
	ErrDatabaseError = NewError(CodeInternal, "database error")
)

// NewInsufficientFunds builds the insufficient-funds error, quoting the shortfall
func NewInsufficientFunds(shortfall int64) *AppError {
	return NewError(CodeBadRequest,
		fmt.Sprintf("insufficient funds: you are %s short of the total", FormatGBP(shortfall)))
}

// IsAppError check if it's an application error
func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok && appErr != nil {
		return appErr, true
	}
	return nil, false
}

// MapInternal passes AppErrors through and remaps anything else (raw store
// failures included) to a generic internal error. Returns the plain error
// interface so a nil result stays nil for callers.
func MapInternal(err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := IsAppError(err); ok {
		return appErr
	}
	return NewErrorWithErr(CodeInternal, "internal server error", err)
}

// GetErrorCode get error code
func GetErrorCode(err error) ResponseCode {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// UserMessage returns the message safe to render to the end user. Internal
// errors never leak storage details.
func UserMessage(err error) string {
	if appErr, ok := IsAppError(err); ok && appErr.Code != CodeInternal {
		return appErr.Message
	}
	return "something went wrong, try again later"
}
