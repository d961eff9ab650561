package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorCode string

const (
	ErrInternalServer     ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"

	// Pipeline failures
	ErrConfiguration   ErrorCode = "CONFIGURATION_ERROR"
	ErrProvider        ErrorCode = "PROVIDER_ERROR"
	ErrParse           ErrorCode = "PARSE_ERROR"
	ErrValidation      ErrorCode = "VALIDATION_ERROR"
	ErrUnknownAction   ErrorCode = "UNKNOWN_ACTION"
	ErrInvalidToken    ErrorCode = "INVALID_TOKEN"
	ErrTokenRedeemed   ErrorCode = "TOKEN_REDEEMED"
	ErrBookingRejected ErrorCode = "BOOKING_REJECTED"
)

// AppError is the error type returned across package boundaries.
// Message is safe to show to callers, Err is kept for logs only.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if stderrors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
