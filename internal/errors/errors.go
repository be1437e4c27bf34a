// Package errors provides custom error types for the fund accounting engine.
// All service-layer errors use AppError so callers receive a stable error code
// and a human-readable message without leaking internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General error kinds. Every engine error belongs to one of these families:
// validation (bad input), not found, state conflict (invalid lifecycle
// transition), or consistency (an atomic multi-row operation could not commit).
var (
	ErrValidation     = &AppError{Code: "VALIDATION_ERROR", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrStateConflict  = &AppError{Code: "STATE_CONFLICT", Message: "Operation not allowed in the current state", StatusCode: http.StatusConflict}
	ErrConsistency    = &AppError{Code: "CONSISTENCY_ERROR", Message: "Operation could not be completed atomically", StatusCode: http.StatusInternalServerError}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Fund errors.
var (
	ErrFundNotFound       = &AppError{Code: "FUND_NOT_FOUND", Message: "Fund not found", StatusCode: http.StatusNotFound}
	ErrFundClosed         = &AppError{Code: "FUND_CLOSED", Message: "Fund is closed", StatusCode: http.StatusConflict}
	ErrDuplicateFundCode  = &AppError{Code: "DUPLICATE_FUND_CODE", Message: "A fund with this code already exists", StatusCode: http.StatusConflict}
	ErrShareClassNotFound = &AppError{Code: "SHARE_CLASS_NOT_FOUND", Message: "Share class not found", StatusCode: http.StatusNotFound}
)

// NAV errors.
var (
	ErrNAVNotFound   = &AppError{Code: "NAV_NOT_FOUND", Message: "NAV calculation not found", StatusCode: http.StatusNotFound}
	ErrNoApprovedNAV = &AppError{Code: "NO_APPROVED_NAV", Message: "No approved NAV calculation exists for this fund", StatusCode: http.StatusNotFound}
)

// Capital account errors.
var (
	ErrAccountNotFound    = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Capital account not found", StatusCode: http.StatusNotFound}
	ErrAccountClosed      = &AppError{Code: "ACCOUNT_CLOSED", Message: "Capital account is closed", StatusCode: http.StatusConflict}
	ErrInsufficientShares = &AppError{Code: "INSUFFICIENT_SHARES", Message: "Insufficient shares for this redemption", StatusCode: http.StatusBadRequest}
)

// Redemption errors.
var (
	ErrRedemptionNotFound = &AppError{Code: "REDEMPTION_NOT_FOUND", Message: "Redemption request not found", StatusCode: http.StatusNotFound}
)
