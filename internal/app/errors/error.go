package errors

import (
	"net/http"
	"reflect"

	"github.com/sirupsen/logrus"
)

// Stable error codes surfaced to callers alongside the HTTP status.
const (
	CodeNotFound                = "NOT_FOUND"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeNotActive               = "NOT_ACTIVE"
	CodeImmutableState          = "IMMUTABLE_STATE"
	CodeExpired                 = "EXPIRED"
	CodeInsufficientFunds       = "INSUFFICIENT_FUNDS"
	CodeMonthlyLimitExceeded    = "MONTHLY_LIMIT_EXCEEDED"
	CodeAlreadyAwarded          = "ALREADY_AWARDED"
	CodeCodeGenerationExhausted = "CODE_GENERATION_EXHAUSTED"
	CodeContended               = "CONTENDED"
	CodeRateLimited             = "RATE_LIMITED"
	CodeValidation              = "VALIDATION_ERROR"
	CodeInternal                = "INTERNAL_ERROR"
)

type AppError struct {
	StatusCode int
	Code       string
	Message    string
	// Details carries enough structured data (amounts, limits, current
	// status) for the caller to render an actionable message without
	// re-querying state.
	Details map[string]any
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NewValidationError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidation, message)
}

// NewBadRequestError reports a malformed request body or parameter.
func NewBadRequestError(message string) *AppError {
	return NewValidationError(message)
}

func NewUnauthorizedError(message ...string) *AppError {
	if len(message) > 0 {
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message[0])
	}
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

func NewNotActiveError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeNotActive, message)
}

func NewImmutableStateError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeImmutableState, message)
}

func NewExpiredError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeExpired, message)
}

func NewInsufficientFundsError(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeInsufficientFunds, message)
}

func NewMonthlyLimitExceededError(message string) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeMonthlyLimitExceeded, message)
}

func NewAlreadyAwardedError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeAlreadyAwarded, message)
}

func NewCodeGenerationExhaustedError(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, CodeCodeGenerationExhausted, message)
}

func NewContendedError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeContended, message)
}

func NewTooManyRequestsError(message string, limit int, resetAt int64) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message).WithDetails(map[string]any{
		"limit":    limit,
		"reset_at": resetAt,
	})
}

func NewInternalServerError(originalError error, message string) *AppError {
	logrus.Errorf("[%s] %s", reflect.TypeOf(originalError).String(), originalError)
	return NewAppError(http.StatusInternalServerError, CodeInternal, message)
}
