package errors

import (
	stderrors "errors"
	"net/http"
	"reflect"

	"github.com/sirupsen/logrus"
)

// Error codes for better client error handling
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeInvalidDelta          = "INVALID_DELTA"
	CodeNotFound              = "NOT_FOUND"
	CodeCodeNotFound          = "CODE_NOT_FOUND"
	CodeCodeAlreadyClaimed    = "CODE_ALREADY_CLAIMED"
	CodeCodeExpired           = "CODE_EXPIRED"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeNotEnoughStamps       = "NOT_ENOUGH_STAMPS"
	CodeQuotaExceeded         = "QUOTA_EXCEEDED"
	CodeInvalidQuota          = "INVALID_QUOTA"
	CodeRewardUnavailable     = "REWARD_UNAVAILABLE"
	CodeRewardAlreadyRedeemed = "REWARD_ALREADY_REDEEMED"
	CodeCampaignClosed        = "CAMPAIGN_CLOSED"
	CodeTicketExpired         = "TICKET_EXPIRED"
	CodeRedemptionExpired     = "REDEMPTION_EXPIRED"
	CodeContention            = "CONTENTION"
	CodeTimeout               = "TIMEOUT"
	CodeUnavailable           = "UNAVAILABLE"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInternal              = "INTERNAL"
)

type AppError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches any AppError carrying the same code, so sentinels below work
// with errors.Is regardless of the message a call site attached.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether a caller may retry the same request later.
func (e *AppError) Retryable() bool {
	switch e.Code {
	case CodeContention, CodeTimeout, CodeUnavailable:
		return true
	}
	return false
}

func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	return NewAppError(e.StatusCode, e.Code, message)
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeValidationFailed, message)
}

func NewUnauthorizedError(message ...string) *AppError {
	if len(message) > 0 {
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message[0])
	}
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func NewTooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

func NewInternalServerError(originalError error, message string) *AppError {
	logOriginal(originalError)
	return NewAppError(http.StatusInternalServerError, CodeInternal, message)
}

// NewUnavailableError marks a failure of an external dependency (storage,
// redis, entitlement gate) so callers can tell it apart from a rejection.
func NewUnavailableError(originalError error, message string) *AppError {
	logOriginal(originalError)
	return NewAppError(http.StatusServiceUnavailable, CodeUnavailable, message)
}

func logOriginal(err error) {
	if err == nil {
		return
	}
	logrus.Errorf("[%s] %s", reflect.TypeOf(err).String(), err)
}

var (
	ErrInvalidDelta          = NewAppError(http.StatusBadRequest, CodeInvalidDelta, "Card delta must keep total = available + used")
	ErrCodeNotFound          = NewAppError(http.StatusNotFound, CodeCodeNotFound, "Code not found")
	ErrCodeAlreadyClaimed    = NewAppError(http.StatusConflict, CodeCodeAlreadyClaimed, "Code already claimed")
	ErrCodeExpired           = NewAppError(http.StatusGone, CodeCodeExpired, "Code has expired")
	ErrInvalidTransition     = NewAppError(http.StatusConflict, CodeInvalidTransition, "Invalid status transition")
	ErrInsufficientBalance   = NewAppError(http.StatusUnprocessableEntity, CodeInsufficientBalance, "Insufficient balance")
	ErrNotEnoughStamps       = NewAppError(http.StatusUnprocessableEntity, CodeNotEnoughStamps, "Not enough stamps")
	ErrQuotaExceeded         = NewAppError(http.StatusForbidden, CodeQuotaExceeded, "Quota exceeded")
	ErrInvalidQuota          = NewAppError(http.StatusForbidden, CodeInvalidQuota, "Plan quota exhausted")
	ErrRewardUnavailable     = NewAppError(http.StatusUnprocessableEntity, CodeRewardUnavailable, "Reward is not available")
	ErrRewardAlreadyRedeemed = NewAppError(http.StatusConflict, CodeRewardAlreadyRedeemed, "Reward can only be redeemed once")
	ErrCampaignClosed        = NewAppError(http.StatusUnprocessableEntity, CodeCampaignClosed, "Campaign is closed")
	ErrTicketExpired         = NewAppError(http.StatusGone, CodeTicketExpired, "Scratch ticket has expired")
	ErrRedemptionExpired     = NewAppError(http.StatusGone, CodeRedemptionExpired, "Redemption has expired")
	ErrContention            = NewAppError(http.StatusConflict, CodeContention, "Too much contention, try again")
	ErrTimeout               = NewAppError(http.StatusGatewayTimeout, CodeTimeout, "Operation timed out")
	ErrUnavailable           = NewAppError(http.StatusServiceUnavailable, CodeUnavailable, "Service unavailable")
)

// Is and As forward to the standard library so callers importing this
// package as "errors" keep the usual helpers.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func New(message string) error {
	return stderrors.New(message)
}
