package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorIsMatchesByCode(t *testing.T) {
	err := ErrCodeAlreadyClaimed.WithMessage("stamp code STP-123 already used")

	assert.True(t, Is(err, ErrCodeAlreadyClaimed))
	assert.False(t, Is(err, ErrCodeExpired))
	assert.Equal(t, "stamp code STP-123 already used", err.Error())
	assert.Equal(t, http.StatusConflict, err.StatusCode)
}

func TestAppErrorIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("redeem: %w", ErrNotEnoughStamps)

	assert.True(t, Is(wrapped, ErrNotEnoughStamps))

	var appErr *AppError
	assert.True(t, As(wrapped, &appErr))
	assert.Equal(t, CodeNotEnoughStamps, appErr.Code)
}

func TestBadRequestErrorsShareValidationCode(t *testing.T) {
	a := NewBadRequestError("value is required")
	b := NewBadRequestError("business id is malformed")

	assert.True(t, Is(a, b))
	assert.False(t, Is(a, ErrInvalidDelta))
}

func TestRetryable(t *testing.T) {
	assert.True(t, ErrContention.Retryable())
	assert.True(t, ErrTimeout.Retryable())
	assert.True(t, NewUnavailableError(New("redis down"), "Entitlement gate unavailable").Retryable())
	assert.False(t, ErrInvalidTransition.Retryable())
	assert.False(t, ErrQuotaExceeded.Retryable())
}
