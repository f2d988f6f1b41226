package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/safatanc/loyalty-core/internal/app/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastPolicy = RetryPolicy{MaxAttempts: 4, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond}

func TestRetrySucceedsAfterConflicts(t *testing.T) {
	calls := 0
	var conflicts []uint

	got, err := Retry(context.Background(), fastPolicy, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, ErrConflict
		}
		return 42, nil
	}, func(attempt uint) { conflicts = append(conflicts, attempt) })

	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []uint{1, 2}, conflicts)
}

func TestRetryExhaustionIsContention(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy, func() (struct{}, error) {
		calls++
		return struct{}{}, ErrConflict
	}, nil)

	assert.ErrorIs(t, err, errors.ErrContention)
	assert.Equal(t, 4, calls)
}

func TestRetryDoesNotRetryBusinessErrors(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy, func() (struct{}, error) {
		calls++
		return struct{}{}, errors.ErrInsufficientBalance
	}, nil)

	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
	assert.Equal(t, 1, calls)
}

func TestRetryDeadlineIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	slow := RetryPolicy{MaxAttempts: 1000, InitialInterval: 10 * time.Millisecond, MaxInterval: 10 * time.Millisecond}
	_, err := Retry(ctx, slow, func() (struct{}, error) {
		return struct{}{}, ErrConflict
	}, nil)

	assert.ErrorIs(t, err, errors.ErrTimeout)
}

func TestRetryCancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, fastPolicy, func() (struct{}, error) {
		calls++
		return struct{}{}, nil
	}, nil)

	assert.ErrorIs(t, err, errors.ErrTimeout)
	assert.Zero(t, calls)
}
