package util

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRetryOnLock(t *testing.T) {
	logger := zap.NewNop().Sugar()
	ctx := context.Background()

	t.Run("SucceedsAfterLock", func(t *testing.T) {
		attempts := 0
		err := RetryOnLock(ctx, logger, func() error {
			attempts++
			if attempts < 2 {
				return errors.New("database is locked")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("OtherErrorsReturnImmediately", func(t *testing.T) {
		attempts := 0
		err := RetryOnLock(ctx, logger, func() error {
			attempts++
			return errors.New("no such table")
		})
		assert.EqualError(t, err, "no such table")
		assert.Equal(t, 1, attempts)
	})

	t.Run("GivesUp", func(t *testing.T) {
		attempts := 0
		err := RetryOnLock(ctx, logger, func() error {
			attempts++
			return errors.New("database is locked")
		})
		assert.True(t, IsLockError(err))
		assert.Equal(t, maxLockRetries, attempts)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryOnLock(cancelled, logger, func() error {
			return errors.New("database is locked")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryOnLockWithResult(t *testing.T) {
	attempts := 0
	n, err := RetryOnLockWithResult(context.Background(), zap.NewNop().Sugar(), func() (int, error) {
		attempts++
		if attempts == 1 {
			return 0, errors.New("database table is locked")
		}
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, n)
}
