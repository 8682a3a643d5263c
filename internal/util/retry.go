package util

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxLockRetries = 3
	baseLockDelay  = 100 * time.Millisecond
)

// RetryOnLock retries the given function if it fails with a database lock error
func RetryOnLock(ctx context.Context, logger *zap.SugaredLogger, operation func() error) error {
	_, err := RetryOnLockWithResult(ctx, logger, func() (struct{}, error) {
		return struct{}{}, operation()
	})
	return err
}

// RetryOnLockWithResult retries the given function if it fails with a database lock error
// and returns the result along with any error
func RetryOnLockWithResult[T any](ctx context.Context, logger *zap.SugaredLogger, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for i := 0; i < maxLockRetries; i++ {
		result, err = operation()
		if err == nil || !IsLockError(err) {
			return result, err
		}
		if i == maxLockRetries-1 {
			break
		}

		// 100ms, 200ms, ...
		delay := baseLockDelay * time.Duration(1<<i)
		logger.Debugw("database locked, retrying", "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}

	return result, err
}

// IsLockError reports whether err is SQLite's busy/locked error.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
