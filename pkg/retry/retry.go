// Package retry 为外部调用提供有限次数的指数退避重试。
// 只重试被标记为 Transient 的错误，上游业务错误不会被重试。
package retry

import (
	"context"
	"errors"
	"time"
)

// TransientError 标记可重试的瞬时故障（网络抖动等）
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient 包装错误为瞬时故障
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Do 执行 operation，瞬时故障最多尝试 maxAttempts 次，间隔按 2 倍递增。
// 返回时 TransientError 包装已剥除，调用方拿到原始错误。
func Do(ctx context.Context, maxAttempts int, initialDelay time.Duration, operation func(ctx context.Context) error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := initialDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}

		if !IsTransient(err) {
			return err
		}
		lastErr = errors.Unwrap(err)

		if attempt == maxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delay):
		}
		delay *= 2
	}

	return lastErr
}
