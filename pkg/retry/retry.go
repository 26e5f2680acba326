package retry

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrorType 错误类型
type ErrorType int

const (
	TimeoutError   ErrorType = iota // 超时错误
	NetworkError                    // 网络错误
	ProtocolError                   // 协议错误
	RateLimitError                  // 限流错误
	InternalError                   // 内部错误
)

// RetryableError 可重试错误
type RetryableError struct {
	Type ErrorType
	Err  error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable 检查错误是否可重试
func (e *RetryableError) IsRetryable() bool {
	return e.Type == TimeoutError || e.Type == NetworkError || e.Type == RateLimitError
}

// Classify 给错误打上类型标签
func Classify(t ErrorType, err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Type: t, Err: err}
}

// RetryConfig 重试配置
type RetryConfig struct {
	MaxRetries        int           // 最大重试次数
	InitialDelay      time.Duration // 初始延迟
	MaxDelay          time.Duration // 最大延迟
	BackoffMultiplier float64       // 退避乘数

	// OnRetry 每次重试前回调, 可为 nil
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig 默认重试配置
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        2,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          1 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryableFunc 可重试函数类型
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// Retry 执行带重试的操作
func Retry[T any](ctx context.Context, fn RetryableFunc[T], config *RetryConfig) (T, error) {
	var zero T
	var lastErr error
	if config == nil {
		config = DefaultRetryConfig()
	}

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		if !isRetryableError(err) {
			return zero, err
		}
		lastErr = err

		if attempt < config.MaxRetries {
			if config.OnRetry != nil {
				config.OnRetry(attempt+1, err)
			}
			select {
			case <-time.After(calculateBackoffDelay(attempt, config)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, lastErr
}

// isRetryableError 只有显式标记为可重试的错误才重试
func isRetryableError(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.IsRetryable()
	}
	return false
}

// calculateBackoffDelay 计算退避延迟
func calculateBackoffDelay(attempt int, config *RetryConfig) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.BackoffMultiplier, float64(attempt)))
	if delay > config.MaxDelay {
		return config.MaxDelay
	}
	return delay
}

// WithExponentialBackoff 带指数退避的重试包装器
func WithExponentialBackoff[T any](fn RetryableFunc[T], config *RetryConfig) RetryableFunc[T] {
	return func(ctx context.Context) (T, error) {
		return Retry(ctx, fn, config)
	}
}
