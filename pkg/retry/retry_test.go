package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialDelay:      time.Millisecond,
		MaxDelay:          4 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestRetryRecoversFromNetworkError(t *testing.T) {
	calls := 0
	var retried []int
	cfg := fastConfig()
	cfg.OnRetry = func(attempt int, err error) { retried = append(retried, attempt) }

	got, err := Retry(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Classify(NetworkError, errors.New("connection refused"))
		}
		return "ok", nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	protoErr := Classify(ProtocolError, errors.New("bad json"))
	_, err := Retry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, protoErr
	}, fastConfig())

	assert.ErrorIs(t, err, protoErr)
	assert.Equal(t, 1, calls)

	calls = 0
	_, err = Retry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("plain")
	}, fastConfig())
	assert.EqualError(t, err, "plain")
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, Classify(TimeoutError, errors.New("timeout"))
	}, fastConfig())
	assert.EqualError(t, err, "timeout")
	assert.Equal(t, 4, calls)
}

func TestRetryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour
	cfg.OnRetry = func(int, error) { cancel() }

	_, err := Retry(ctx, func(ctx context.Context) (int, error) {
		return 0, Classify(NetworkError, errors.New("down"))
	}, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffIsCapped(t *testing.T) {
	cfg := fastConfig()
	assert.Equal(t, time.Millisecond, calculateBackoffDelay(0, cfg))
	assert.Equal(t, 2*time.Millisecond, calculateBackoffDelay(1, cfg))
	assert.Equal(t, 4*time.Millisecond, calculateBackoffDelay(5, cfg))
}
