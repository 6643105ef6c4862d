package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MinDelay:    time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}
}

func TestDoWithResult_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoWithResult_ExhaustsAttempts(t *testing.T) {
	lastErr := errors.New("still broken")
	calls := 0
	_, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 0, lastErr
	})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, lastErr)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	cfg := Config{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MinDelay:    time.Second,
		MaxDelay:    time.Second,
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Do(ctx, cfg, func() error { return errors.New("fail") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestBackoff_ClampsToFloorAndCeiling(t *testing.T) {
	cfg := DefaultConfig()

	// 2^0 and 2^1 seconds are under the 4s floor.
	assert.Equal(t, 4*time.Second, cfg.Backoff(0))
	assert.Equal(t, 4*time.Second, cfg.Backoff(1))
	assert.Equal(t, 4*time.Second, cfg.Backoff(2))
	assert.Equal(t, 8*time.Second, cfg.Backoff(3))
	// 2^4 = 16s exceeds the 10s ceiling.
	assert.Equal(t, 10*time.Second, cfg.Backoff(4))
	assert.Equal(t, 10*time.Second, cfg.Backoff(10))
}

func TestDefaultConfig_TotalWaitBounds(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 3, cfg.MaxAttempts)

	// Two inter-attempt waits, each clamped to [4s, 10s].
	total := cfg.Backoff(0) + cfg.Backoff(1)
	assert.GreaterOrEqual(t, total, 4*time.Second)
	assert.LessOrEqual(t, total, 20*time.Second)
}
