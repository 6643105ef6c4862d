package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterval_EnforcesSpacing(t *testing.T) {
	l := NewInterval(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestInterval_SerializesConcurrentWaiters(t *testing.T) {
	l := NewInterval(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Wait(ctx)
		}()
	}
	wg.Wait()

	// First caller is immediate; the next two each wait a full slot.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestInterval_ZeroIsNoOp(t *testing.T) {
	l := NewInterval(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestInterval_ContextCancel(t *testing.T) {
	l := NewInterval(time.Second)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTokenBucket_AllowsInitialBurst(t *testing.T) {
	tb := NewTokenBucket(1, 3)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, tb.Wait(ctx))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestTokenBucket_BlocksWhenEmpty(t *testing.T) {
	tb := NewTokenBucket(50, 1)
	ctx := context.Background()

	require.NoError(t, tb.Wait(ctx))
	start := time.Now()
	require.NoError(t, tb.Wait(ctx))
	// One token at 50/s takes ~20ms to refill.
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestTokenBucket_ContextCancel(t *testing.T) {
	tb := NewTokenBucket(0.001, 1)
	require.NoError(t, tb.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := tb.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
