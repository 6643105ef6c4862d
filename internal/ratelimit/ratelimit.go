// Package ratelimit gates outbound calls to the external market-data
// provider. One limiter instance is shared process-wide: all provider
// calls, regardless of symbol or currency pair, pass through the same
// slot. Staying under the provider's anti-abuse thresholds matters more
// than throughput here, so contention is first-come-first-served.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter blocks a caller until an outbound call is allowed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Interval enforces a minimum spacing between successive calls.
type Interval struct {
	every time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewInterval creates a limiter that allows one call every d.
func NewInterval(d time.Duration) *Interval {
	return &Interval{every: d}
}

// Wait blocks until at least the configured interval has elapsed since
// the previous caller's slot, or until ctx is canceled. Each caller
// reserves the next free slot, so concurrent waiters are serialized.
func (l *Interval) Wait(ctx context.Context) error {
	if l.every <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	slot := l.next
	if slot.Before(now) {
		slot = now
	}
	l.next = slot.Add(l.every)
	l.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TokenBucket allows bursts up to a capacity while sustaining a fixed
// refill rate in tokens per second.
type TokenBucket struct {
	rate     float64
	capacity float64

	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a bucket limiter. The bucket starts full so an
// initial burst is allowed.
func NewTokenBucket(tokensPerSecond float64, burst int) *TokenBucket {
	if tokensPerSecond <= 0 {
		tokensPerSecond = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:     tokensPerSecond,
		capacity: float64(burst),
		tokens:   float64(burst),
		last:     time.Now(),
	}
}

// Wait blocks until one token is available or ctx is canceled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(tb.last).Seconds()
		if elapsed > 0 {
			tb.tokens += elapsed * tb.rate
			if tb.tokens > tb.capacity {
				tb.tokens = tb.capacity
			}
			tb.last = now
		}
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		deficit := 1 - tb.tokens
		tb.mu.Unlock()

		wait := time.Duration(deficit / tb.rate * float64(time.Second))
		if wait <= 0 {
			wait = time.Millisecond
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
