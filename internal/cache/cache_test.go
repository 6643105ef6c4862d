package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "wealthwatch/internal/errors"
	"wealthwatch/internal/models"
)

// failingStore simulates an unreachable cache backend.
type failingStore struct{}

var errBackendDown = errors.New("connection refused")

func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errBackendDown
}
func (failingStore) Keys(context.Context, string) ([]string, error) { return nil, errBackendDown }
func (failingStore) Ping(context.Context) error                     { return errBackendDown }
func (failingStore) Close() error                                   { return nil }

func TestMemoryStore_ExpiresLazily(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "stock:AAPL", []byte("x"), 20*time.Millisecond))

	got, err := s.Get(ctx, "stock:AAPL")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)

	time.Sleep(30 * time.Millisecond)
	_, err = s.Get(ctx, "stock:AAPL")
	assert.ErrorIs(t, err, errs.ErrCacheMiss)
}

func TestMemoryStore_KeysMatchesPattern(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "stock:AAPL", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "stock:9988.HK", []byte("b"), time.Minute))
	require.NoError(t, s.Set(ctx, "fx:USD:JPY", []byte("c"), time.Minute))

	keys, err := s.Keys(ctx, "stock:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"stock:AAPL", "stock:9988.HK"}, keys)
}

func TestCache_QuoteRoundtrip(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	q := &models.Quote{
		Symbol:    "AAPL",
		Price:     185.92,
		Timestamp: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC),
		Volume:    1_000_000,
		MarketCap: 185_920_000,
		Source:    models.SourceLive,
	}
	c.SetQuote(ctx, q)

	got, ok := c.GetQuote(ctx, "AAPL")
	require.True(t, ok)
	assert.Equal(t, q, got)
}

func TestCache_RateRoundtrip(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	c.SetRate(ctx, "USD", "JPY", 148.15)

	rate, ok := c.GetRate(ctx, "USD", "JPY")
	require.True(t, ok)
	assert.InDelta(t, 148.15, rate, 1e-9)

	// The inverse direction has its own key.
	_, ok = c.GetRate(ctx, "JPY", "USD")
	assert.False(t, ok)
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute, zerolog.Nop())
	_, ok := c.GetQuote(context.Background(), "MSFT")
	assert.False(t, ok)
}

func TestCache_DegradesWhenBackendDown(t *testing.T) {
	c := New(failingStore{}, time.Minute, zerolog.Nop())
	ctx := context.Background()

	// Writes are discarded and reads are misses; nothing errors or panics.
	c.SetQuote(ctx, &models.Quote{Symbol: "AAPL", Price: 1})
	_, ok := c.GetQuote(ctx, "AAPL")
	assert.False(t, ok)

	c.SetRate(ctx, "USD", "JPY", 148.15)
	_, ok = c.GetRate(ctx, "USD", "JPY")
	assert.False(t, ok)

	assert.Empty(t, c.StockSymbols(ctx))
}

func TestCache_NilStoreDisablesCaching(t *testing.T) {
	c := New(nil, time.Minute, zerolog.Nop())
	ctx := context.Background()

	c.SetQuote(ctx, &models.Quote{Symbol: "AAPL", Price: 1})
	_, ok := c.GetQuote(ctx, "AAPL")
	assert.False(t, ok)
}

func TestCache_UnparseablePayloadIsMiss(t *testing.T) {
	store := NewMemoryStore()
	c := New(store, time.Minute, zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, QuoteKey("AAPL"), []byte("not json"), time.Minute))
	_, ok := c.GetQuote(ctx, "AAPL")
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, RateKey("USD", "JPY"), []byte("{"), time.Minute))
	_, ok = c.GetRate(ctx, "USD", "JPY")
	assert.False(t, ok)
}

func TestCache_StockSymbols(t *testing.T) {
	c := New(NewMemoryStore(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	c.SetQuote(ctx, &models.Quote{Symbol: "AAPL", Price: 1})
	c.SetQuote(ctx, &models.Quote{Symbol: "BTC-USD", Price: 2})
	c.SetRate(ctx, "USD", "JPY", 148.15)

	assert.ElementsMatch(t, []string{"AAPL", "BTC-USD"}, c.StockSymbols(ctx))
}

func TestKeyFormats(t *testing.T) {
	assert.Equal(t, "stock:AAPL", QuoteKey("AAPL"))
	assert.Equal(t, "fx:USD:HKD", RateKey("USD", "HKD"))
}
