// Package cache provides a TTL key-value cache for market data.
//
// The cache is backed by an external key-value store. If the backend is
// unreachable at startup or at any call, caching degrades to a no-op:
// every Get is a miss and every Set is discarded. Degradation is logged
// but never surfaced as an error, so market-data serving keeps working
// with the cache disabled.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	errs "wealthwatch/internal/errors"
	"wealthwatch/internal/models"
)

// Key prefixes are part of the external contract, observable in the backend.
const (
	quoteKeyPrefix = "stock:"
	rateKeyPrefix  = "fx:"
)

// Store is a key-value backend with per-entry TTL.
type Store interface {
	// Get returns the value for key, or errs.ErrCacheMiss if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Keys returns all live keys matching a glob pattern such as "stock:*".
	Keys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// QuoteKey returns the cache key for a symbol's quote.
func QuoteKey(symbol string) string {
	return quoteKeyPrefix + symbol
}

// RateKey returns the cache key for an exchange-rate pair.
func RateKey(base, quote string) string {
	return rateKeyPrefix + base + ":" + quote
}

// Cache is a typed facade over a Store. Values are serialized as JSON;
// payloads that fail to parse are treated as misses.
type Cache struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

// New creates a cache over the given store. A nil store disables caching.
func New(store Store, ttl time.Duration, logger zerolog.Logger) *Cache {
	return &Cache{store: store, ttl: ttl, log: logger}
}

// TTL returns the fixed entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// GetQuote returns the cached quote for symbol, if present.
func (c *Cache) GetQuote(ctx context.Context, symbol string) (*models.Quote, bool) {
	data, ok := c.get(ctx, QuoteKey(symbol))
	if !ok {
		return nil, false
	}
	var q models.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Discarding unparseable cached quote")
		return nil, false
	}
	return &q, true
}

// SetQuote stores a quote under the symbol's key.
func (c *Cache) SetQuote(ctx context.Context, q *models.Quote) {
	data, err := json.Marshal(q)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", q.Symbol).Msg("Failed to marshal quote for cache")
		return
	}
	c.set(ctx, QuoteKey(q.Symbol), data)
}

// GetRate returns the cached exchange rate for base/quote, if present.
func (c *Cache) GetRate(ctx context.Context, base, quote string) (float64, bool) {
	data, ok := c.get(ctx, RateKey(base, quote))
	if !ok {
		return 0, false
	}
	var r models.RateResult
	if err := json.Unmarshal(data, &r); err != nil {
		c.log.Warn().Err(err).Str("base", base).Str("quote", quote).Msg("Discarding unparseable cached rate")
		return 0, false
	}
	if r.Rate <= 0 {
		return 0, false
	}
	return r.Rate, true
}

// SetRate stores a resolved exchange rate under the pair's key.
func (c *Cache) SetRate(ctx context.Context, base, quote string, rate float64) {
	r := models.RateResult{Base: base, Quote: quote, Rate: rate, Timestamp: time.Now().UTC()}
	data, err := json.Marshal(r)
	if err != nil {
		c.log.Warn().Err(err).Str("base", base).Str("quote", quote).Msg("Failed to marshal rate for cache")
		return
	}
	c.set(ctx, RateKey(base, quote), data)
}

// StockSymbols returns the symbols currently cached under stock keys.
func (c *Cache) StockSymbols(ctx context.Context) []string {
	if c.store == nil {
		return nil
	}
	keys, err := c.store.Keys(ctx, quoteKeyPrefix+"*")
	if err != nil {
		c.log.Warn().Err(err).Msg("Cache backend unavailable, skipping key scan")
		return nil
	}
	symbols := make([]string, 0, len(keys))
	for _, k := range keys {
		symbols = append(symbols, strings.TrimPrefix(k, quoteKeyPrefix))
	}
	return symbols
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errs.Is(err, errs.ErrCacheMiss) {
			c.log.Warn().Err(err).Str("key", key).Msg("Cache backend unavailable, treating as miss")
		}
		return nil, false
	}
	return data, true
}

func (c *Cache) set(ctx context.Context, key string, data []byte) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache backend unavailable, discarding write")
	}
}
