// Package marketdata turns a rate-limited, occasionally failing
// external price feed into a dependable internal API for current
// prices, cross-currency exchange rates, and volatility assessments.
//
// Every resolution follows the same path: check the cache, then gate a
// provider call behind the shared rate limiter and the retry policy,
// fall back to static development data on total failure, and cache the
// result. A background scheduler re-warms entries already in use.
package marketdata

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"wealthwatch/internal/cache"
	errs "wealthwatch/internal/errors"
	"wealthwatch/internal/metrics"
	"wealthwatch/internal/models"
	"wealthwatch/internal/ratelimit"
	"wealthwatch/pkg/retry"
)

// Cache lookup kinds used in metrics labels.
const (
	kindStock      = "stock"
	kindFX         = "fx"
	kindVolatility = "volatility"
)

// Service is the market-data resolution layer. All state it shares
// (cache backend, rate limiter) is safe for concurrent use; callers
// need no external locking.
type Service struct {
	source  Source
	cache   *cache.Cache
	limiter ratelimit.Limiter
	retry   retry.Config
	metrics *metrics.Metrics
	log     zerolog.Logger

	// Coalesces concurrent misses for the same symbol into one
	// provider call. Best effort: a duplicate call on a race is
	// tolerable, a double cache write is not.
	group singleflight.Group
}

// NewService creates the market-data service with injected collaborators.
func NewService(source Source, c *cache.Cache, limiter ratelimit.Limiter, retryCfg retry.Config, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		source:  source,
		cache:   c,
		limiter: limiter,
		retry:   retryCfg,
		metrics: m,
		log:     logger,
	}
}

// FetchQuote returns the current quote for a symbol. Served from cache
// when fresh; otherwise fetched from the provider under the rate
// limiter and retry policy, degrading to the static fallback table.
// Returns errs.ErrNoData when neither the feed nor the fallback table
// has a price.
func (s *Service) FetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if q, ok := s.cache.GetQuote(ctx, symbol); ok {
		s.metrics.CacheHit(kindStock)
		return q, nil
	}
	s.metrics.CacheMiss(kindStock)

	v, err, _ := s.group.Do(cache.QuoteKey(symbol), func() (interface{}, error) {
		return s.fetchQuoteSlow(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Quote), nil
}

func (s *Service) fetchQuoteSlow(ctx context.Context, symbol string) (*models.Quote, error) {
	q, err := s.sourceQuote(ctx, symbol)
	if err != nil {
		fq, ok := fallbackQuote(symbol)
		if !ok {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to get price")
			return nil, errs.Wrapf(errs.ErrNoData, "quote %s", symbol)
		}
		s.log.Info().Str("symbol", symbol).Msg("Using fallback price")
		s.metrics.FallbackServedTotal.WithLabelValues(kindStock).Inc()
		q = fq
	}
	s.cache.SetQuote(ctx, q)
	return q, nil
}

// sourceQuote performs the gated provider call and normalizes the result.
func (s *Service) sourceQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	q, err := retry.DoWithResult(ctx, s.retry, func() (*models.Quote, error) {
		return s.source.Quote(ctx, symbol)
	})
	s.metrics.ProviderCall(err)
	if err != nil {
		return nil, err
	}
	if q == nil || q.Price <= 0 {
		return nil, errs.NewDataError("quote", symbol, "no price in response", nil)
	}
	out := *q
	if out.Volume == 0 {
		out.Volume = syntheticVolume
	}
	if out.MarketCap == 0 {
		out.MarketCap = out.Price * syntheticCapFactor
	}
	out.Source = models.SourceLive
	return &out, nil
}

// history performs a gated historical-closes call.
func (s *Service) history(ctx context.Context, symbol, period string) ([]models.Candle, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	candles, err := retry.DoWithResult(ctx, s.retry, func() ([]models.Candle, error) {
		return s.source.History(ctx, symbol, period)
	})
	s.metrics.ProviderCall(err)
	return candles, err
}

// CachedSymbols lists the symbols currently cached as stock entries.
func (s *Service) CachedSymbols(ctx context.Context) []string {
	return s.cache.StockSymbols(ctx)
}
