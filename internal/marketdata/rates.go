package marketdata

import (
	"context"

	errs "wealthwatch/internal/errors"
	"wealthwatch/internal/models"
	"wealthwatch/pkg/retry"
)

// maxTriangulationDepth bounds recursive USD/BTC triangulation so
// pathological inputs fail fast instead of recursing.
const maxTriangulationDepth = 2

const (
	currencyUSD  = "USD"
	currencyBTC  = "BTC"
	btcUSDSymbol = "BTC-USD"
)

// ResolveRate resolves an exchange rate between two currency codes,
// trying strategies in strict priority order: identity, cache, BTC
// bridge, direct pair, USD triangulation, inverted reverse pair, static
// fallback table. Returns errs.ErrNoRate when every strategy fails.
// Any result past identity is cached under the pair's fx key.
func (s *Service) ResolveRate(ctx context.Context, base, quote string) (float64, error) {
	return s.resolveRate(ctx, base, quote, 0)
}

func (s *Service) resolveRate(ctx context.Context, base, quote string, depth int) (float64, error) {
	// Identity needs neither cache nor provider.
	if base == quote {
		return 1.0, nil
	}
	if depth > maxTriangulationDepth {
		return 0, errs.Wrapf(errs.ErrNoRate, "%s->%s: triangulation depth exceeded", base, quote)
	}

	if rate, ok := s.cache.GetRate(ctx, base, quote); ok {
		s.metrics.CacheHit(kindFX)
		return rate, nil
	}
	s.metrics.CacheMiss(kindFX)

	rate, err := s.resolveUncached(ctx, base, quote, depth)
	if err != nil {
		return 0, err
	}
	if rate <= 0 {
		return 0, errs.Wrapf(errs.ErrNoRate, "%s->%s: non-positive rate", base, quote)
	}
	s.cache.SetRate(ctx, base, quote, rate)
	return rate, nil
}

func (s *Service) resolveUncached(ctx context.Context, base, quote string, depth int) (float64, error) {
	// BTC has no direct FX pairs; bridge through the BTC-USD quote.
	if base == currencyBTC {
		return s.resolveFromBTC(ctx, quote, depth)
	}
	if quote == currencyBTC {
		return s.resolveToBTC(ctx, base, depth)
	}

	if rate, ok := s.pairPrice(ctx, base+quote+"=X"); ok {
		return rate, nil
	}

	if base != currencyUSD && quote != currencyUSD && depth < maxTriangulationDepth {
		baseUSD, errBase := s.resolveRate(ctx, base, currencyUSD, depth+1)
		usdQuote, errQuote := s.resolveRate(ctx, currencyUSD, quote, depth+1)
		if errBase == nil && errQuote == nil {
			s.log.Info().Str("base", base).Str("quote", quote).Msg("Direct pair unavailable, triangulated through USD")
			return baseUSD * usdQuote, nil
		}
	}

	if rate, ok := s.pairPrice(ctx, quote+base+"=X"); ok && rate > 0 {
		s.log.Info().Str("base", base).Str("quote", quote).Msg("Using inverted reverse pair")
		return 1 / rate, nil
	}

	if rate, ok := fallbackRate(base, quote); ok {
		s.log.Info().Str("base", base).Str("quote", quote).Float64("rate", rate).Msg("Using fallback rate")
		s.metrics.FallbackServedTotal.WithLabelValues(kindFX).Inc()
		return rate, nil
	}

	return 0, errs.Wrapf(errs.ErrNoRate, "%s->%s", base, quote)
}

// resolveFromBTC resolves BTC->quote via the BTC-USD price.
func (s *Service) resolveFromBTC(ctx context.Context, quote string, depth int) (float64, error) {
	btc, err := s.FetchQuote(ctx, btcUSDSymbol)
	if err != nil {
		return 0, errs.Wrapf(errs.ErrNoRate, "BTC->%s: no BTC-USD quote", quote)
	}
	if quote == currencyUSD {
		return btc.Price, nil
	}
	usdQuote, err := s.resolveRate(ctx, currencyUSD, quote, depth+1)
	if err != nil {
		return 0, err
	}
	return btc.Price * usdQuote, nil
}

// resolveToBTC resolves base->BTC by converting base to USD first, then
// dividing by the BTC-USD price.
func (s *Service) resolveToBTC(ctx context.Context, base string, depth int) (float64, error) {
	baseUSD := 1.0
	if base != currencyUSD {
		var err error
		baseUSD, err = s.resolveRate(ctx, base, currencyUSD, depth+1)
		if err != nil {
			return 0, err
		}
	}
	btc, err := s.FetchQuote(ctx, btcUSDSymbol)
	if err != nil || btc.Price <= 0 {
		return 0, errs.Wrapf(errs.ErrNoRate, "%s->BTC: no BTC-USD quote", base)
	}
	return baseUSD / btc.Price, nil
}

// pairPrice queries the feed for a synthetic FX ticker such as
// "USDJPY=X". A missing pair is a normal outcome, not an error.
func (s *Service) pairPrice(ctx context.Context, pair string) (float64, bool) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, false
	}
	q, err := retry.DoWithResult(ctx, s.retry, func() (*models.Quote, error) {
		return s.source.Quote(ctx, pair)
	})
	s.metrics.ProviderCall(err)
	if err != nil || q == nil || q.Price <= 0 {
		return 0, false
	}
	return q.Price, true
}
