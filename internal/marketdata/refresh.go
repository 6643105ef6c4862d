package marketdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"wealthwatch/internal/metrics"
)

// Scheduler periodically re-warms cache entries already in use, keeping
// hot entries fresh without caller-triggered latency. One scheduler runs
// per process, concurrently with request-serving call paths.
type Scheduler struct {
	svc        *Service
	interval   time.Duration
	currencies []string
	metrics    *metrics.Metrics
	log        zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a refresh scheduler over the supported-currency
// list. It does not start until Start is called.
func NewScheduler(svc *Service, interval time.Duration, currencies []string, m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		svc:        svc,
		interval:   interval,
		currencies: currencies,
		metrics:    m,
		log:        logger,
	}
}

// Start launches the background refresh loop. Calling Start on a
// running scheduler is a no-op.
func (s *Scheduler) Start() {
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
	s.log.Info().Dur("interval", s.interval).Msg("Background refresh scheduler started")
}

// Stop terminates the loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.log.Info().Msg("Background refresh scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}

// RefreshAll performs one sweep: it re-resolves every ordered pair of
// supported currencies (identity pairs excluded) and re-fetches every
// symbol currently present as a stock key in the cache. Individual
// failures are logged and do not abort the remaining work.
func (s *Scheduler) RefreshAll(ctx context.Context) {
	start := time.Now()
	s.log.Info().Msg("Starting background price update")

	pairs := 0
	for _, base := range s.currencies {
		for _, quote := range s.currencies {
			if base == quote {
				continue
			}
			if _, err := s.svc.ResolveRate(ctx, base, quote); err != nil {
				s.metrics.RefreshFailuresTotal.Inc()
				s.log.Warn().Err(err).Str("base", base).Str("quote", quote).Msg("Rate refresh failed")
				continue
			}
			pairs++
			s.metrics.RefreshedEntriesTotal.WithLabelValues(kindFX).Inc()
		}
	}

	stocks := 0
	for _, symbol := range s.svc.CachedSymbols(ctx) {
		if _, err := s.svc.FetchQuote(ctx, symbol); err != nil {
			s.metrics.RefreshFailuresTotal.Inc()
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote refresh failed")
			continue
		}
		stocks++
		s.metrics.RefreshedEntriesTotal.WithLabelValues(kindStock).Inc()
	}

	elapsed := time.Since(start)
	s.metrics.RefreshDuration.Observe(elapsed.Seconds())
	s.log.Info().
		Dur("elapsed", elapsed).
		Int("currency_pairs", pairs).
		Int("stocks", stocks).
		Msg("Background update completed")
}
