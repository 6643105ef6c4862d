package marketdata

import (
	"context"
	"math"

	"wealthwatch/internal/models"
)

// Windows evaluated on every assessment: a 1-day move over 5%, a 5-day
// move over 10%, or a 1-month move over 20% flags the symbol volatile.
var volatilityWindows = []models.VolatilityWindow{
	{Period: PeriodDay, Threshold: 0.05},
	{Period: PeriodWeek, Threshold: 0.10},
	{Period: PeriodMonth, Threshold: 0.20},
}

// AssessVolatility computes YTD/MTD returns and flags abrupt moves
// across the configured windows. It never fails: on total source
// failure it degrades to the static fallback table, or to an empty
// non-volatile report when the symbol has no fallback entry. Reports
// are recomputed fresh on every call, never cached.
func (s *Service) AssessVolatility(ctx context.Context, symbol string) *models.VolatilityReport {
	report := &models.VolatilityReport{Symbol: symbol}

	ytd, err := s.history(ctx, symbol, PeriodYearToDate)
	if err != nil {
		return s.degradedReport(symbol, err)
	}
	if len(ytd) > 0 {
		report.YTDReturnPct = pctReturn(ytd[0].Close, ytd[len(ytd)-1].Close)
		s.log.Debug().Str("symbol", symbol).Float64("ytd_return", report.YTDReturnPct).Msg("YTD return computed")
	}

	month, err := s.history(ctx, symbol, PeriodMonth)
	if err != nil {
		return s.degradedReport(symbol, err)
	}
	if len(month) > 0 {
		report.MTDReturnPct = pctReturn(month[0].Close, month[len(month)-1].Close)
	}

	for _, w := range volatilityWindows {
		hist, err := s.history(ctx, symbol, w.Period)
		if err != nil {
			return s.degradedReport(symbol, err)
		}
		if len(hist) < 2 {
			continue
		}
		start, end := hist[0].Close, hist[len(hist)-1].Close
		if start == 0 {
			continue
		}
		change := math.Abs(end-start) / start
		if change > w.Threshold {
			report.IsVolatile = true
			report.TriggeredWindows = append(report.TriggeredWindows, models.TriggeredWindow{
				Period:       w.Period,
				ChangePct:    change * 100,
				ThresholdPct: w.Threshold * 100,
			})
			s.log.Warn().
				Str("symbol", symbol).
				Str("period", w.Period).
				Float64("change_pct", change*100).
				Msg("Volatility detected")
		}
	}

	return report
}

func (s *Service) degradedReport(symbol string, cause error) *models.VolatilityReport {
	s.log.Error().Err(cause).Str("symbol", symbol).Msg("Volatility source failed, serving degraded report")
	if report, ok := fallbackVolatilityReport(symbol); ok {
		s.metrics.FallbackServedTotal.WithLabelValues(kindVolatility).Inc()
		return report
	}
	return &models.VolatilityReport{Symbol: symbol}
}

func pctReturn(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}
