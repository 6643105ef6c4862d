package marketdata

import (
	"math"
	"time"

	"wealthwatch/internal/models"
)

// Synthetic estimates substituted when the feed has no volume or
// market-cap figure for a symbol.
const (
	syntheticVolume    = 1_000_000
	syntheticCapFactor = 1_000_000
)

// Development fallback prices served when the live feed has nothing.
var fallbackPrices = map[string]float64{
	"AAPL":    185.92,
	"9988.HK": 75.80,
	"BTC-USD": 42000.00,
}

// Development fallback rates, keyed by concatenated currency codes.
var fallbackRates = map[string]float64{
	"USDCNY": 7.20,
	"USDHKD": 7.82,
	"USDSGD": 1.34,
	"USDEUR": 0.92,
	"USDGBP": 0.79,
	"USDJPY": 148.15,
	"USDAUD": 1.52,
	"BTCUSD": 42000.00,
}

type volatilityFallback struct {
	YTD      float64
	MTD      float64
	Volatile bool
}

var fallbackVolatilities = map[string]volatilityFallback{
	"AAPL":    {YTD: 15.5, MTD: 5.2, Volatile: true},
	"9988.HK": {YTD: -8.3, MTD: -2.1, Volatile: true},
}

func fallbackQuote(symbol string) (*models.Quote, bool) {
	price, ok := fallbackPrices[symbol]
	if !ok {
		return nil, false
	}
	return &models.Quote{
		Symbol:    symbol,
		Price:     price,
		Timestamp: time.Now().UTC(),
		Volume:    syntheticVolume,
		MarketCap: price * syntheticCapFactor,
		Source:    models.SourceFallback,
	}, true
}

// fallbackRate looks up the forward key, else the reverse key inverted.
func fallbackRate(base, quote string) (float64, bool) {
	if rate, ok := fallbackRates[base+quote]; ok {
		return rate, true
	}
	if rate, ok := fallbackRates[quote+base]; ok && rate > 0 {
		return 1 / rate, true
	}
	return 0, false
}

func fallbackVolatilityReport(symbol string) (*models.VolatilityReport, bool) {
	fb, ok := fallbackVolatilities[symbol]
	if !ok {
		return nil, false
	}
	return &models.VolatilityReport{
		Symbol:       symbol,
		IsVolatile:   fb.Volatile,
		YTDReturnPct: fb.YTD,
		MTDReturnPct: fb.MTD,
		TriggeredWindows: []models.TriggeredWindow{
			{Period: PeriodDay, ChangePct: math.Abs(fb.MTD), ThresholdPct: 5.0},
		},
	}, true
}
