// Package models provides domain models for the market-data service.
package models

import (
	"time"
)

// QuoteSource identifies where a quote's data came from.
type QuoteSource string

const (
	SourceLive     QuoteSource = "live"
	SourceFallback QuoteSource = "fallback"
)

// Quote represents a point-in-time price for a symbol.
// Immutable once constructed; safe to hand to callers by value.
type Quote struct {
	Symbol    string      `json:"symbol"`
	Price     float64     `json:"price"`
	Timestamp time.Time   `json:"timestamp"`
	Volume    int64       `json:"volume"`
	MarketCap float64     `json:"market_cap"`
	Source    QuoteSource `json:"source"`
}

// RateResult represents a resolved exchange rate between two currency codes.
// Rate is always > 0.
type RateResult struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Rate      float64   `json:"rate"`
	Timestamp time.Time `json:"timestamp"`
}

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// VolatilityWindow is a lookback period with a fractional change threshold.
type VolatilityWindow struct {
	Period    string
	Threshold float64
}

// TriggeredWindow records a window whose price change exceeded its threshold.
// Percentages are expressed as 0-100 values.
type TriggeredWindow struct {
	Period       string  `json:"period"`
	ChangePct    float64 `json:"change_percentage"`
	ThresholdPct float64 `json:"threshold"`
}

// VolatilityReport is the result of a volatility assessment for a symbol.
// Built fresh per call and never cached.
type VolatilityReport struct {
	Symbol           string            `json:"symbol"`
	IsVolatile       bool              `json:"is_volatile"`
	YTDReturnPct     float64           `json:"ytd_return"`
	MTDReturnPct     float64           `json:"mtd_return"`
	TriggeredWindows []TriggeredWindow `json:"details,omitempty"`
}
