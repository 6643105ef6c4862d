package marketdata

import (
	"context"

	"wealthwatch/internal/models"
)

// History periods understood by a Source.
const (
	PeriodDay        = "1d"
	PeriodWeek       = "5d"
	PeriodMonth      = "1mo"
	PeriodYearToDate = "ytd"
)

// Source abstracts the external market-data feed. Implementations query
// by symbol, or by synthetic FX-pair ticker strings such as "USDJPY=X",
// and return an error when the feed has no data.
type Source interface {
	// Quote returns the current quote for a symbol.
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	// History returns daily candles over one of the Period constants.
	History(ctx context.Context, symbol, period string) ([]models.Candle, error)
}
