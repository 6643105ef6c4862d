package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wealthwatch/internal/models"
)

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL",
		Short: "Fetch the current price for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			q, err := app.Market.FetchQuote(ctx, args[0])
			if err != nil {
				return err
			}
			return app.output(cmd, q, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %.4f  (volume %d, market cap %.0f, %s, as of %s)\n",
					q.Symbol, q.Price, q.Volume, q.MarketCap, q.Source,
					q.Timestamp.Format(time.RFC3339))
			})
		},
	}
}

func newRateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rate BASE QUOTE",
		Short: "Resolve an exchange rate between two currency codes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			base := strings.ToUpper(args[0])
			quote := strings.ToUpper(args[1])
			rate, err := app.Market.ResolveRate(ctx, base, quote)
			if err != nil {
				return err
			}
			result := models.RateResult{Base: base, Quote: quote, Rate: rate, Timestamp: time.Now().UTC()}
			return app.output(cmd, result, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %.6f %s\n", base, rate, quote)
			})
		},
	}
}

func newVolatilityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "volatility SYMBOL",
		Short: "Assess a symbol's volatility across standard windows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
			defer cancel()

			report := app.Market.AssessVolatility(ctx, args[0])
			return app.output(cmd, report, func() {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s: volatile=%v ytd=%.2f%% mtd=%.2f%%\n",
					report.Symbol, report.IsVolatile, report.YTDReturnPct, report.MTDReturnPct)
				for _, w := range report.TriggeredWindows {
					fmt.Fprintf(out, "  %s moved %.2f%% (threshold %.1f%%)\n",
						w.Period, w.ChangePct, w.ThresholdPct)
				}
			})
		},
	}
}
