// Package cli provides the command-line interface for the market-data
// service.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wealthwatch/internal/cache"
	"wealthwatch/internal/config"
	"wealthwatch/internal/logging"
	"wealthwatch/internal/marketdata"
	"wealthwatch/internal/marketdata/yahoo"
	"wealthwatch/internal/metrics"
	"wealthwatch/internal/ratelimit"
	"wealthwatch/pkg/retry"
)

// Version information
const (
	Version = "0.1.0"
)

// requestTimeout bounds a single CLI request end to end. Generous
// enough to cover the worst-case retry/backoff path.
const requestTimeout = 45 * time.Second

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Store     cache.Store
	Market    *marketdata.Service
	Scheduler *marketdata.Scheduler
}

// NewRootCmd constructs the dependency graph and the root command.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Cache.Enabled {
		store := cache.NewRedisStore(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := store.Ping(pingCtx); err != nil {
			// Keep the store: the backend may come up later, and every
			// call degrades to a miss until it does.
			logger.Warn().Err(err).Str("addr", cfg.Cache.Addr).Msg("Cache backend unreachable, caching degraded")
		} else {
			logger.Debug().Str("addr", cfg.Cache.Addr).Msg("Cache backend connected")
		}
		cancel()
		app.Store = store
	} else {
		app.Store = cache.NewMemoryStore()
		logger.Debug().Msg("Cache backend disabled, using in-process store")
	}

	var limiter ratelimit.Limiter
	switch cfg.RateLimit.Strategy {
	case "bucket":
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.Rate, cfg.RateLimit.Burst)
	default:
		limiter = ratelimit.NewInterval(cfg.RateLimit.Interval)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	source := yahoo.NewClient(cfg.Provider.BaseURL, cfg.Provider.Timeout)
	dataCache := cache.New(app.Store, cfg.Cache.TTL, logging.WithComponent(logger, "cache"))

	app.Market = marketdata.NewService(
		source,
		dataCache,
		limiter,
		retry.DefaultConfig(),
		m,
		logging.WithComponent(logger, "marketdata"),
	)
	app.Scheduler = marketdata.NewScheduler(
		app.Market,
		cfg.Refresh.Interval,
		cfg.Refresh.Currencies,
		m,
		logging.WithComponent(logger, "scheduler"),
	)

	rootCmd := &cobra.Command{
		Use:   "wealthwatch",
		Short: "Market-data resolution service for the personal-finance backend",
		Long: `wealthwatch resolves current prices, cross-currency exchange rates,
and volatility assessments from rate-limited external market-data feeds,
with caching, retries, and static development fallbacks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/wealthwatch)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newQuoteCmd(app),
		newRateCmd(app),
		newVolatilityCmd(app),
		newWatchCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}

// output prints v as JSON when --json is set, else calls human.
func (app *App) output(cmd *cobra.Command, v interface{}, human func()) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	human()
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wealthwatch %s\n", Version)
		},
	}
}
