package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	var warm bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the background refresh scheduler",
		Long: `Runs the periodic cache refresh loop, re-resolving every supported
currency pair and every cached stock symbol on each tick. Exposes
Prometheus metrics when enabled in config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var metricsSrv *http.Server
			if app.Config.Metrics.Enabled {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				metricsSrv = &http.Server{Addr: app.Config.Metrics.Addr, Handler: mux}
				go func() {
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						app.Logger.Error().Err(err).Msg("Metrics server failed")
					}
				}()
				app.Logger.Info().Str("addr", app.Config.Metrics.Addr).Msg("Metrics endpoint listening")
			}

			if warm {
				warmCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
				app.Scheduler.RefreshAll(warmCtx)
				cancel()
			}
			app.Scheduler.Start()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			app.Logger.Info().Msg("Shutting down")

			app.Scheduler.Stop()
			if metricsSrv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = metricsSrv.Shutdown(shutdownCtx)
				cancel()
			}
			return app.Store.Close()
		},
	}

	cmd.Flags().BoolVar(&warm, "warm", false, "run one refresh sweep before starting the loop")
	return cmd
}
