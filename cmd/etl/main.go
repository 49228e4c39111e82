package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/traffic-weather-etl/internal/adapter/http"
	"github.com/couchcryptid/traffic-weather-etl/internal/config"
	"github.com/couchcryptid/traffic-weather-etl/internal/domain"
	"github.com/couchcryptid/traffic-weather-etl/internal/export"
	"github.com/couchcryptid/traffic-weather-etl/internal/observability"
	"github.com/couchcryptid/traffic-weather-etl/internal/scheduler"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("etl failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "etl",
		Short:         "Load monthly NYC traffic and weather summaries into SQLite",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runOnce,
	}
	root.AddCommand(newEnrichCmd(), newServeCmd())
	return root
}

// runOnce downloads, shapes, and persists both datasets, then exits.
func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer a.close()

	runErr := a.pipeline.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, prometheus.DefaultGatherer); err != nil {
			logger.Error("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	return runErr
}

func newEnrichCmd() *cobra.Command {
	var season string
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Print the month-joined traffic and weather table as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := domain.Season(season)
			if filter != "" && !filter.Valid() {
				return fmt.Errorf("invalid --season %q: want Winter, Spring, Summer or Fall", season)
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger, observability.NewMetricsWithRegistry(prometheus.NewRegistry()))
			if err != nil {
				return err
			}
			defer a.close()

			rows, err := a.pipeline.Enrich(cmd.Context())
			if err != nil {
				return err
			}
			return export.WriteCSV(cmd.OutOrStdout(), domain.FilterSeason(rows, filter))
		},
	}
	cmd.Flags().StringVar(&season, "season", "", "only print months of this season")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the enriched table over HTTP and refresh it on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := newApp(cfg, logger, observability.NewMetrics())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := httpadapter.NewServer(cfg.HTTPAddr, readiness{a.pipeline, a.store}, a.pipeline, logger)
	sched := scheduler.New(a.pipeline, cfg.RefreshInterval, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start refresh schedule; the first run fires immediately.
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	sched.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, observability.NewLogger(cfg), nil
}
