package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwanhae/kickoff/internal/api"
	"github.com/iwanhae/kickoff/internal/config"
	"github.com/iwanhae/kickoff/internal/metrics"
	"github.com/iwanhae/kickoff/internal/pipeline"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-stopCh
		fmt.Fprintln(os.Stderr, "Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kickoff",
		Short: "Football event ETL: API to bucket to warehouse to CSV",
		Long: `kickoff extracts football events from apifootball one day at a time, stages them
as newline-delimited JSON in a bucket, loads them into a DuckDB warehouse, runs the
configured query files into tables and exports each table as CSV.`,
		SilenceUsage: true,
	}
	config.RegisterFlags(cmd.PersistentFlags())
	cmd.AddCommand(newRunCmd(), newServeCmd())
	return cmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to initialize", zap.Error(err))
				return err
			}
			defer a.Close()

			if _, err := a.runner.Run(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pipeline.Success)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP trigger and run on the configured schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			metrics.Init()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				logger.Error("failed to initialize", zap.Error(err))
				return err
			}
			defer a.Close()

			server := api.New(ctx, a.runner, a.wh, cfg.ListenPort, logger)

			var scheduler *cron.Cron
			if cfg.Schedule != "" {
				scheduler, err = newScheduler(ctx, cfg.Schedule, a.runner, logger)
				if err != nil {
					return err
				}
				scheduler.Start()
			}

			eg, ctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})
			eg.Go(func() error {
				<-ctx.Done()
				if scheduler != nil {
					<-scheduler.Stop().Done()
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			if err := eg.Wait(); err != nil {
				logger.Error("serve stopped with error", zap.Error(err))
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}

// newScheduler registers one pipeline run per tick of schedule. Ticks that fire while a run
// is active are skipped.
func newScheduler(ctx context.Context, schedule string, runner *pipeline.Runner, logger *zap.Logger) (*cron.Cron, error) {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger.Named("cron")))
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger)))
	_, err := c.AddFunc(schedule, func() {
		_, err := runner.Run(ctx)
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			logger.Info("scheduled run skipped, another run is active")
		case err != nil:
			logger.Error("scheduled run failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	logger.Info("scheduled runs enabled", zap.String("schedule", schedule))
	return c, nil
}

func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("loaded configuration",
		zap.String("start_date", cfg.StartDate),
		zap.String("end_date", cfg.EndDate),
		zap.String("store", cfg.Store),
		zap.String("bucket", cfg.Bucket),
		zap.String("dataset", cfg.Dataset),
		zap.String("warehouse_path", cfg.WarehousePath),
		zap.Strings("query_files", cfg.QueryFiles),
		zap.Int("workers", cfg.Workers))
	return cfg, logger, nil
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
