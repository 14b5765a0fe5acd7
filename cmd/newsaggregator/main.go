package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Lasikiewicz/news-aggregator/internal/app"
	"github.com/Lasikiewicz/news-aggregator/internal/config"
	"github.com/Lasikiewicz/news-aggregator/internal/domain"
	"github.com/Lasikiewicz/news-aggregator/internal/logging"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "newsaggregator",
		Short:         "newsaggregator: RSS ingestion with AI rewriting",
		Long:          "Reads configured feeds, filters and scrapes new items, rewrites them through an LLM and stores the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config (default $NEWS_AGGREGATOR_CONFIG)")

	root.AddCommand(
		runCmd(&configPath),
		serveCmd(&configPath),
		seedConfigCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once over every feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Run(ctx)
			if err != nil {
				return err
			}
			logger.Info("run complete",
				"run_id", report.RunID,
				"upserted", report.States[domain.StateUpserted],
				"sources_failed", report.SourcesFailed)
			return nil
		},
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on an interval and expose metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(ctx)
		},
	}
}

func seedConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-config",
		Short: "Write the configured feeds and prompts to the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logging)
			return app.SeedConfig(context.Background(), cfg, logger)
		},
	}
}
