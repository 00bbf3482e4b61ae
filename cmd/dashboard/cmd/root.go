package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vdt.ai/dashboard/common/id"
	"vdt.ai/dashboard/common/logger"
	"vdt.ai/dashboard/common/otel"
	"vdt.ai/dashboard/core/config"
)

var rootCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Dashboard API server",
	Long: `dashboard serves the procedure API behind the web dashboard:
health checks, the caller's identity, and project listing and creation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// bootstrap loads config and brings up telemetry, logging and the id
// generator. The returned Telemetry is nil when OTel is disabled.
func bootstrap(ctx context.Context) (config.Config, *otel.Telemetry, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("initialize otel: %w", err)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.DebugContext(ctx, "otel disabled (no endpoint configured)")
	}

	if err := id.Init(cfg.NodeID); err != nil {
		shutdownTelemetry(telemetry)
		return config.Config{}, nil, fmt.Errorf("initialize snowflake id generator: %w", err)
	}

	return cfg, telemetry, nil
}

// shutdownTelemetry flushes exporters with its own deadline so it still runs
// after the command context is cancelled. Safe to call with nil.
func shutdownTelemetry(telemetry *otel.Telemetry) {
	if telemetry == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := telemetry.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "otel shutdown error", "error", err)
	}
}
