package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"vdt.ai/dashboard/core/db"
	"vdt.ai/dashboard/internal/seed"
	"vdt.ai/dashboard/internal/service"
)

var seedProjects int

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo organization with fake projects",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, telemetry, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer shutdownTelemetry(telemetry)

		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()

		demo, err := seedDemo(ctx, service.NewTxRunner(database), seedProjects)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(demo)
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedProjects, "projects", seed.DefaultDemoProjects, "number of projects to create")
}

func seedDemo(ctx context.Context, tx service.TxRunner, n int) (*seed.Demo, error) {
	demo, err := seed.InitDemo(ctx, tx, n)
	if err != nil {
		return nil, fmt.Errorf("seed demo data: %w", err)
	}
	return demo, nil
}
