package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"maintenance_backend/platform/config"
	"maintenance_backend/platform/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "maintenancectl",
	Short: "Operational commands for the maintenance backend",
	Long:  `maintenancectl applies database migrations and triggers lead-time activation sweeps outside the API.`,
	// No RunE - defaults to showing help when no subcommand is provided
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(enqueueSweepCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.New(cfg.Env), nil
}
