package main

import (
	"fmt"

	"maintenance_backend/platform/db"

	"github.com/spf13/cobra"
)

var migrationStatusOnly bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrationStatusOnly, "status", false, "print migration status without applying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if !migrationStatusOnly {
		if err := db.RunMigrations(ctx, cfg, cfg.GetMigrationsDir()); err != nil {
			return err
		}
		log.Info("database migrations complete")
	}

	lines, err := db.MigrationStatus(ctx, cfg)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
