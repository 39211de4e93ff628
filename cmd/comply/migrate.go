package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/fund-compliance/internal/cli"
	"github.com/Veraticus/fund-compliance/internal/common"
	"github.com/Veraticus/fund-compliance/internal/config"
	"github.com/Veraticus/fund-compliance/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite position database",
		Long: `Initialize or update the funds and positions schema of the configured
SQLite database. PostgreSQL schemas are managed outside comply.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	db, err := config.LoadDatabase(viper.GetViper())
	if err != nil {
		return common.NewUserError("Invalid database configuration", err)
	}
	if db.Driver != config.DriverSQLite {
		return common.NewUserError("migrate only supports the sqlite driver", common.ErrUnsupportedDriver)
	}

	slog.Info("Opening position database", "database", db.Path, "status_only", status)

	store, err := storage.NewSQLiteStorage(db.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Fprintln(out, cli.FormatTitle("Database Migration Status"))
		fmt.Fprintf(out, "Database:        %s\n", db.Path)
		fmt.Fprintf(out, "Current version: %d\n", current)
		fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed: "+db.Path))
	return nil
}
