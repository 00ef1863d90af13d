package main

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/bankweave/internal/cli"
	"github.com/Veraticus/bankweave/internal/config"
	"github.com/Veraticus/bankweave/internal/storage"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on startup; this one is useful to check the
schema version or to prepare a database ahead of time.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	dbPath := config.ExpandPath(currentConfig().DatabasePath)

	slog.Info("Starting database migration", "database", dbPath, "status_only", status)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, cli.RenderBox(cli.FolderIcon+" Database Migration Status", fmt.Sprintf( //nolint:forbidigo // User-facing output
			"Database: %s\nCurrent version: %d\nLatest version: %d",
			dbPath, current, storage.ExpectedSchemaVersion)))
		if current < storage.ExpectedSchemaVersion {
			fmt.Fprintln(out, cli.FormatWarning("Run 'bankweave migrate' to upgrade")) //nolint:forbidigo // User-facing output
		}
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully")) //nolint:forbidigo // User-facing output
	return nil
}
