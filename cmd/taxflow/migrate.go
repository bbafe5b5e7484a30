package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
	"github.com/Veraticus/the-tax-must-flow/internal/storage"
)

func (a *app) migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the return archive schema to the latest version.

Other commands migrate automatically; this is useful to create the archive
ahead of time or to check its schema version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			dbPath := a.cfg.Database.Path

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer closeStorage(store)

			if status {
				current, err := store.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, cli.FormatTitle("Database migration status"))
				fmt.Fprintf(out, "Database:        %s\n", dbPath)
				fmt.Fprintf(out, "Current version: %d\n", current)
				fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
				return nil
			}

			slog.Info("Running database migrations", "database", dbPath)
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "show the current schema version without migrating")

	return cmd
}
