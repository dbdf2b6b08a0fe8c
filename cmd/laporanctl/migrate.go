package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"laporan/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply, roll back or inspect schema migrations for the configured
sqlite or postgres backend. The memory backend has no schema.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dialect, dsn, err := migrationTarget()
			if err != nil {
				return err
			}
			if err := storage.RunMigrations(dialect, dsn); err != nil {
				return err
			}
			logger.Info("Migrations applied", "dialect", dialect.String())
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			dialect, dsn, err := migrationTarget()
			if err != nil {
				return err
			}
			if err := storage.RollbackMigrations(dialect, dsn, steps); err != nil {
				return err
			}
			logger.Info("Migrations rolled back", "dialect", dialect.String(), "steps", steps)
			return nil
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dialect, dsn, err := migrationTarget()
			if err != nil {
				return err
			}
			v, dirty, err := storage.MigrationVersion(dialect, dsn)
			if err != nil {
				return fmt.Errorf("read schema version: %w", err)
			}
			if dirty {
				logger.Warn("Schema is dirty, the last migration did not complete", "version", v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema version %d (dirty=%t)\n", dialect, v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func migrationTarget() (storage.Dialect, string, error) {
	switch cfg.DataBackend {
	case "sqlite":
		return storage.SQLite, cfg.SQLiteDBPath, nil
	case "postgres":
		return storage.Postgres, cfg.DatabaseURL, nil
	default:
		return 0, "", fmt.Errorf("backend %q has no migrations; set DATA_BACKEND to sqlite or postgres", cfg.DataBackend)
	}
}
