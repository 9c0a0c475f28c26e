package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"

	config "github.com/mwantia/photocat/internal/config/server"
	"github.com/mwantia/photocat/pkg/db/migrations"
	"github.com/mwantia/photocat/pkg/db/store"
	"github.com/mwantia/photocat/pkg/log"
)

func NewDatabaseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Catalog database maintenance",
		Long:  "Inspect and change the schema version of the catalog database.",
	}

	cmd.AddCommand(newDatabaseStatusCommand())
	cmd.AddCommand(newDatabaseMigrateCommand())
	cmd.AddCommand(newDatabaseRollbackCommand())

	return cmd
}

// withMigrator opens the catalog database without applying pending migrations
func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *migrations.Migrator) error) error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	level := logger.Warn
	if cfg.Log.SQL {
		level = logger.Info
	}
	logs := log.NewLoggerServiceWithWriter("photocat", cfg.Log, cmd.ErrOrStderr())

	db, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:     cfg.Metadata.SQLite.Path,
		LogLevel: level,
		Logger:   log.NewGormLogger(logs.Named("gorm"), level),
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect catalog store: %w", err)
	}

	return fn(ctx, migrations.NewMigrator(db.DB()))
}

func newDatabaseStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List schema migrations and whether they are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, status := range statuses {
					applied := "pending"
					if status.AppliedAt != nil {
						applied = "applied " + status.AppliedAt.Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(out, "%3d  %-45s  %s\n", status.Version, status.Description, applied)
				}
				return nil
			})
		},
	}

	return cmd
}

func newDatabaseMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				return m.Migrate(ctx)
			})
		},
	}

	return cmd
}

func newDatabaseRollbackCommand() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Revert the most recent schema migration",
		Long: `Revert the most recent schema migration. Reverting the initial schema drops
every catalog table, so the command requires --confirm. Any other catalog
command applies pending migrations again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("rollback changes the catalog schema, use --confirm to proceed")
			}

			return withMigrator(cmd, func(ctx context.Context, m *migrations.Migrator) error {
				if err := m.Rollback(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rolled back the most recent migration")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "confirm", "c", false, "Confirm the schema rollback")

	return cmd
}
