package cli

import (
	"fmt"

	"github.com/foodtrack/api/internal/infrastructure/config"
	"github.com/foodtrack/api/internal/infrastructure/container"
	"github.com/foodtrack/api/internal/infrastructure/persistence/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCommand(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := load()
				if err != nil {
					return err
				}
				db, err := container.OpenDatabase(cfg.Database, log.Logger)
				if err != nil {
					return err
				}
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				defer sqlDB.Close()
				return container.Migrate(cfg.Database, db, log.Logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := load()
				if err != nil {
					return err
				}
				m, err := openMigrator(cfg, log.Logger)
				if err != nil {
					return err
				}
				defer m.Close()
				return m.Down()
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := load()
				if err != nil {
					return err
				}
				m, err := openMigrator(cfg, log.Logger)
				if err != nil {
					return err
				}
				defer m.Close()

				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d", version)
				if dirty {
					fmt.Fprint(cmd.OutOrStdout(), " (dirty)")
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			},
		},
	)
	return cmd
}

// openMigrator opens the versioned migrations, which only exist for postgres
func openMigrator(cfg *config.Config, log *zap.Logger) (*migrations.Migrator, error) {
	if cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("versioned migrations require the postgres driver, got %q", cfg.Database.Driver)
	}
	return migrations.Open(cfg.Database.DSN(), cfg.Database.Database, log)
}
