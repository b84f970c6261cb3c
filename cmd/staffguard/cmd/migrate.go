package cmd

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/staffguard/internal/config"
	"github.com/MrEthical07/staffguard/internal/db"
	"github.com/MrEthical07/staffguard/internal/db/migrate"
	"github.com/MrEthical07/staffguard/sqlstore"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back the database schema",
		Long:      "Postgres uses the versioned SQL migrations. MySQL and SQLite are migrated from the models and only support up.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			direction := args[0]

			if cfg.DatabaseDriver == db.DriverPostgres {
				if err := migrate.Run(cfg.DatabaseURL, direction); err != nil {
					return fmt.Errorf("migrate %s: %w", direction, err)
				}
				version, dirty, err := migrate.Version(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d (dirty=%v)\n", version, dirty)
				return nil
			}

			if direction == "down" {
				return errors.New("migrate down is only supported on postgres")
			}
			gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL, nil)
			if err != nil {
				return err
			}
			defer db.Close(gdb)
			if err := sqlstore.AutoMigrate(gdb); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema up to date\n", cfg.DatabaseDriver)
			return nil
		},
	}
}
