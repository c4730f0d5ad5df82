package cmd

import (
	"fmt"

	"github.com/agubarev/lowcode/pkg/config"
	"github.com/agubarev/lowcode/pkg/database"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var migrateRollback bool

// migrateCmd applies or reverts PostgreSQL schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL schema migrations.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if cfg.Postgres.DSN == "" {
			return errors.Wrap(config.ErrEmptyDSN, "migrations need a database")
		}

		l, err := logger(cfg)
		if err != nil {
			return err
		}

		pc := cfg.PoolConfig()
		pc.Logger = l

		pool, err := database.NewPool(cmd.Context(), pc)
		if err != nil {
			return err
		}
		defer pool.Close()

		if migrateRollback {
			err = database.Rollback(pool)
		} else {
			err = database.Migrate(pool)
		}

		if err != nil {
			return err
		}

		v, err := database.SchemaVersion(pool)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateRollback, "rollback", false, "revert the most recent migration instead")
}
