package cmd

import (
	"errors"

	"github.com/SscSPs/club_ledger/internal/adapters/database/pgsql"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("PGSQL_URL must be set to run migrations")
		}
		return pgsql.Migrate(cfg.DatabaseURL, logger)
	},
}
