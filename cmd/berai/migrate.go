package main

import (
	"github.com/berai-dev/berai/internal/logging"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := setup(); err != nil {
				return err
			}

			logging.Logger.Info("Event ID: DB_MIGRATED, Description: Database schema is up to date")
			return nil
		},
	}
}
