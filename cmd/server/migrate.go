package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the invoices schema in the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			repo, closeStore, err := openStore(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := migrateStore(cmd.Context(), repo); err != nil {
				return err
			}
			log.Infow("schema migrated", "driver", cfg.Database.Driver)
			return nil
		},
	}
}
