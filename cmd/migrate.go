package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragvault/ragvault/db"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(*cobra.Command, []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.Migrate(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			logger.Info("migrations applied")
			return nil
		},
	}
}
