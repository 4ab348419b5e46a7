package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ragvault/ragvault/api"
	"github.com/ragvault/ragvault/db"
	"github.com/ragvault/ragvault/internal/app"
)

func newServeCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Info("configuration loaded", "config", cfg.String())

			if !skipMigrate {
				if err := db.Migrate(cfg.DatabaseURL); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			a, err := app.Setup(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initializing application: %w", err)
			}
			defer a.Close()

			server := api.NewServer(api.Deps{
				Pool:        a.Pool,
				Vaults:      a.Registry,
				VaultLookup: a.Registry,
				Documents:   a.Pipeline,
				Chat:        a.Orchestrator,
				Agents:      a.Agents,
				Defaults: api.ChatDefaults{
					TopK:        cfg.TopKDefault,
					Temperature: cfg.DefaultTemperature,
				},
				Logger: logger,
			})
			return server.Run(ctx, cfg.Addr)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false,
		"do not run database migrations before serving")
	return cmd
}
