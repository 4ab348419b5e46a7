// Package cmd wires the command line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ragvault/ragvault/internal/config"
	"github.com/ragvault/ragvault/internal/log"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ragvault",
	Short: "ragvault - retrieval-augmented chat over multi-tenant document vaults",
	Long: `ragvault serves a REST API for ingesting documents into named vaults
and answering conversational questions grounded in their content.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a YAML config file (environment variables take precedence)")
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newVersionCmd())
}

// loadConfig loads configuration and builds the logger from it.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogFormat == "json",
	})
	return cfg, logger, nil
}
