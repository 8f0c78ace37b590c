// Package main provides the admin CLI for managing users and token balances
// over a direct database connection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kodella-ai/kodella/internal/config"
	"github.com/kodella-ai/kodella/internal/ledger"
	"github.com/kodella-ai/kodella/internal/logger"
	"github.com/kodella-ai/kodella/internal/store"
)

var (
	// Global flags
	configFile string
	envPath    string

	dataStore store.Store
	ledgerSvc *ledger.Service
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "Kodella admin CLI for user and token management",
		Long: `Command-line tool for administrators to manage users and token
balances. Connects directly to the database configured via config file or
KODELLA_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAdminConfig(configFile, envPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := logger.Initialize(logger.Config{Debug: cfg.Debug}); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}

			dataStore = store.NewPGStore(db)
			ledgerSvc = ledger.NewService(dataStore)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "config/", "Path to environment files")

	rootCmd.AddCommand(
		newAddTokensCmd(),
		newSetTokensCmd(),
		newListUsersCmd(),
		newUserInfoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
