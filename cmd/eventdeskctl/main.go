// Command eventdeskctl drives the eventdesk stores without the desktop shell:
// it reads and writes the same local database and talks to the same backend.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventdesk/internal/apiclient"
	"eventdesk/internal/config"
	"eventdesk/internal/database"
	"eventdesk/internal/logging"
	"eventdesk/internal/services"
	"eventdesk/internal/utils"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "eventdeskctl",
	Short: "Manage eventdesk preferences, API keys and search from a terminal",
	Long: `eventdeskctl works on the same local store as the desktop app.

Preferences are written locally first and then synced to the backend;
API keys never leave this machine.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.LoadEnv(); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}

		path := configPath
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		cfg = loaded

		logger, err = logging.New(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $EVENTDESK_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStores opens the local database and wires the stores. The returned
// func waits for background saves and closes the database.
func openStores() (*services.Stores, func(), error) {
	db, err := database.Init(database.Config{
		Path:   cfg.Storage.DatabasePath,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	stores, err := services.NewStores(cfg, services.StoresOptions{
		DB:      db,
		Backend: apiclient.New(cfg.APIRoot(), cfg.API.Timeout, logger),
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		stores.Shutdown()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return stores, closeFn, nil
}
