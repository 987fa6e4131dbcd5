package main

import (
	"fmt"
	"os"

	"github.com/berai-dev/berai/db"
	"github.com/berai-dev/berai/internal/config"
	"github.com/berai-dev/berai/internal/logging"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "berai",
		Short:   "Berai - collaborative project and task tracker",
		Version: Version,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, configures logging and opens the migrated
// database shared by every command.
func setup() (config.Config, *gorm.DB, error) {
	cfg := config.Load()

	logging.InitLogger(logging.Options{
		SystemName: "berai",
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
	})

	if cfg.DatabaseURL == "" {
		return cfg, nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	gdb, err := db.ConnectDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.MigrateDatabase(gdb); err != nil {
		return cfg, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return cfg, gdb, nil
}
