package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/config"
	"github.com/mokkiwahti/mokkiwahti-core/internal/infrastructure/database"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "MOKKIWAHTI_CONFIG"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mokkiwahti",
		Short: "Environment monitoring for cabins",
		Long: `Mökkiwahti keeps track of temperature and humidity readings from
sensors placed around a cabin.

Examples:
  mokkiwahti serve
  mokkiwahti serve --config /etc/mokkiwahti/config.yaml
  mokkiwahti migrate up
  mokkiwahti version`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to config file (default $"+configEnvVar+" or "+defaultConfigPath+")")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newVersionCmd())
	return root
}

// configPath resolves the config file: the --config flag, then
// MOKKIWAHTI_CONFIG, then the default path. The default path is optional;
// "" is returned when it does not exist so built-in defaults apply.
func configPath(cmd *cobra.Command) string {
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return defaultConfigPath
}

// loadConfig reads .env and the resolved config file.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if err := config.LoadEnvFile(); err != nil {
		return nil, "", err
	}

	path := configPath(cmd)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}

func openDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}
