package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imecompose/internal/config"
	"imecompose/internal/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:               "imectl",
		Short:             "inspect imecompose configuration and journal",
		Long:              `imectl validates and writes imepad configuration files and reads the commit journal.`,
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}

	configPathArg string
	logLevelArg   string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPathArg, "config", "c", "", "config file (default: search the working and config directories)")
	rootCmd.PersistentFlags().StringVar(&logLevelArg, "log-level", "warn", "log level (debug, info, warn, error)")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := logging.ParseLevel(logLevelArg)
	if err != nil {
		return err
	}
	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Component = "imectl"
	lc.Writer = cmd.ErrOrStderr()
	logger, err := logging.New(lc)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.SetDefault(logger)
	return nil
}

// resolveConfigPath returns the --config value, an existing config file, or
// the default location, in that order.
func resolveConfigPath() string {
	if configPathArg != "" {
		return configPathArg
	}
	if found := config.FindConfigFile(); found != "" {
		return found
	}
	return config.ConfigPath()
}

func loadConfig() (*config.Config, string, error) {
	path := resolveConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logging.Debug("config file not found, using defaults", "path", path)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, path, nil
}
