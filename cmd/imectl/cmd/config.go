package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imecompose/internal/config"
	"imecompose/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInitCmd,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "check a configuration file against the schema and value rules",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidateCmd,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the effective configuration",
	Long:  "Print the configuration after defaults and IMECOMPOSE_* environment overrides are applied.",
	Args:  cobra.NoArgs,
	RunE:  runConfigShowCmd,
}

var (
	configInitForce  bool
	configShowFormat string
)

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing file")
	configShowCmd.Flags().StringVar(&configShowFormat, "format", "toml", "output format (toml, json, yaml)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInitCmd(cmd *cobra.Command, args []string) error {
	path := configPathArg
	if path == "" {
		path = config.ConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	logging.Info("config written", "path", path)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runConfigValidateCmd(cmd *cobra.Command, args []string) error {
	path := resolveConfigPath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no config file at %s", path)
	}
	if err := config.ValidateFile(path); err != nil {
		return err
	}
	if _, err := config.Load(path); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, e := range verrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", e.Field, e.Message)
			}
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", path)
	return nil
}

func runConfigShowCmd(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ext := "." + configShowFormat
	switch ext {
	case ".toml", ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("unknown format %q", configShowFormat)
	}
	data, err := config.Encode(cfg, ext)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
