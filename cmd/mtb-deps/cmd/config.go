package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mtb04313/mtb-scripts/internal/config"
	"github.com/mtb04313/mtb-scripts/internal/errors"
)

// configCmd groups the configuration commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the mtb-deps configuration file",
	Long: `Commands for creating and inspecting the mtb-deps configuration.

The configuration lives in ` + config.DefaultConfigPath + ` in the project folder.
Every key can also be set from the environment with the ` + config.EnvPrefix + `_ prefix,
for example ` + config.EnvPrefix + `_GIT_BACKEND=gogit.`,
}

// configInitCmd writes a default configuration file.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write ` + config.DefaultConfigPath + ` with the default settings.

Examples:
  mtb-deps config init             # Create .mtbdeps.yaml in the current folder
  mtb-deps config init --force     # Overwrite an existing file`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration mtb-deps would use, after the config file,
environment overrides and defaults are merged.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	addConfigFlags(configInitCmd, configShowCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// addConfigFlags registers the flags of the config subcommands.
func addConfigFlags(initCmd, showCmd *cobra.Command) {
	initCmd.Flags().String("dir", "", "Project folder (default: current directory)")
	initCmd.Flags().BoolP("force", "f", false, "Overwrite existing configuration")
	showCmd.Flags().String("dir", "", "Project folder (default: current directory)")
	showCmd.Flags().String("config", "", "Config file (default: "+config.DefaultConfigPath+" in the project folder)")
}

// runConfigInit handles the config init command.
func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(cmd)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	path := filepath.Join(dir, config.DefaultConfigPath)
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigExists(path)
	}

	if err := config.NewConfig().Save(path); err != nil {
		return errors.Wrap(err, errors.ErrConfig, "failed to write configuration")
	}

	cmd.Printf("Wrote %s\n", path)
	return nil
}

// runConfigShow handles the config show command.
func runConfigShow(cmd *cobra.Command, args []string) error {
	dir, err := projectDir(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		return err
	}

	data, err := cfg.Marshal()
	if err != nil {
		return errors.Wrap(err, errors.ErrConfig, "failed to render configuration")
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
