package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/plan/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect plan configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show merged configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Run:   runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "# Merged configuration (defaults + file + environment)")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	fmt.Fprintf(cmd.OutOrStdout(), "Global: %s\n", config.GlobalConfigPath())
	if configPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Flag:   %s\n", configPath)
	}
}
