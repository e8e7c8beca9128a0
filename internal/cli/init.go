package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgienger/plan/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration.

Without --config the file goes to the global location under
$XDG_CONFIG_HOME/plan (or ~/.config/plan).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	path := configPath
	if path == "" {
		path = config.GlobalConfigPath()
	}
	if err := initConfig(path, force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func initConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return config.WriteDefault(path)
}
