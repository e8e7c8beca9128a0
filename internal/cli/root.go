package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	email      string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "plan",
		Short: "plan - projects, tasks and a calendar in your terminal",
		Long: `plan organizes projects and their tasks into workspaces.

Without a subcommand it opens the terminal UI with Projects, Tasks and
Calendar tabs. Linked workspaces share their tasks with each other.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+defaultConfigHint()+")")
	rootCmd.PersistentFlags().StringVar(&email, "email", "", "Sign in as this user instead of user.email")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd(version))
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(agendaCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plan %s\n", version)
		},
	}
}
