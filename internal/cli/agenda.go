package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgienger/plan/internal/derive"
	"github.com/tgienger/plan/internal/models"
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Print the tasks of the current and linked workspaces by status",
	RunE:  runAgenda,
}

func init() {
	agendaCmd.Flags().StringP("search", "s", "", "Only tasks whose title or description contains this")
	agendaCmd.Flags().Bool("hide-completed", false, "Leave out completed tasks")
}

func runAgenda(cmd *cobra.Command, args []string) error {
	e, err := openEnv(os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.signIn(cmd.Context()); err != nil {
		return err
	}
	f, err := e.filters()
	if err != nil {
		return err
	}
	f.Search, _ = cmd.Flags().GetString("search")
	f.HideCompletedTasks, _ = cmd.Flags().GetBool("hide-completed")

	snap := e.planner.Snapshot()
	printAgenda(cmd.OutOrStdout(), snap, derive.Tasks(snap, f), derive.Orphans(snap))
	return nil
}

func printAgenda(w io.Writer, snap models.Snapshot, groups []derive.StatusGroup, orphans []derive.TaskRow) {
	names := map[string]string{}
	for _, ws := range snap.Workspaces {
		names[ws.ID] = ws.Name
	}
	if ws, ok := snap.CurrentWorkspace(); ok {
		fmt.Fprintf(w, "Workspace: %s\n", ws.Name)
	}
	if len(groups) == 0 {
		fmt.Fprintln(w, "No tasks.")
	}

	for _, g := range groups {
		fmt.Fprintf(w, "\n%s (%d)\n", g.Status, len(g.Tasks))
		for _, r := range g.Tasks {
			where := r.ProjectTitle
			if r.WorkspaceID != snap.CurrentWorkspaceID {
				where = names[r.WorkspaceID] + " / " + where
			}
			due := r.Task.DueDate
			if due == "" {
				due = "----------"
			}
			fmt.Fprintf(w, "  %s  %-6s  %s  [%s]\n", due, r.Task.Priority, r.Task.Title, where)
		}
	}

	if len(orphans) > 0 {
		fmt.Fprintf(w, "\n%d tasks without a project:\n", len(orphans))
		for _, r := range orphans {
			fmt.Fprintf(w, "  %s (%s)\n", r.Task.Title, r.Task.ParentID)
		}
	}
}
