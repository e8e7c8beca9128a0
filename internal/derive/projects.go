package derive

import (
	"slices"

	"github.com/tgienger/plan/internal/models"
)

// ProjectRow is a project with its nested tasks
type ProjectRow struct {
	Project models.Item
	Tasks   []models.Item
}

// Projects lists the projects of the current workspace. The nested task
// lists are search filtered and sorted by title, whatever the project
// sort and completed filter say.
func Projects(snap models.Snapshot, f Filters) []ProjectRow {
	c := newCollator()

	var projects []models.Item
	children := map[string][]models.Item{}
	for _, it := range snap.Items {
		switch {
		case it.IsProject():
			if it.WorkspaceID == snap.CurrentWorkspaceID && f.keep(it, f.HideCompletedProjects) {
				projects = append(projects, it)
			}
		case f.matches(it):
			children[it.ParentID] = append(children[it.ParentID], it)
		}
	}

	if f.ProjectSort == SortDate {
		slices.SortFunc(projects, c.byDue)
	} else {
		slices.SortFunc(projects, c.byTitle)
	}

	rows := make([]ProjectRow, len(projects))
	for i, p := range projects {
		tasks := children[p.ID]
		slices.SortFunc(tasks, c.byTitle)
		rows[i] = ProjectRow{Project: p, Tasks: tasks}
	}
	return rows
}

// ProjectTasks lists the tasks of one project by title for its detail panel
func ProjectTasks(snap models.Snapshot, projectID string, hideCompleted bool) []models.Item {
	var tasks []models.Item
	for _, it := range snap.Items {
		if !it.IsTask() || it.ParentID != projectID {
			continue
		}
		if hideCompleted && it.Status == models.StatusComplete {
			continue
		}
		tasks = append(tasks, it)
	}
	slices.SortFunc(tasks, newCollator().byTitle)
	return tasks
}
