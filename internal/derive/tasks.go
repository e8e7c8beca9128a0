package derive

import (
	"cmp"
	"slices"

	"github.com/tgienger/plan/internal/models"
)

// TaskRow is a task with the project and workspace it belongs to
type TaskRow struct {
	Task         models.Item
	ProjectTitle string
	WorkspaceID  string
	// ParentMissing marks a task whose project does not exist
	ParentMissing bool
}

// StatusGroup is one status section of the Tasks view
type StatusGroup struct {
	Status models.Status
	Tasks  []TaskRow
}

// Tasks groups the tasks of the current and linked workspaces by status.
// Groups follow the fixed status order; empty groups are omitted. Within a
// group tasks are ordered by due date with undated tasks last.
func Tasks(snap models.Snapshot, f Filters) []StatusGroup {
	visible := map[string]bool{}
	for _, ws := range VisibleWorkspaces(snap) {
		visible[ws.ID] = true
	}
	idx := indexProjects(snap.Items)

	byStatus := map[models.Status][]TaskRow{}
	for _, it := range snap.Items {
		if !it.IsTask() || !f.keep(it, f.HideCompletedTasks) {
			continue
		}
		parent, ok := idx[it.ParentID]
		if !ok || !visible[parent.WorkspaceID] {
			continue
		}
		byStatus[it.Status] = append(byStatus[it.Status], TaskRow{
			Task:         it,
			ProjectTitle: parent.Title,
			WorkspaceID:  parent.WorkspaceID,
		})
	}

	statuses := make([]models.Status, 0, len(byStatus))
	for s := range byStatus {
		statuses = append(statuses, s)
	}
	slices.SortFunc(statuses, func(a, b models.Status) int {
		return cmp.Or(cmp.Compare(a.Rank(), b.Rank()), cmp.Compare(a, b))
	})

	c := newCollator()
	groups := make([]StatusGroup, 0, len(statuses))
	for _, s := range statuses {
		rows := byStatus[s]
		slices.SortFunc(rows, func(a, b TaskRow) int { return c.byDue(a.Task, b.Task) })
		groups = append(groups, StatusGroup{Status: s, Tasks: rows})
	}
	return groups
}

// Orphans lists tasks whose project is missing, by title
func Orphans(snap models.Snapshot) []TaskRow {
	idx := indexProjects(snap.Items)
	var rows []TaskRow
	for _, it := range snap.Items {
		if it.IsTask() {
			if _, ok := idx[it.ParentID]; !ok {
				rows = append(rows, TaskRow{Task: it, ProjectTitle: "project not found", ParentMissing: true})
			}
		}
	}
	c := newCollator()
	slices.SortFunc(rows, func(a, b TaskRow) int { return c.byTitle(a.Task, b.Task) })
	return rows
}
