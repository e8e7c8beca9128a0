package derive

import (
	"cmp"
	"slices"

	"github.com/tgienger/plan/internal/models"
)

// Views holds every derived list for one snapshot version
type Views struct {
	Version    uint64
	Workspaces []models.Workspace
	Projects   []ProjectRow
	Tasks      []StatusGroup
	Calendar   Month
	Orphans    []TaskRow
}

// All recomputes every view from snap
func All(snap models.Snapshot, f Filters, year int, month int) Views {
	return Views{
		Version:    snap.Version,
		Workspaces: VisibleWorkspaces(snap),
		Projects:   Projects(snap, f),
		Tasks:      Tasks(snap, f),
		Calendar:   Calendar(snap, f, year, month),
		Orphans:    Orphans(snap),
	}
}

// VisibleWorkspaces returns the current workspace followed by every
// workspace it is linked to, by name. Links to workspaces that no longer
// exist are skipped.
func VisibleWorkspaces(snap models.Snapshot) []models.Workspace {
	current, ok := snap.CurrentWorkspace()
	if !ok {
		return nil
	}
	var linked []models.Workspace
	for _, ws := range snap.Workspaces {
		if ws.ID != current.ID && current.IsLinked(ws.ID) {
			linked = append(linked, ws)
		}
	}
	slices.SortFunc(linked, func(a, b models.Workspace) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return append([]models.Workspace{current}, linked...)
}

// index maps project ids to projects
type index map[string]models.Item

func indexProjects(items []models.Item) index {
	idx := make(index)
	for _, it := range items {
		if it.IsProject() {
			idx[it.ID] = it
		}
	}
	return idx
}

// workspaceOf returns the effective workspace of an item. ok is false for
// a task whose project is missing.
func (idx index) workspaceOf(it models.Item) (string, bool) {
	if it.IsProject() {
		return it.WorkspaceID, true
	}
	parent, ok := idx[it.ParentID]
	if !ok {
		return "", false
	}
	return parent.WorkspaceID, true
}
