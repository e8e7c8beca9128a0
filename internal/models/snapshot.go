package models

// Snapshot is a read-only copy of the planner state at one version
type Snapshot struct {
	UID                string
	Items              []Item
	Workspaces         []Workspace
	CurrentWorkspaceID string
	Version            uint64
}

// Item finds an item by id
func (s Snapshot) Item(id string) (Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// Workspace finds a workspace by id
func (s Snapshot) Workspace(id string) (Workspace, bool) {
	for _, ws := range s.Workspaces {
		if ws.ID == id {
			return ws, true
		}
	}
	return Workspace{}, false
}

// CurrentWorkspace returns the active workspace
func (s Snapshot) CurrentWorkspace() (Workspace, bool) {
	return s.Workspace(s.CurrentWorkspaceID)
}
