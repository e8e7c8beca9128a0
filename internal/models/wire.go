package models

import (
	"encoding/json"
	"fmt"
)

// itemDoc is the flat persisted shape of an item
type itemDoc struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Priority    string  `json:"priority"`
	Status      string  `json:"status"`
	StartDate   string  `json:"startDate"`
	DueDate     string  `json:"dueDate"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId,omitempty"`
	WorkspaceID *string `json:"workspaceId,omitempty"`
}

type workspaceDoc struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	LinkedWorkspaces map[string]bool `json:"linkedWorkspaces"`
}

// EncodeItem writes item as a flat field map
func EncodeItem(item Item) ([]byte, error) {
	doc := itemDoc{
		ID:          item.ID,
		Title:       item.Title,
		Priority:    string(item.Priority),
		Status:      string(item.Status),
		StartDate:   item.StartDate,
		DueDate:     item.DueDate,
		Description: item.Description,
	}
	if item.IsTask() {
		parent := item.ParentID
		doc.ParentID = &parent
	}
	if item.WorkspaceID != "" {
		ws := item.WorkspaceID
		doc.WorkspaceID = &ws
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode item %s: %w", item.ID, err)
	}
	return b, nil
}

// DecodeItem reads a flat field map. A present, non-empty parentId makes
// the item a task.
func DecodeItem(b []byte) (Item, error) {
	var doc itemDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return Item{}, fmt.Errorf("decode item: %w", err)
	}
	item := Item{
		Kind:        KindProject,
		ID:          doc.ID,
		Title:       doc.Title,
		Priority:    Priority(doc.Priority),
		Status:      Status(doc.Status),
		StartDate:   doc.StartDate,
		DueDate:     doc.DueDate,
		Description: doc.Description,
	}
	if doc.ParentID != nil && *doc.ParentID != "" {
		item.Kind = KindTask
		item.ParentID = *doc.ParentID
	}
	if doc.WorkspaceID != nil {
		item.WorkspaceID = *doc.WorkspaceID
	}
	return item, nil
}

// EncodeWorkspace writes ws as a flat field map
func EncodeWorkspace(ws Workspace) ([]byte, error) {
	doc := workspaceDoc{ID: ws.ID, Name: ws.Name, LinkedWorkspaces: ws.LinkedWorkspaces}
	if doc.LinkedWorkspaces == nil {
		doc.LinkedWorkspaces = map[string]bool{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode workspace %s: %w", ws.ID, err)
	}
	return b, nil
}

// DecodeWorkspace reads a workspace. A missing link map decodes as empty.
func DecodeWorkspace(b []byte) (Workspace, error) {
	var doc workspaceDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return Workspace{}, fmt.Errorf("decode workspace: %w", err)
	}
	if doc.LinkedWorkspaces == nil {
		doc.LinkedWorkspaces = map[string]bool{}
	}
	return Workspace{ID: doc.ID, Name: doc.Name, LinkedWorkspaces: doc.LinkedWorkspaces}, nil
}

// MarshalJSON renders an item in its flat stored shape
func (i Item) MarshalJSON() ([]byte, error) { return EncodeItem(i) }

// MarshalJSON renders a workspace in its stored shape
func (w Workspace) MarshalJSON() ([]byte, error) { return EncodeWorkspace(w) }
