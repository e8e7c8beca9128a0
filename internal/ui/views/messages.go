package views

import (
	"github.com/tgienger/plan/internal/models"
)

// Screens never touch the planner. They ask the App to run a mutation by
// returning one of these requests as a message.

// AddItemRequest creates a project or task
type AddItemRequest struct {
	Item models.NewItem
}

// UpdateItemRequest merges Patch into item ID
type UpdateItemRequest struct {
	ID    string
	Patch models.ItemPatch
	// MoveTo moves a project to another workspace after the patch
	MoveTo string
}

// DeleteItemRequest deletes an item; a project takes its tasks with it
type DeleteItemRequest struct {
	ID string
}

// CreateWorkspaceRequest creates a workspace and switches to it
type CreateWorkspaceRequest struct {
	Name string
}

// RenameWorkspaceRequest renames a workspace
type RenameWorkspaceRequest struct {
	ID   string
	Name string
}

// DeleteWorkspaceRequest deletes a workspace and everything in it
type DeleteWorkspaceRequest struct {
	ID string
}

// SwitchWorkspaceRequest makes a workspace current
type SwitchWorkspaceRequest struct {
	ID string
}

// ToggleLinkRequest links or unlinks a workspace with the current one
type ToggleLinkRequest struct {
	ID     string
	Linked bool
}

// EditItem opens the item editor. A zero Item.ID means a new item.
type EditItem struct {
	Item models.Item
}

// OpenProject opens the detail panel of a project
type OpenProject struct {
	ID string
}

// ToggleProjectTasksCompleted flips the completed filter of the project
// detail panel
type ToggleProjectTasksCompleted struct{}

// ConfirmDelete asks before running Request
type ConfirmDelete struct {
	Title   string
	Message string
	Request any
}

// Closed is sent by an overlay when it is dismissed
type Closed struct{}
