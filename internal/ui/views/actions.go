package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// itemAction handles the keys every item list shares: edit, delete and
// cycling status or priority. ok is false when msg is none of them.
func itemAction(km keys.KeyMap, msg tea.KeyMsg, it models.Item) (cmd tea.Cmd, ok bool) {
	switch {
	case key.Matches(msg, km.Edit):
		return send(EditItem{Item: it}), true

	case key.Matches(msg, km.Delete):
		message := fmt.Sprintf("Delete task %q?", it.Title)
		title := "Delete Task?"
		if it.IsProject() {
			title = "Delete Project?"
			message = fmt.Sprintf("Delete %q and all of its tasks?", it.Title)
		}
		return send(ConfirmDelete{Title: title, Message: message, Request: DeleteItemRequest{ID: it.ID}}), true

	case key.Matches(msg, km.CycleStatus):
		next := it.Status.Next()
		return send(UpdateItemRequest{ID: it.ID, Patch: models.ItemPatch{Status: &next}}), true

	case key.Matches(msg, km.CyclePriority):
		next := it.Priority.Next()
		return send(UpdateItemRequest{ID: it.ID, Patch: models.ItemPatch{Priority: &next}}), true
	}
	return nil, false
}

// dueLabel renders a due date for a row
func dueLabel(due string) string {
	if due == "" {
		return "no due date"
	}
	return "due " + due
}
