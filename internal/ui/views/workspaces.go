package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
)

type menuMode int

const (
	menuBrowse menuMode = iota
	menuCreate
	menuRename
)

// WorkspaceMenu switches, creates, renames and deletes workspaces
type WorkspaceMenu struct {
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	workspaces []models.Workspace
	current    string
	cursor     int

	mode  menuMode
	input textinput.Model
	err   string
}

// NewWorkspaceMenu opens the menu with the cursor on the current workspace
func NewWorkspaceMenu(workspaces []models.Workspace, current string) *WorkspaceMenu {
	input := textinput.New()
	input.Placeholder = "Workspace name"
	input.CharLimit = 100

	m := &WorkspaceMenu{
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		input:  input,
	}
	m.SetWorkspaces(workspaces, current)
	for i, ws := range m.workspaces {
		if ws.ID == current {
			m.cursor = i
		}
	}
	return m
}

func (m *WorkspaceMenu) SetSize(width, height int) {
	m.width, m.height = width, height
}

// SetWorkspaces refreshes the menu; workspaces are expected sorted by name
func (m *WorkspaceMenu) SetWorkspaces(workspaces []models.Workspace, current string) {
	m.workspaces = workspaces
	m.current = current
	m.cursor = clamp(m.cursor, 0, max(len(workspaces)-1, 0))
}

func (m *WorkspaceMenu) selected() (models.Workspace, bool) {
	if m.cursor >= len(m.workspaces) {
		return models.Workspace{}, false
	}
	return m.workspaces[m.cursor], true
}

func (m *WorkspaceMenu) Update(msg tea.KeyMsg) tea.Cmd {
	if m.mode != menuBrowse {
		return m.updateInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Workspaces):
		return send(Closed{})

	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, 0, max(len(m.workspaces)-1, 0))

	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, 0, max(len(m.workspaces)-1, 0))

	case key.Matches(msg, m.keys.Enter):
		if ws, ok := m.selected(); ok {
			return send(SwitchWorkspaceRequest{ID: ws.ID})
		}

	case key.Matches(msg, m.keys.New):
		m.mode = menuCreate
		m.err = ""
		m.input.Reset()
		return m.input.Focus()

	case key.Matches(msg, m.keys.Rename):
		if ws, ok := m.selected(); ok {
			m.mode = menuRename
			m.err = ""
			m.input.SetValue(ws.Name)
			return m.input.Focus()
		}

	case key.Matches(msg, m.keys.Delete):
		if ws, ok := m.selected(); ok {
			return send(ConfirmDelete{
				Title:   "Delete Workspace?",
				Message: fmt.Sprintf("Delete %q with all of its projects and tasks?", ws.Name),
				Request: DeleteWorkspaceRequest{ID: ws.ID},
			})
		}
	}
	return nil
}

func (m *WorkspaceMenu) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = menuBrowse
		m.input.Blur()
		return nil

	case key.Matches(msg, m.keys.Enter):
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.err = "name is required"
			return nil
		}
		mode := m.mode
		m.mode = menuBrowse
		m.input.Blur()
		if mode == menuCreate {
			return send(CreateWorkspaceRequest{Name: name})
		}
		if ws, ok := m.selected(); ok {
			return send(RenameWorkspaceRequest{ID: ws.ID, Name: name})
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *WorkspaceMenu) View() string {
	s := m.styles

	var rows []string
	for i, ws := range m.workspaces {
		style := s.ListItem
		if i == m.cursor {
			style = s.ListSelected
		}
		marker := "  "
		if ws.ID == m.current {
			marker = "● "
		}
		linked := ""
		if n := len(ws.LinkedIDs()); n > 0 {
			linked = s.TitleMuted.Render(fmt.Sprintf("  %d linked", n))
		}
		rows = append(rows, style.Render(marker+ws.Name)+linked)
	}

	footer := s.TitleMuted.Render("↵ switch • n new • r rename • d delete • esc close")
	if m.mode != menuBrowse {
		label := "New workspace:"
		if m.mode == menuRename {
			label = "Rename to:"
		}
		footer = lipgloss.JoinVertical(lipgloss.Left,
			label,
			s.InputFocused.Width(30).Render(m.input.View()),
			s.TitleMuted.Render("↵ save • esc cancel"),
		)
	}

	lines := []string{s.Title.Render("Workspaces"), ""}
	lines = append(lines, rows...)
	lines = append(lines, "", footer)
	if m.err != "" {
		lines = append(lines, s.Error.Render(m.err))
	}
	return popup(s, lipgloss.JoinVertical(lipgloss.Left, lines...), m.width, m.height)
}

// LinkMenu toggles which workspaces share their tasks with the current one
type LinkMenu struct {
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	current models.Workspace
	others  []models.Workspace
	cursor  int
}

func NewLinkMenu(workspaces []models.Workspace, current string) *LinkMenu {
	m := &LinkMenu{
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
	}
	m.SetWorkspaces(workspaces, current)
	return m
}

func (m *LinkMenu) SetSize(width, height int) {
	m.width, m.height = width, height
}

// SetWorkspaces refreshes the checkboxes after a link changes
func (m *LinkMenu) SetWorkspaces(workspaces []models.Workspace, current string) {
	m.others = m.others[:0]
	for _, ws := range workspaces {
		if ws.ID == current {
			m.current = ws
			continue
		}
		m.others = append(m.others, ws)
	}
	m.cursor = clamp(m.cursor, 0, max(len(m.others)-1, 0))
}

func (m *LinkMenu) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Links):
		return send(Closed{})

	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, 0, max(len(m.others)-1, 0))

	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, 0, max(len(m.others)-1, 0))

	case key.Matches(msg, m.keys.Enter), msg.String() == " ":
		if m.cursor < len(m.others) {
			ws := m.others[m.cursor]
			return send(ToggleLinkRequest{ID: ws.ID, Linked: !m.current.IsLinked(ws.ID)})
		}
	}
	return nil
}

func (m *LinkMenu) View() string {
	s := m.styles

	lines := []string{s.Title.Render("Link with " + m.current.Name), ""}
	if len(m.others) == 0 {
		lines = append(lines, s.TitleMuted.Render("No other workspaces"))
	}
	for i, ws := range m.others {
		style := s.ListItem
		if i == m.cursor {
			style = s.ListSelected
		}
		checkbox := "[ ]"
		if m.current.IsLinked(ws.ID) {
			checkbox = "[x]"
		}
		lines = append(lines, style.Render(checkbox+" "+ws.Name))
	}
	lines = append(lines, "", s.TitleMuted.Render("Enter/Space: toggle • Esc: done"))
	return popup(s, lipgloss.JoinVertical(lipgloss.Left, lines...), m.width, m.height)
}
