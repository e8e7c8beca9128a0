package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/plan/internal/derive"
	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
)

// TasksView shows the tasks of the current and linked workspaces grouped
// by status
type TasksView struct {
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	groups     []derive.StatusGroup
	rows       []derive.TaskRow
	workspaces map[string]string
	current    string

	cursor  int
	scrollY int
}

// NewTasksView creates a new task list view
func NewTasksView() *TasksView {
	return &TasksView{
		styles:     styles.NewStyles(),
		keys:       keys.DefaultKeyMap(),
		workspaces: map[string]string{},
	}
}

// SetSize sets the area available to the list
func (v *TasksView) SetSize(width, height int) {
	v.width, v.height = width, height
	v.ensureVisible()
}

// SetGroups replaces the groups, keeping the cursor on the same task
func (v *TasksView) SetGroups(groups []derive.StatusGroup, visible []models.Workspace, current string) {
	selected, hadSelection := v.Selected()

	v.groups = groups
	v.current = current
	v.workspaces = make(map[string]string, len(visible))
	for _, ws := range visible {
		v.workspaces[ws.ID] = ws.Name
	}
	v.rows = nil
	for _, g := range groups {
		v.rows = append(v.rows, g.Tasks...)
	}

	if hadSelection {
		for i, r := range v.rows {
			if r.Task.ID == selected.ID {
				v.cursor = i
				break
			}
		}
	}
	if v.cursor >= len(v.rows) {
		v.cursor = max(0, len(v.rows)-1)
	}
	v.ensureVisible()
}

// Selected returns the task under the cursor
func (v *TasksView) Selected() (models.Item, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return models.Item{}, false
	}
	return v.rows[v.cursor].Task, true
}

func (v *TasksView) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return nil

	case key.Matches(msg, v.keys.New):
		return send(EditItem{Item: models.Item{Kind: models.KindTask}})

	case key.Matches(msg, v.keys.Enter):
		if it, ok := v.Selected(); ok {
			return send(EditItem{Item: it})
		}
		return nil
	}

	if it, ok := v.Selected(); ok {
		if cmd, handled := itemAction(v.keys, msg, it); handled {
			return cmd
		}
	}
	return nil
}

// lineOf returns the rendered line of row i; each group adds a header line
func (v *TasksView) lineOf(i int) int {
	line, seen := 0, 0
	for _, g := range v.groups {
		line++
		if i < seen+len(g.Tasks) {
			return line + i - seen
		}
		line += len(g.Tasks)
		seen += len(g.Tasks)
	}
	return line
}

func (v *TasksView) visibleLines() int {
	return max(v.height, 3)
}

func (v *TasksView) ensureVisible() {
	line := v.lineOf(v.cursor)
	visible := v.visibleLines()
	// keep the group header in view when the first row is selected
	top := line
	if top > 0 {
		top--
	}
	if top < v.scrollY {
		v.scrollY = top
	} else if line >= v.scrollY+visible {
		v.scrollY = line - visible + 1
	}
}

// View renders the view
func (v *TasksView) View() string {
	s := v.styles

	if len(v.rows) == 0 {
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var lines []string
	i := 0
	for _, g := range v.groups {
		header := s.GroupHeader.Foreground(styles.StatusColor(g.Status)).
			Render(fmt.Sprintf("%s (%d)", g.Status, len(g.Tasks)))
		lines = append(lines, header)
		for _, r := range g.Tasks {
			lines = append(lines, v.renderTaskItem(r, i == v.cursor))
			i++
		}
	}

	end := min(v.scrollY+v.visibleLines(), len(lines))
	start := min(v.scrollY, end)
	return strings.Join(lines[start:end], "\n")
}

func (v *TasksView) renderTaskItem(r derive.TaskRow, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	style := s.ListItem
	if selected {
		style = s.ListSelected
	}

	project := r.ProjectTitle
	if r.WorkspaceID != v.current {
		if name, ok := v.workspaces[r.WorkspaceID]; ok {
			project = name + " / " + project
		}
	}

	line := fmt.Sprintf("%s  %s  %s",
		r.Task.Title,
		styles.Priority(r.Task.Priority),
		s.TitleMuted.Render(dueLabel(r.Task.DueDate)+" · "+project),
	)
	return style.Width(width).MaxHeight(1).Render(line)
}

// HelpItems lists the keys of this view for the help popup
func (v *TasksView) HelpItems() [][2]string {
	return [][2]string{
		{"↵/e", "edit task"},
		{"n", "new task"},
		{"d", "delete task"},
		{"s", "cycle status"},
		{"p", "cycle priority"},
	}
}
