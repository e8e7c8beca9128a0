package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
)

// ProjectPanel shows one project and its tasks by title. Its completed
// filter is separate from the Projects and Tasks views.
type ProjectPanel struct {
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	project       models.Item
	tasks         []models.Item
	hideCompleted bool
	cursor        int
}

func NewProjectPanel(project models.Item) *ProjectPanel {
	return &ProjectPanel{
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		project: project,
	}
}

func (p *ProjectPanel) SetSize(width, height int) {
	p.width, p.height = width, height
}

// ProjectID is the project on display
func (p *ProjectPanel) ProjectID() string {
	return p.project.ID
}

// SetProject replaces the project and its task list, keeping the cursor on
// the same task
func (p *ProjectPanel) SetProject(project models.Item, tasks []models.Item, hideCompleted bool) {
	selected, hadSelection := p.Selected()
	p.project = project
	p.tasks = tasks
	p.hideCompleted = hideCompleted

	if hadSelection {
		for i, t := range tasks {
			if t.ID == selected.ID {
				p.cursor = i
				break
			}
		}
	}
	p.cursor = clamp(p.cursor, 0, max(len(tasks)-1, 0))
}

// Selected returns the task under the cursor
func (p *ProjectPanel) Selected() (models.Item, bool) {
	if p.cursor < 0 || p.cursor >= len(p.tasks) {
		return models.Item{}, false
	}
	return p.tasks[p.cursor], true
}

func (p *ProjectPanel) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, p.keys.Back), msg.String() == "q", key.Matches(msg, p.keys.Details):
		return send(Closed{})

	case key.Matches(msg, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
		return nil

	case key.Matches(msg, p.keys.Down):
		if p.cursor < len(p.tasks)-1 {
			p.cursor++
		}
		return nil

	case key.Matches(msg, p.keys.ShowCompleted):
		return send(ToggleProjectTasksCompleted{})

	case key.Matches(msg, p.keys.New), key.Matches(msg, p.keys.NewTask):
		return send(EditItem{Item: models.Item{Kind: models.KindTask, ParentID: p.project.ID}})

	case key.Matches(msg, p.keys.Enter):
		if t, ok := p.Selected(); ok {
			return send(EditItem{Item: t})
		}
		return nil
	}

	if t, ok := p.Selected(); ok {
		if cmd, handled := itemAction(p.keys, msg, t); handled {
			return cmd
		}
	}
	return nil
}

func (p *ProjectPanel) View() string {
	s := p.styles
	contentWidth := styles.ContentWidth(p.width)
	width := max(contentWidth-4, 20)

	dates := dueLabel(p.project.DueDate)
	if p.project.StartDate != "" {
		dates = "starts " + p.project.StartDate + " · " + dates
	}
	lines := []string{
		s.Title.Render(p.project.Title),
		styles.Status(p.project.Status) + "  " + styles.Priority(p.project.Priority) + "  " + s.TitleMuted.Render(dates),
	}
	if d := strings.TrimSpace(p.project.Description); d != "" {
		lines = append(lines, "", lipgloss.NewStyle().Width(width).Render(d))
	}

	header := fmt.Sprintf("Tasks (%d)", len(p.tasks))
	if p.hideCompleted {
		header += s.TitleMuted.Render(" · hiding done")
	}
	lines = append(lines, "", s.GroupHeader.Render(header))

	if len(p.tasks) == 0 {
		lines = append(lines, s.TitleMuted.Render("No tasks. Press 't' to add one."))
	}
	for i, t := range p.tasks {
		style := s.TaskItem
		if i == p.cursor {
			style = s.ListSelected
		}
		line := s.TaskTitle.Render(t.Title) + "  " +
			styles.Status(t.Status) + "  " +
			s.TaskPriority.Foreground(styles.PriorityColor(t.Priority)).Render(string(t.Priority)) + "  " +
			s.TitleMuted.Render(dueLabel(t.DueDate))
		lines = append(lines, style.Width(width).MaxHeight(1).Render(line))
	}

	lines = append(lines, "", s.TitleMuted.Render("↵: edit • t: new task • s/p: status/priority • c: hide done • Esc: close"))

	body := lipgloss.Place(contentWidth, p.height, lipgloss.Left, lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, lines...))
	return styles.CenterView(body, p.width, p.height)
}
