package views

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/plan/internal/derive"
	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
)

// projectItem is one row of the Projects list: a project, or one of its
// tasks when the project is expanded
type projectItem struct {
	item     models.Item
	nested   bool
	expanded bool
	tasks    int
}

func (i projectItem) FilterValue() string { return i.item.Title }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 1 }
func (d projectDelegate) Spacing() int                              { return 0 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	width := max(d.width-4, 20)
	style := d.styles.ListItem
	if index == m.Index() {
		style = d.styles.ListSelected
	}

	var line string
	if p.nested {
		line = fmt.Sprintf("    • %s  %s  %s",
			p.item.Title, styles.Status(p.item.Status), d.styles.TitleMuted.Render(dueLabel(p.item.DueDate)))
	} else {
		marker := "▸"
		if p.expanded {
			marker = "▾"
		}
		line = fmt.Sprintf("%s %s  %s  %s  %s",
			marker, p.item.Title, styles.Status(p.item.Status), styles.Priority(p.item.Priority),
			d.styles.TitleMuted.Render(fmt.Sprintf("%s · %d tasks", dueLabel(p.item.DueDate), p.tasks)))
	}
	fmt.Fprint(w, style.Width(width).MaxHeight(1).Render(line))
}

// ProjectsView lists the projects of the current workspace with
// expandable task lists
type ProjectsView struct {
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int

	rows     []derive.ProjectRow
	expanded map[string]bool
}

func NewProjectsView() *ProjectsView {
	s := styles.NewStyles()

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = s.Title
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)

	return &ProjectsView{
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		expanded: map[string]bool{},
	}
}

// SetSize sets the area available to the list
func (v *ProjectsView) SetSize(width, height int) {
	v.width, v.height = width, height
	contentWidth := styles.ContentWidth(width)
	v.delegate.width = contentWidth
	v.list.SetSize(contentWidth-4, max(height, 3))
}

// SetRows replaces the rows, keeping the selection on the same item
func (v *ProjectsView) SetRows(rows []derive.ProjectRow) {
	selected, _ := v.Selected()
	v.rows = rows
	v.rebuild(selected.ID)
}

func (v *ProjectsView) rebuild(selectID string) {
	var items []list.Item
	cursor := 0
	for _, row := range v.rows {
		open := v.expanded[row.Project.ID]
		if row.Project.ID == selectID {
			cursor = len(items)
		}
		items = append(items, projectItem{item: row.Project, expanded: open, tasks: len(row.Tasks)})
		if !open {
			continue
		}
		for _, t := range row.Tasks {
			if t.ID == selectID {
				cursor = len(items)
			}
			items = append(items, projectItem{item: t, nested: true})
		}
	}
	v.list.SetItems(items)
	if len(items) > 0 {
		v.list.Select(min(cursor, len(items)-1))
	}
}

// Selected returns the item under the cursor
func (v *ProjectsView) Selected() (models.Item, bool) {
	p, ok := v.list.SelectedItem().(projectItem)
	return p.item, ok
}

// selectedProject returns the project under the cursor, or the project of
// the task under the cursor
func (v *ProjectsView) selectedProject() (models.Item, bool) {
	it, ok := v.Selected()
	if !ok {
		return models.Item{}, false
	}
	if it.IsProject() {
		return it, true
	}
	for _, row := range v.rows {
		if row.Project.ID == it.ParentID {
			return row.Project, true
		}
	}
	return models.Item{}, false
}

func (v *ProjectsView) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.New):
		return send(EditItem{Item: models.Item{Kind: models.KindProject}})

	case key.Matches(msg, v.keys.NewTask):
		if p, ok := v.selectedProject(); ok {
			v.expanded[p.ID] = true
			return send(EditItem{Item: models.Item{Kind: models.KindTask, ParentID: p.ID}})
		}
		return nil

	case key.Matches(msg, v.keys.Details):
		if p, ok := v.selectedProject(); ok {
			return send(OpenProject{ID: p.ID})
		}
		return nil

	case key.Matches(msg, v.keys.Enter):
		it, ok := v.Selected()
		if !ok {
			return nil
		}
		if it.IsTask() {
			return send(EditItem{Item: it})
		}
		v.expanded[it.ID] = !v.expanded[it.ID]
		v.rebuild(it.ID)
		return nil
	}

	if it, ok := v.Selected(); ok {
		if cmd, handled := itemAction(v.keys, msg, it); handled {
			return cmd
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return cmd
}

// View renders the view
func (v *ProjectsView) View() string {
	if len(v.rows) == 0 {
		return v.renderEmpty()
	}
	return v.list.View()
}

func (v *ProjectsView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create a project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)

	return lipgloss.Place(contentWidth, max(v.height, 7),
		lipgloss.Center, lipgloss.Center,
		content,
	)
}

// HelpItems lists the keys of this view for the help popup
func (v *ProjectsView) HelpItems() [][2]string {
	return [][2]string{
		{"↵", "expand project / edit task"},
		{"n", "new project"},
		{"t", "new task in project"},
		{"v", "project details"},
		{"e", "edit"},
		{"d", "delete"},
		{"s", "cycle status"},
		{"p", "cycle priority"},
		{"o", "sort by title / due date"},
	}
}
