package views

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
)

type editorField int

const (
	fieldTitle editorField = iota
	fieldDescription
	fieldStatus
	fieldPriority
	fieldStart
	fieldDue
	fieldOwner
	fieldSave
	fieldCount
)

// Owner is a choice for the project of a task or the workspace of a project
type Owner struct {
	ID    string
	Label string
}

// Editor is the form for creating and editing a project or task
type Editor struct {
	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	item  models.Item
	isNew bool

	title    textinput.Model
	desc     textarea.Model
	start    textinput.Model
	due      textinput.Model
	status   models.Status
	priority models.Priority
	owners   []Owner
	owner    int

	focus editorField
	err   string
}

// NewEditor opens item in the form. A zero item.ID creates a new item,
// prefilled with the creation defaults.
func NewEditor(item models.Item, owners []Owner, today string) *Editor {
	e := &Editor{
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		item:   item,
		isNew:  item.ID == "",
		owners: owners,
	}

	e.title = textinput.New()
	e.title.Placeholder = item.Kind.String() + " title"
	e.title.CharLimit = 200
	e.title.SetValue(item.Title)

	e.desc = textarea.New()
	e.desc.Placeholder = "Description"
	e.desc.CharLimit = 2000
	e.desc.SetWidth(50)
	e.desc.SetHeight(3)
	e.desc.ShowLineNumbers = false
	e.desc.SetValue(item.Description)

	e.start = textinput.New()
	e.start.Placeholder = "YYYY-MM-DD"
	e.start.CharLimit = len(models.DateLayout)
	e.due = textinput.New()
	e.due.Placeholder = "YYYY-MM-DD"
	e.due.CharLimit = len(models.DateLayout)

	e.status, e.priority = item.Status, item.Priority
	start := item.StartDate
	if e.isNew {
		if e.status == "" {
			e.status = models.StatusToDo
		}
		if e.priority == "" {
			e.priority = models.PriorityLow
		}
		if start == "" {
			start = today
		}
	}
	e.start.SetValue(start)
	e.due.SetValue(item.DueDate)

	ownerID := item.WorkspaceID
	if item.IsTask() {
		ownerID = item.ParentID
	}
	if i := slices.IndexFunc(owners, func(o Owner) bool { return o.ID == ownerID }); i >= 0 {
		e.owner = i
	}

	e.updateFocus()
	return e
}

func (e *Editor) SetSize(width, height int) {
	e.width, e.height = width, height
	e.desc.SetWidth(clamp(styles.ContentWidth(width)-10, 20, 50))
}

// choice reports whether the focused field cycles through fixed values
func (e *Editor) choice() bool {
	return e.focus == fieldStatus || e.focus == fieldPriority || e.focus == fieldOwner
}

func (e *Editor) cycle(dir int) {
	switch e.focus {
	case fieldStatus:
		i := slices.Index(models.Statuses, e.status)
		e.status = models.Statuses[(i+dir+len(models.Statuses))%len(models.Statuses)]
	case fieldPriority:
		i := slices.Index(models.Priorities, e.priority)
		e.priority = models.Priorities[(i+dir+len(models.Priorities))%len(models.Priorities)]
	case fieldOwner:
		if len(e.owners) > 0 {
			e.owner = (e.owner + dir + len(e.owners)) % len(e.owners)
		}
	}
}

func (e *Editor) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, e.keys.Back):
		return send(Closed{})

	case key.Matches(msg, e.keys.Save):
		return e.save()

	case key.Matches(msg, e.keys.Tab):
		e.focus = (e.focus + 1) % fieldCount
		e.updateFocus()
		return nil

	case msg.String() == "shift+tab":
		e.focus = (e.focus + fieldCount - 1) % fieldCount
		e.updateFocus()
		return nil

	case key.Matches(msg, e.keys.Enter):
		switch e.focus {
		case fieldSave:
			return e.save()
		case fieldDescription:
			// newline in the textarea
		default:
			e.focus++
			e.updateFocus()
			return nil
		}
	}

	if e.choice() {
		switch {
		case key.Matches(msg, e.keys.Left):
			e.cycle(-1)
		case key.Matches(msg, e.keys.Right), msg.String() == " ":
			e.cycle(1)
		}
		return nil
	}

	var cmd tea.Cmd
	switch e.focus {
	case fieldTitle:
		e.title, cmd = e.title.Update(msg)
	case fieldDescription:
		e.desc, cmd = e.desc.Update(msg)
	case fieldStart:
		e.start, cmd = e.start.Update(msg)
	case fieldDue:
		e.due, cmd = e.due.Update(msg)
	}
	return cmd
}

func (e *Editor) updateFocus() {
	e.title.Blur()
	e.desc.Blur()
	e.start.Blur()
	e.due.Blur()

	switch e.focus {
	case fieldTitle:
		e.title.Focus()
	case fieldDescription:
		e.desc.Focus()
	case fieldStart:
		e.start.Focus()
	case fieldDue:
		e.due.Focus()
	}
}

// save validates the form and turns it into an add or update request
func (e *Editor) save() tea.Cmd {
	title := strings.TrimSpace(e.title.Value())
	if title == "" {
		e.err = "title is required"
		return nil
	}

	start := strings.TrimSpace(e.start.Value())
	due := strings.TrimSpace(e.due.Value())
	startAt, hasStart := models.ParseDate(start)
	dueAt, hasDue := models.ParseDate(due)
	switch {
	case start != "" && !hasStart:
		e.err = "start date must be YYYY-MM-DD"
		return nil
	case due != "" && !hasDue:
		e.err = "due date must be YYYY-MM-DD"
		return nil
	case hasStart && hasDue && dueAt.Before(startAt):
		e.err = "due date is before start date"
		return nil
	}

	var owner string
	if len(e.owners) > 0 {
		owner = e.owners[e.owner].ID
	}
	if e.item.IsTask() && owner == "" {
		e.err = "create a project first"
		return nil
	}

	desc := strings.TrimSpace(e.desc.Value())
	status, priority := e.status, e.priority

	if e.isNew {
		n := models.NewItem{
			Kind:        e.item.Kind,
			Title:       title,
			Priority:    priority,
			Status:      status,
			StartDate:   start,
			DueDate:     due,
			Description: desc,
		}
		if e.item.IsTask() {
			n.ParentID = owner
		} else {
			n.WorkspaceID = owner
		}
		return send(AddItemRequest{Item: n})
	}

	req := UpdateItemRequest{
		ID: e.item.ID,
		Patch: models.ItemPatch{
			Title:       &title,
			Priority:    &priority,
			Status:      &status,
			StartDate:   &start,
			DueDate:     &due,
			Description: &desc,
		},
	}
	switch {
	case e.item.IsTask():
		req.Patch.ParentID = &owner
	case owner != "" && owner != e.item.WorkspaceID:
		req.MoveTo = owner
	}
	return send(req)
}

// View renders the form
func (e *Editor) View() string {
	s := e.styles
	contentWidth := styles.ContentWidth(e.width)

	kind := "Project"
	ownerLabel := "Workspace:"
	if e.item.IsTask() {
		kind = "Task"
		ownerLabel = "Project:"
	}
	formTitle := "Edit " + kind
	if e.isNew {
		formTitle = "New " + kind
	}

	field := func(f editorField) lipgloss.Style {
		if e.focus == f {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if e.focus == fieldSave {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	owner := s.TitleMuted.Render("none")
	if len(e.owners) > 0 {
		owner = "‹ " + e.owners[e.owner].Label + " ›"
	}

	dates := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, "Start:", field(fieldStart).Width(14).Render(e.start.View())),
		"  ",
		lipgloss.JoinVertical(lipgloss.Left, "Due:", field(fieldDue).Width(14).Render(e.due.View())),
	)
	choices := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, "Status:", field(fieldStatus).Width(14).Render("‹ "+styles.Status(e.status)+" ›")),
		"  ",
		lipgloss.JoinVertical(lipgloss.Left, "Priority:", field(fieldPriority).Width(14).Render("‹ "+styles.Priority(e.priority)+" ›")),
	)

	errLine := ""
	if e.err != "" {
		errLine = s.Error.Render(e.err)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Title:",
		field(fieldTitle).Width(inputWidth).Render(e.title.View()),
		"Description:",
		field(fieldDescription).Render(e.desc.View()),
		choices,
		dates,
		ownerLabel,
		field(fieldOwner).Width(inputWidth).Render(owner),
		"",
		btnStyle.Render(" Save "),
		errLine,
		s.TitleMuted.Render("Tab: next • ←→/Space: change • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, e.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, e.width, e.height)
}
