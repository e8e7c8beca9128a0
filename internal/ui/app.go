package ui

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/plan/internal/derive"
	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
	"github.com/tgienger/plan/internal/ui/views"
)

// Planner is the state the App renders and mutates
type Planner interface {
	Snapshot() models.Snapshot
	Version() uint64
	AddItem(ctx context.Context, n models.NewItem) (models.Item, error)
	UpdateItem(ctx context.Context, itemID string, patch models.ItemPatch) (models.Item, bool, error)
	MoveProject(ctx context.Context, projectID, workspaceID string) error
	DeleteItem(ctx context.Context, itemID string) error
	CreateWorkspace(ctx context.Context, name string) (models.Workspace, error)
	RenameWorkspace(ctx context.Context, id, newName string) error
	DeleteWorkspace(ctx context.Context, id string) error
	SwitchWorkspace(ctx context.Context, id string) error
	ToggleWorkspaceLink(ctx context.Context, targetID string, linked bool) error
}

// Currently active tab
type Tab int

const (
	TabProjects Tab = iota
	TabTasks
	TabCalendar
)

var tabNames = []string{"Projects", "Tasks", "Calendar"}

// mutationDoneMsg reports a finished planner call
type mutationDoneMsg struct {
	op  string
	err error
}

// changedMsg reports that the planner state moved on outside the App
type changedMsg struct{}

type Option func(*App)

// WithChanges makes the App redraw whenever a version arrives on ch
func WithChanges(ch <-chan uint64) Option {
	return func(a *App) { a.changes = ch }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// WithFilters sets the initial sort, calendar mode and completed filters
func WithFilters(f derive.Filters) Option {
	return func(a *App) { a.filters = f }
}

type App struct {
	ctx     context.Context
	planner Planner
	changes <-chan uint64
	now     func() time.Time

	styles *styles.Styles
	keys   keys.KeyMap
	width  int
	height int

	tab      Tab
	projects *views.ProjectsView
	tasks    *views.TasksView
	calendar *views.CalendarView
	// panel is the project detail panel; overlay is drawn above it
	panel   *views.ProjectPanel
	overlay views.Overlay

	search    textinput.Model
	searching bool
	filters   derive.Filters
	year      int
	month     time.Month

	snap   models.Snapshot
	views  derive.Views
	status string
	err    string
}

// Creates a new application
func NewApp(ctx context.Context, p Planner, opts ...Option) *App {
	search := textinput.New()
	search.Placeholder = "Search titles and descriptions..."
	search.CharLimit = 100

	a := &App{
		ctx:      ctx,
		planner:  p,
		now:      time.Now,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		projects: views.NewProjectsView(),
		tasks:    views.NewTasksView(),
		calendar: views.NewCalendarView(),
		search:   search,
		filters:  derive.DefaultFilters(),
	}
	for _, opt := range opts {
		opt(a)
	}
	today := a.now()
	a.year, a.month = today.Year(), today.Month()
	return a
}

func (a *App) Init() tea.Cmd {
	a.refresh(a.now().Day())
	return a.waitForChange()
}

func (a *App) waitForChange() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	ch := a.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// refresh recomputes every view from a fresh snapshot. selectDay is passed
// to the calendar.
func (a *App) refresh(selectDay int) {
	a.snap = a.planner.Snapshot()
	a.views = derive.All(a.snap, a.filters, a.year, int(a.month))

	current := a.snap.CurrentWorkspaceID
	a.projects.SetRows(a.views.Projects)
	a.tasks.SetGroups(a.views.Tasks, a.views.Workspaces, current)
	a.calendar.SetMonth(a.views.Calendar, a.now().Format(models.DateLayout), selectDay)

	if a.panel != nil {
		p, ok := a.snap.Item(a.panel.ProjectID())
		if ok && p.IsProject() && p.WorkspaceID == current {
			a.panel.SetProject(p, derive.ProjectTasks(a.snap, p.ID, a.filters.HideCompletedProjectTasks), a.filters.HideCompletedProjectTasks)
		} else {
			a.panel = nil
		}
	}

	switch o := a.overlay.(type) {
	case *views.WorkspaceMenu:
		o.SetWorkspaces(a.snap.Workspaces, current)
	case *views.LinkMenu:
		o.SetWorkspaces(a.snap.Workspaces, current)
	}
}

// stale reports whether the planner moved past the rendered version
func (a *App) stale() bool {
	return a.planner.Version() != a.views.Version
}

func (a *App) layout() {
	chrome := 5
	if a.searchShown() {
		chrome += 3
	}
	h := max(a.height-chrome, 3)
	a.projects.SetSize(a.width, h)
	a.tasks.SetSize(a.width, h)
	a.calendar.SetSize(a.width, h)
	if a.panel != nil {
		a.panel.SetSize(a.width, a.height)
	}
	if a.overlay != nil {
		a.overlay.SetSize(a.width, a.height)
	}
}

func (a *App) searchShown() bool {
	return a.searching || a.filters.Search != ""
}

func (a *App) open(o views.Overlay) {
	a.overlay = o
	a.overlay.SetSize(a.width, a.height)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.stale() {
			a.refresh(0)
		}
		switch {
		case a.overlay != nil:
			return a, a.overlay.Update(msg)
		case a.panel != nil:
			return a, a.panel.Update(msg)
		}
		return a, a.handleKey(msg)

	case mutationDoneMsg:
		if msg.err != nil {
			slog.Warn("mutation failed", "op", msg.op, "err", msg.err)
			a.err = msg.err.Error()
			a.status = ""
		} else {
			a.err = ""
			a.status = msg.op
		}
		a.refresh(0)
		return a, nil

	case changedMsg:
		a.refresh(0)
		return a, a.waitForChange()

	case views.ChangeMonth:
		a.shiftMonth(msg.Delta)
		selectDay := 1
		if msg.SelectLast {
			selectDay = -1
		}
		a.refresh(selectDay)
		return a, nil

	case views.GoToday:
		today := a.now()
		a.year, a.month = today.Year(), today.Month()
		a.refresh(today.Day())
		return a, nil

	case views.EditItem:
		if msg.Item.IsProject() && msg.Item.WorkspaceID == "" {
			msg.Item.WorkspaceID = a.snap.CurrentWorkspaceID
		}
		a.open(views.NewEditor(msg.Item, a.owners(msg.Item), a.now().Format(models.DateLayout)))
		return a, nil

	case views.ConfirmDelete:
		a.open(views.NewConfirm(msg))
		return a, nil

	case views.OpenProject:
		if p, ok := a.snap.Item(msg.ID); ok && p.IsProject() {
			a.panel = views.NewProjectPanel(p)
			a.panel.SetSize(a.width, a.height)
			a.refresh(0)
		}
		return a, nil

	case views.ToggleProjectTasksCompleted:
		a.filters.HideCompletedProjectTasks = !a.filters.HideCompletedProjectTasks
		a.refresh(0)
		return a, nil

	case views.Closed:
		if a.overlay != nil {
			a.overlay = nil
		} else {
			a.panel = nil
		}
		return a, nil

	case views.ToggleLinkRequest:
		return a, a.mutate(msg)

	case views.AddItemRequest, views.UpdateItemRequest, views.DeleteItemRequest,
		views.CreateWorkspaceRequest, views.RenameWorkspaceRequest,
		views.DeleteWorkspaceRequest, views.SwitchWorkspaceRequest:
		a.overlay = nil
		return a, a.mutate(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.searching {
		return a.updateSearch(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit

	case key.Matches(msg, a.keys.Tab):
		a.tab = (a.tab + 1) % Tab(len(tabNames))
		return nil

	case msg.String() == "shift+tab":
		a.tab = (a.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
		return nil

	case msg.String() == "1", msg.String() == "2", msg.String() == "3":
		a.tab = Tab(msg.String()[0] - '1')
		return nil

	case key.Matches(msg, a.keys.Help):
		a.open(views.NewHelp(a.helpItems()))
		return nil

	case key.Matches(msg, a.keys.Search):
		a.searching = true
		a.layout()
		return a.search.Focus()

	case key.Matches(msg, a.keys.Back):
		if a.filters.Search != "" {
			a.search.Reset()
			a.filters.Search = ""
			a.layout()
			a.refresh(0)
		}
		return nil

	case key.Matches(msg, a.keys.ShowCompleted):
		switch a.tab {
		case TabTasks:
			a.filters.HideCompletedTasks = !a.filters.HideCompletedTasks
		case TabCalendar:
			a.filters.HideCompletedCalendar = !a.filters.HideCompletedCalendar
		default:
			a.filters.HideCompletedProjects = !a.filters.HideCompletedProjects
		}
		a.refresh(0)
		return nil

	case key.Matches(msg, a.keys.Sort) && a.tab == TabProjects:
		if a.filters.ProjectSort == derive.SortDate {
			a.filters.ProjectSort = derive.SortTitle
		} else {
			a.filters.ProjectSort = derive.SortDate
		}
		a.refresh(0)
		return nil

	case key.Matches(msg, a.keys.CalendarMode) && a.tab == TabCalendar:
		if a.filters.CalendarMode == derive.ModeTimespan {
			a.filters.CalendarMode = derive.ModeDueDate
		} else {
			a.filters.CalendarMode = derive.ModeTimespan
		}
		a.refresh(0)
		return nil

	case key.Matches(msg, a.keys.Workspaces):
		a.open(views.NewWorkspaceMenu(a.snap.Workspaces, a.snap.CurrentWorkspaceID))
		return nil

	case key.Matches(msg, a.keys.Links):
		if _, ok := a.snap.CurrentWorkspace(); ok {
			a.open(views.NewLinkMenu(a.snap.Workspaces, a.snap.CurrentWorkspaceID))
		}
		return nil
	}

	switch a.tab {
	case TabTasks:
		return a.tasks.Update(msg)
	case TabCalendar:
		return a.calendar.Update(msg)
	}
	return a.projects.Update(msg)
}

func (a *App) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Back):
		a.searching = false
		a.search.Blur()
		a.search.Reset()
		a.filters.Search = ""
		a.layout()
		a.refresh(0)
		return nil

	case key.Matches(msg, a.keys.Enter), key.Matches(msg, a.keys.Tab):
		a.searching = false
		a.search.Blur()
		a.layout()
		return nil
	}

	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	if term := strings.TrimSpace(a.search.Value()); term != a.filters.Search {
		a.filters.Search = term
		a.refresh(0)
	}
	return cmd
}

func (a *App) shiftMonth(delta int) {
	first := time.Date(a.year, a.month+time.Month(delta), 1, 0, 0, 0, 0, time.Local)
	a.year, a.month = first.Year(), first.Month()
}

// mutate runs the planner call behind a request off the update loop
func (a *App) mutate(msg tea.Msg) tea.Cmd {
	ctx, p := a.ctx, a.planner
	run := func(op string, fn func() error) tea.Cmd {
		return func() tea.Msg {
			return mutationDoneMsg{op: op, err: fn()}
		}
	}

	switch req := msg.(type) {
	case views.AddItemRequest:
		return run("created "+req.Item.Title, func() error {
			_, err := p.AddItem(ctx, req.Item)
			return err
		})

	case views.UpdateItemRequest:
		return run("saved", func() error {
			if _, _, err := p.UpdateItem(ctx, req.ID, req.Patch); err != nil {
				return err
			}
			if req.MoveTo != "" {
				return p.MoveProject(ctx, req.ID, req.MoveTo)
			}
			return nil
		})

	case views.DeleteItemRequest:
		return run("deleted", func() error { return p.DeleteItem(ctx, req.ID) })

	case views.CreateWorkspaceRequest:
		return run("created workspace "+req.Name, func() error {
			_, err := p.CreateWorkspace(ctx, req.Name)
			return err
		})

	case views.RenameWorkspaceRequest:
		return run("renamed workspace", func() error { return p.RenameWorkspace(ctx, req.ID, req.Name) })

	case views.DeleteWorkspaceRequest:
		return run("deleted workspace", func() error { return p.DeleteWorkspace(ctx, req.ID) })

	case views.SwitchWorkspaceRequest:
		return run("switched workspace", func() error { return p.SwitchWorkspace(ctx, req.ID) })

	case views.ToggleLinkRequest:
		op := "unlinked"
		if req.Linked {
			op = "linked"
		}
		return run(op, func() error { return p.ToggleWorkspaceLink(ctx, req.ID, req.Linked) })
	}
	return nil
}

// owners lists the choices of the editor: projects of the visible
// workspaces for a task, every workspace for a project
func (a *App) owners(it models.Item) []views.Owner {
	var owners []views.Owner
	if it.IsProject() {
		for _, ws := range a.snap.Workspaces {
			owners = append(owners, views.Owner{ID: ws.ID, Label: ws.Name})
		}
		return owners
	}

	for _, ws := range a.views.Workspaces {
		var projects []models.Item
		for _, p := range a.snap.Items {
			if p.IsProject() && p.WorkspaceID == ws.ID {
				projects = append(projects, p)
			}
		}
		slices.SortFunc(projects, func(x, y models.Item) int {
			return cmp.Or(cmp.Compare(strings.ToLower(x.Title), strings.ToLower(y.Title)), cmp.Compare(x.ID, y.ID))
		})
		for _, p := range projects {
			label := p.Title
			if ws.ID != a.snap.CurrentWorkspaceID {
				label = ws.Name + " / " + p.Title
			}
			owners = append(owners, views.Owner{ID: p.ID, Label: label})
		}
	}
	return owners
}

func (a *App) helpItems() [][2]string {
	switch a.tab {
	case TabTasks:
		return a.tasks.HelpItems()
	case TabCalendar:
		return a.calendar.HelpItems()
	}
	return a.projects.HelpItems()
}

// hidingCompleted reports the completed filter of the active tab
func (a *App) hidingCompleted() bool {
	switch a.tab {
	case TabTasks:
		return a.filters.HideCompletedTasks
	case TabCalendar:
		return a.filters.HideCompletedCalendar
	}
	return a.filters.HideCompletedProjects
}

func (a *App) View() string {
	if a.overlay != nil {
		return a.overlay.View()
	}
	if a.panel != nil {
		return a.panel.View()
	}

	s := a.styles
	contentWidth := styles.ContentWidth(a.width)

	parts := []string{a.renderHeader(), a.renderTabs()}
	if a.searchShown() {
		parts = append(parts, s.FilterBar.Width(contentWidth-2).Render(a.search.View()))
	}

	var body string
	switch a.tab {
	case TabTasks:
		body = a.tasks.View()
	case TabCalendar:
		body = a.calendar.View()
	default:
		body = a.projects.View()
	}
	parts = append(parts, body, a.renderStatus())

	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), a.width, a.height)
}

func (a *App) renderHeader() string {
	s := a.styles
	name := "no workspace"
	if ws, ok := a.snap.CurrentWorkspace(); ok {
		name = ws.Name
	}
	title := s.Title.Render("plan") + s.TitleMuted.Render(" · ") + s.TitleBar.Render(name)
	if n := len(a.views.Workspaces) - 1; n > 0 {
		title += s.TitleMuted.Render(fmt.Sprintf(" +%d linked", n))
	}
	return title
}

func (a *App) renderTabs() string {
	s := a.styles
	var tabs []string
	for i, name := range tabNames {
		style := s.Tab
		if Tab(i) == a.tab {
			style = s.TabActive
		}
		tabs = append(tabs, style.Render(name))
	}

	var flags []string
	if a.hidingCompleted() {
		flags = append(flags, "hiding done")
	}
	if a.tab == TabProjects {
		flags = append(flags, "sort: "+string(a.filters.ProjectSort))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + s.FilterButton.Render(strings.Join(flags, " · "))
}

func (a *App) renderStatus() string {
	s := a.styles
	if a.err != "" {
		return s.Error.Render(a.err)
	}
	line := a.status
	if n := len(a.views.Orphans); n > 0 {
		if line != "" {
			line += " · "
		}
		line += fmt.Sprintf("%d tasks without a project", n)
	}
	help := s.HelpKey.Render("?") + s.HelpDesc.Render(" help")
	return s.StatusBar.Render(help + "  " + line)
}
