package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/plan/internal/derive"
	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/ui/keys"
	"github.com/tgienger/plan/internal/ui/styles"
)

// ChangeMonth asks the App to show another month
type ChangeMonth struct {
	Delta int
	// SelectLast selects the last day of the new month instead of the first
	SelectLast bool
}

// GoToday asks the App to show the current month
type GoToday struct{}

// CalendarView shows one month of dated items
type CalendarView struct {
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	month    derive.Month
	today    string
	selected int
	entry    int
}

func NewCalendarView() *CalendarView {
	return &CalendarView{
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		selected: 1,
	}
}

func (v *CalendarView) SetSize(width, height int) {
	v.width, v.height = width, height
}

// SetMonth replaces the month. selectDay picks a day; 0 keeps the current
// selection and -1 selects the last day.
func (v *CalendarView) SetMonth(m derive.Month, today string, selectDay int) {
	v.month = m
	v.today = today
	switch {
	case selectDay > 0:
		v.selected = selectDay
	case selectDay < 0:
		v.selected = len(m.Days)
	}
	v.selected = clamp(v.selected, 1, max(len(m.Days), 1))
	if d, ok := v.month.Day(v.selected); !ok || v.entry >= len(d.Entries) {
		v.entry = 0
	}
}

// SelectedDay returns the highlighted day
func (v *CalendarView) SelectedDay() (derive.Day, bool) {
	return v.month.Day(v.selected)
}

// Selected returns the highlighted entry of the selected day
func (v *CalendarView) Selected() (models.Item, bool) {
	d, ok := v.SelectedDay()
	if !ok || v.entry >= len(d.Entries) {
		return models.Item{}, false
	}
	return d.Entries[v.entry].Item, true
}

func (v *CalendarView) move(delta int) tea.Cmd {
	next := v.selected + delta
	v.entry = 0
	switch {
	case next < 1:
		return send(ChangeMonth{Delta: -1, SelectLast: true})
	case next > len(v.month.Days):
		return send(ChangeMonth{Delta: 1})
	}
	v.selected = next
	return nil
}

func (v *CalendarView) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Left):
		return v.move(-1)
	case key.Matches(msg, v.keys.Right):
		return v.move(1)
	case key.Matches(msg, v.keys.Up):
		return v.move(-7)
	case key.Matches(msg, v.keys.Down):
		return v.move(7)
	case key.Matches(msg, v.keys.PrevMonth):
		return send(ChangeMonth{Delta: -1})
	case key.Matches(msg, v.keys.NextMonth):
		return send(ChangeMonth{Delta: 1})
	case key.Matches(msg, v.keys.Today):
		return send(GoToday{})

	case key.Matches(msg, v.keys.Enter):
		if d, ok := v.SelectedDay(); ok && len(d.Entries) > 0 {
			v.entry = (v.entry + 1) % len(d.Entries)
		}
		return nil

	case key.Matches(msg, v.keys.New):
		if d, ok := v.SelectedDay(); ok {
			return send(EditItem{Item: models.Item{Kind: models.KindTask, DueDate: d.Date}})
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

// View renders the view
func (v *CalendarView) View() string {
	s := v.styles
	m := v.month

	title := s.Title.Render(fmt.Sprintf("%s %d", m.Month, m.Year)) + "  " +
		s.TitleMuted.Render("mode: "+string(m.Mode))

	var header []string
	for _, wd := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		header = append(header, s.Day.Render(wd))
	}

	var weeks []string
	week := make([]string, 0, 7)
	for i := 0; i < m.Offset; i++ {
		week = append(week, s.DayOutside.Render(""))
	}
	for _, d := range m.Days {
		style := s.Day
		switch {
		case d.Day == v.selected:
			style = s.DaySelect
		case d.Date == v.today:
			style = s.DayToday
		case len(d.Entries) > 0:
			style = s.DayBusy
		}
		week = append(week, style.Render(fmt.Sprint(d.Day)))
		if len(week) == 7 {
			weeks = append(weeks, lipgloss.JoinHorizontal(lipgloss.Top, week...))
			week = make([]string, 0, 7)
		}
	}
	if len(week) > 0 {
		weeks = append(weeks, lipgloss.JoinHorizontal(lipgloss.Top, week...))
	}

	grid := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}, weeks...)...,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, "", grid, "", v.renderDay())
}

func (v *CalendarView) renderDay() string {
	s := v.styles
	d, ok := v.SelectedDay()
	if !ok {
		return ""
	}
	if len(d.Entries) == 0 {
		return s.TitleMuted.Render(d.Date + ": nothing due")
	}

	width := max(styles.ContentWidth(v.width)-4, 20)
	lines := []string{s.TitleMuted.Render(d.Date)}
	for i, e := range d.Entries {
		style := s.ListItem
		if i == v.entry {
			style = s.ListSelected
		}
		label := e.Item.Title
		if e.ProjectTitle != "" {
			label = e.ProjectTitle + " / " + label
		}
		span := ""
		if v.month.Mode == derive.ModeTimespan && e.Item.StartDate != "" && e.Item.StartDate != e.Item.DueDate {
			span = s.TitleMuted.Render(" " + e.Item.StartDate + " → " + e.Item.DueDate)
		}
		line := fmt.Sprintf("%s  %s  %s%s", label, styles.Priority(e.Item.Priority), styles.Status(e.Item.Status), span)
		lines = append(lines, style.Width(width).MaxHeight(1).Render(line))
	}
	return strings.Join(lines, "\n")
}

// HelpItems lists the keys of this view for the help popup
func (v *CalendarView) HelpItems() [][2]string {
	return [][2]string{
		{"←↑↓→", "move day"},
		{"[ / ]", "previous / next month"},
		{".", "today"},
		{"↵", "next item on day"},
		{"n", "new task due on day"},
		{"e", "edit item"},
		{"d", "delete item"},
		{"s / p", "cycle status / priority"},
		{"m", "due date / timespan mode"},
	}
}
