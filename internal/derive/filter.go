// Package derive computes the ordered and grouped lists shown by each view
// from a planner snapshot. Nothing here mutates the snapshot.
package derive

import (
	"fmt"
	"strings"

	"github.com/tgienger/plan/internal/models"
)

// ProjectSort selects the ordering of the Projects view
type ProjectSort string

const (
	SortTitle ProjectSort = "title"
	SortDate  ProjectSort = "date"
)

// CalendarMode selects how items are placed on calendar days
type CalendarMode string

const (
	// ModeDueDate shows an item on its due date only
	ModeDueDate CalendarMode = "duedate"
	// ModeTimespan shows an item on every day from its start to its due date
	ModeTimespan CalendarMode = "timespan"
)

// ParseProjectSort accepts "title" or "date"; empty means title
func ParseProjectSort(s string) (ProjectSort, error) {
	switch ProjectSort(s) {
	case "", SortTitle:
		return SortTitle, nil
	case SortDate:
		return SortDate, nil
	}
	return "", fmt.Errorf("unknown project sort %q", s)
}

// ParseCalendarMode accepts "duedate" or "timespan"; empty means duedate
func ParseCalendarMode(s string) (CalendarMode, error) {
	switch CalendarMode(s) {
	case "", ModeDueDate:
		return ModeDueDate, nil
	case ModeTimespan:
		return ModeTimespan, nil
	}
	return "", fmt.Errorf("unknown calendar mode %q", s)
}

// Filters are the view parameters chosen by the user. Each view has its
// own completed filter.
type Filters struct {
	Search                    string
	HideCompletedProjects     bool
	HideCompletedTasks        bool
	HideCompletedProjectTasks bool
	HideCompletedCalendar     bool
	ProjectSort               ProjectSort
	CalendarMode              CalendarMode
}

// DefaultFilters hides completed work on the Tasks view only
func DefaultFilters() Filters {
	return Filters{
		HideCompletedTasks: true,
		ProjectSort:        SortTitle,
		CalendarMode:       ModeDueDate,
	}
}

// HideCompleted sets the completed filter of every view
func (f Filters) HideCompleted(hide bool) Filters {
	f.HideCompletedProjects = hide
	f.HideCompletedTasks = hide
	f.HideCompletedProjectTasks = hide
	f.HideCompletedCalendar = hide
	return f
}

// matches reports whether the search term is a case-insensitive substring
// of the item's title or description
func (f Filters) matches(it models.Item) bool {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(it.Title), term) ||
		strings.Contains(strings.ToLower(it.Description), term)
}

// keep applies the search and, when hideCompleted is set, drops complete items
func (f Filters) keep(it models.Item, hideCompleted bool) bool {
	if hideCompleted && it.Status == models.StatusComplete {
		return false
	}
	return f.matches(it)
}
