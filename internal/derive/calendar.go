package derive

import (
	"slices"
	"time"

	"github.com/tgienger/plan/internal/models"
)

// Month is a calendar page
type Month struct {
	Year  int
	Month time.Month
	Mode  CalendarMode
	// Offset is the weekday of the first day, Sunday = 0; a month grid
	// starts with this many blank cells
	Offset int
	Days   []Day
}

// Day is one calendar day and the items placed on it
type Day struct {
	Date    string
	Day     int
	Entries []Entry
}

// Entry is an item on a calendar day
type Entry struct {
	Item         models.Item
	ProjectTitle string
}

// Calendar places the dated items of the current workspace on the days of
// the given month. Projects count directly, tasks through their project.
func Calendar(snap models.Snapshot, f Filters, year int, month int) Month {
	mode := f.CalendarMode
	if mode == "" {
		mode = ModeDueDate
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	n := first.AddDate(0, 1, -1).Day()
	m := Month{
		Year:   first.Year(),
		Month:  first.Month(),
		Mode:   mode,
		Offset: int(first.Weekday()),
		Days:   make([]Day, n),
	}
	for i := range m.Days {
		m.Days[i] = Day{Date: first.AddDate(0, 0, i).Format(models.DateLayout), Day: i + 1}
	}

	idx := indexProjects(snap.Items)
	for _, it := range snap.Items {
		if it.DueDate == "" || !f.keep(it, f.HideCompletedCalendar) {
			continue
		}
		ws, ok := idx.workspaceOf(it)
		if !ok || ws != snap.CurrentWorkspaceID {
			continue
		}
		from, to, ok := span(it, mode)
		if !ok {
			continue
		}
		entry := Entry{Item: it}
		if it.IsTask() {
			entry.ProjectTitle = idx[it.ParentID].Title
		}
		for i := range m.Days {
			if d := m.Days[i].Date; d >= from && d <= to {
				m.Days[i].Entries = append(m.Days[i].Entries, entry)
			}
		}
	}

	c := newCollator()
	for i := range m.Days {
		slices.SortFunc(m.Days[i].Entries, func(a, b Entry) int { return c.byDueThenPriority(a.Item, b.Item) })
	}
	return m
}

// span returns the inclusive ISO date range an item occupies. Without a
// start date a timespan item is a point event on its due date.
func span(it models.Item, mode CalendarMode) (from, to string, ok bool) {
	if _, ok := models.ParseDate(it.DueDate); !ok {
		return "", "", false
	}
	if mode != ModeTimespan {
		return it.DueDate, it.DueDate, true
	}
	if _, ok := models.ParseDate(it.StartDate); ok {
		return it.StartDate, it.DueDate, true
	}
	return it.DueDate, it.DueDate, true
}

// Day returns the day with the given day-of-month, if the month has it
func (m Month) Day(n int) (Day, bool) {
	if n < 1 || n > len(m.Days) {
		return Day{}, false
	}
	return m.Days[n-1], true
}
