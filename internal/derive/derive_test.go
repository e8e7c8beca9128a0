package derive

import (
	"slices"
	"testing"

	"github.com/tgienger/plan/internal/models"
)

func project(id, ws, title string) models.Item {
	return models.Item{Kind: models.KindProject, ID: id, WorkspaceID: ws, Title: title,
		Priority: models.PriorityLow, Status: models.StatusToDo}
}

func task(id, parent, title string) models.Item {
	return models.Item{Kind: models.KindTask, ID: id, ParentID: parent, Title: title,
		Priority: models.PriorityLow, Status: models.StatusToDo}
}

func with(it models.Item, fn func(*models.Item)) models.Item {
	fn(&it)
	return it
}

func workspace(id, name string, links ...string) models.Workspace {
	ws := models.Workspace{ID: id, Name: name, LinkedWorkspaces: map[string]bool{}}
	for _, l := range links {
		ws.LinkedWorkspaces[l] = true
	}
	return ws
}

func snapshot(current string, workspaces []models.Workspace, items ...models.Item) models.Snapshot {
	return models.Snapshot{UID: "u", Items: items, Workspaces: workspaces, CurrentWorkspaceID: current, Version: 7}
}

func taskTitles(groups []StatusGroup) []string {
	var out []string
	for _, g := range groups {
		for _, r := range g.Tasks {
			out = append(out, r.Task.Title)
		}
	}
	return out
}

func TestProjectsViewAfterAdd(t *testing.T) {
	p1 := models.NewItem{Kind: models.KindProject, Title: "P1", WorkspaceID: "w1"}.Build("p1", "2024-06-01")
	snap := snapshot("w1", []models.Workspace{workspace("w1", "W1"), workspace("w2", "W2")},
		p1, project("other", "w2", "Elsewhere"))

	rows := Projects(snap, Filters{})
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want one project", rows)
	}
	got := rows[0].Project
	if got.Title != "P1" || got.Priority != models.PriorityLow || got.Status != models.StatusToDo {
		t.Errorf("project = %+v", got)
	}
}

func TestProjectsSortAndFilter(t *testing.T) {
	ws := []models.Workspace{workspace("w", "W")}
	items := []models.Item{
		with(project("a", "w", "beta"), func(i *models.Item) { i.DueDate = "2024-03-01" }),
		with(project("b", "w", "Alpha"), func(i *models.Item) { i.DueDate = "" }),
		with(project("c", "w", "gamma"), func(i *models.Item) { i.DueDate = "2024-01-15"; i.Status = models.StatusComplete }),
		with(task("t2", "a", "zeta"), func(i *models.Item) { i.Status = models.StatusComplete }),
		task("t1", "a", "eta"),
	}
	snap := snapshot("w", ws, items...)

	tests := []struct {
		name string
		f    Filters
		want []string
	}{
		{name: "Given title sort Then collated title order", f: Filters{}, want: []string{"Alpha", "beta", "gamma"}},
		{name: "Given date sort Then undated last", f: Filters{ProjectSort: SortDate}, want: []string{"gamma", "beta", "Alpha"}},
		{name: "Given hide completed Then complete projects dropped", f: Filters{HideCompletedProjects: true}, want: []string{"Alpha", "beta"}},
		{name: "Given a search term Then case-insensitive match", f: Filters{Search: "ALP"}, want: []string{"Alpha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Projects(snap, tt.f) {
				got = append(got, r.Project.Title)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	// nested tasks ignore the completed filter and are sorted by title
	rows := Projects(snap, Filters{}.HideCompleted(true))
	var nested []string
	for _, r := range rows {
		if r.Project.ID == "a" {
			for _, it := range r.Tasks {
				nested = append(nested, it.Title)
			}
		}
	}
	if !slices.Equal(nested, []string{"eta", "zeta"}) {
		t.Errorf("nested = %v", nested)
	}
}

func TestSearchMatchesDescription(t *testing.T) {
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		project("p", "w", "P"),
		with(task("t1", "p", "Errand"), func(i *models.Item) { i.Description = "Pick up the Parcel" }),
		task("t2", "p", "Other"),
	)
	if got := taskTitles(Tasks(snap, Filters{Search: "parcel"})); !slices.Equal(got, []string{"Errand"}) {
		t.Errorf("got %v", got)
	}
}

func TestTasksSearchFilter(t *testing.T) {
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		project("p", "w", "P"), task("t1", "p", "Buy milk"), task("t2", "p", "Call Bob"))

	if got := taskTitles(Tasks(snap, Filters{Search: "bob"})); !slices.Equal(got, []string{"Call Bob"}) {
		t.Errorf("got %v, want [Call Bob]", got)
	}
}

func TestTasksStatusGroupOrder(t *testing.T) {
	status := func(s models.Status) func(*models.Item) { return func(i *models.Item) { i.Status = s } }
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		project("p", "w", "P"),
		with(task("t1", "p", "a"), status(models.StatusComplete)),
		with(task("t2", "p", "b"), status(models.StatusToDo)),
		with(task("t3", "p", "c"), status(models.StatusDoNow)),
		with(task("t4", "p", "d"), status(models.StatusOnHold)),
	)

	var got []models.Status
	for _, g := range Tasks(snap, Filters{}) {
		got = append(got, g.Status)
	}
	want := []models.Status{models.StatusDoNow, models.StatusToDo, models.StatusOnHold, models.StatusComplete}
	if !slices.Equal(got, want) {
		t.Errorf("groups = %v, want %v", got, want)
	}

	for _, g := range Tasks(snap, Filters{HideCompletedTasks: true}) {
		if g.Status == models.StatusComplete {
			t.Error("complete group shown with hide completed")
		}
	}
}

func TestMissingDueDatesSortLast(t *testing.T) {
	due := func(d string) func(*models.Item) { return func(i *models.Item) { i.DueDate = d } }
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		project("p", "w", "P"),
		with(task("t1", "p", "aaa"), due("")),
		with(task("t2", "p", "bbb"), due("2030-01-01")),
		with(task("t3", "p", "ccc"), due("2024-01-01")),
		with(task("t4", "p", "aab"), due("")),
	)
	got := taskTitles(Tasks(snap, Filters{}))
	want := []string{"ccc", "bbb", "aaa", "aab"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLinkedWorkspaceTaskVisibility(t *testing.T) {
	items := []models.Item{
		project("pa", "A", "Alpha project"), task("ta", "pa", "in A"),
		project("pb", "B", "Beta project"), task("tb", "pb", "in B"),
		project("pc", "C", "Gamma project"), task("tc", "pc", "in C"),
	}

	linked := snapshot("A", []models.Workspace{workspace("A", "A", "B"), workspace("B", "B", "A"), workspace("C", "C")}, items...)
	got := taskTitles(Tasks(linked, Filters{}))
	slices.Sort(got)
	if !slices.Equal(got, []string{"in A", "in B"}) {
		t.Errorf("linked: got %v", got)
	}

	unlinked := snapshot("A", []models.Workspace{workspace("A", "A"), workspace("B", "B"), workspace("C", "C")}, items...)
	if got := taskTitles(Tasks(unlinked, Filters{})); !slices.Equal(got, []string{"in A"}) {
		t.Errorf("unlinked: got %v", got)
	}

	// the Projects view stays scoped to the current workspace
	if rows := Projects(linked, Filters{}); len(rows) != 1 || rows[0].Project.ID != "pa" {
		t.Errorf("projects = %+v", rows)
	}
}

func TestCalendarTimespan(t *testing.T) {
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		project("p", "w", "P"),
		with(task("t", "p", "Span"), func(i *models.Item) { i.StartDate = "2024-06-01"; i.DueDate = "2024-06-05" }),
	)

	m := Calendar(snap, Filters{CalendarMode: ModeTimespan}, 2024, 6)
	if len(m.Days) != 30 {
		t.Fatalf("june has %d days", len(m.Days))
	}
	for _, d := range m.Days {
		want := d.Day >= 1 && d.Day <= 5
		if got := len(d.Entries) == 1; got != want {
			t.Errorf("day %d shows task = %v, want %v", d.Day, got, want)
		}
	}
	if e, _ := m.Day(3); len(e.Entries) == 1 && e.Entries[0].ProjectTitle != "P" {
		t.Errorf("project title = %q", e.Entries[0].ProjectTitle)
	}

	due := Calendar(snap, Filters{CalendarMode: ModeDueDate}, 2024, 6)
	for _, d := range due.Days {
		if got := len(d.Entries) == 1; got != (d.Day == 5) {
			t.Errorf("duedate mode: day %d shows task = %v", d.Day, got)
		}
	}
}

func TestCalendarScopeAndOrder(t *testing.T) {
	prio := func(p models.Priority) func(*models.Item) {
		return func(i *models.Item) { i.Priority = p; i.DueDate = "2024-06-10" }
	}
	snap := snapshot("w", []models.Workspace{workspace("w", "W", "x"), workspace("x", "X", "w")},
		with(project("p", "w", "Low project"), prio(models.PriorityLow)),
		with(task("t1", "p", "High task"), prio(models.PriorityHigh)),
		with(task("t2", "p", "Medium task"), prio(models.PriorityMedium)),
		with(task("t3", "p", "No start"), func(i *models.Item) { i.DueDate = "2024-06-12" }),
		with(task("lost", "gone", "Orphan"), prio(models.PriorityHigh)),
		with(project("q", "x", "Linked project"), prio(models.PriorityHigh)),
		task("undated", "p", "Undated"),
	)

	m := Calendar(snap, Filters{CalendarMode: ModeTimespan}, 2024, 6)
	d, _ := m.Day(10)
	var got []string
	for _, e := range d.Entries {
		got = append(got, e.Item.Title)
	}
	if want := []string{"High task", "Medium task", "Low project"}; !slices.Equal(got, want) {
		t.Errorf("day 10 = %v, want %v", got, want)
	}
	if d, _ := m.Day(12); len(d.Entries) != 1 {
		t.Errorf("point event without start date: %+v", d.Entries)
	}
	if m.Offset != 6 { // 2024-06-01 is a Saturday
		t.Errorf("offset = %d, want 6", m.Offset)
	}
}

func TestOrphanedTasksAreReported(t *testing.T) {
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		project("p", "w", "P"), task("ok", "p", "fine"), task("lost", "gone", "stray"))

	if got := taskTitles(Tasks(snap, Filters{})); !slices.Equal(got, []string{"fine"}) {
		t.Errorf("tasks = %v", got)
	}
	orphans := Orphans(snap)
	if len(orphans) != 1 || !orphans[0].ParentMissing || orphans[0].Task.ID != "lost" {
		t.Errorf("orphans = %+v", orphans)
	}
}

func TestProjectTasks(t *testing.T) {
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		project("p", "w", "P"),
		task("t1", "p", "b"),
		with(task("t2", "p", "a"), func(i *models.Item) { i.Status = models.StatusComplete }),
		task("t3", "other", "c"),
	)
	var got []string
	for _, it := range ProjectTasks(snap, "p", false) {
		got = append(got, it.Title)
	}
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
	if n := len(ProjectTasks(snap, "p", true)); n != 1 {
		t.Errorf("hide completed: %d tasks, want 1", n)
	}
}

func TestCompletedFiltersAreIndependent(t *testing.T) {
	done := func(i *models.Item) { i.Status = models.StatusComplete; i.DueDate = "2024-06-03" }
	snap := snapshot("w", []models.Workspace{workspace("w", "W")},
		with(project("p", "w", "Garden"), done),
		with(task("t", "p", "Dig"), done),
	)

	count := func(f Filters) (projects, tasks, days int) {
		projects = len(Projects(snap, f))
		for _, g := range Tasks(snap, f) {
			tasks += len(g.Tasks)
		}
		d, _ := Calendar(snap, f, 2024, 6).Day(3)
		return projects, tasks, len(d.Entries)
	}

	tests := []struct {
		name                      string
		f                         Filters
		projects, tasks, calendar int
	}{
		{name: "Given no filter Then everything shows", f: Filters{}, projects: 1, tasks: 1, calendar: 2},
		{name: "Given hidden projects Then only the Projects view drops them", f: Filters{HideCompletedProjects: true}, projects: 0, tasks: 1, calendar: 2},
		{name: "Given hidden tasks Then only the Tasks view drops them", f: Filters{HideCompletedTasks: true}, projects: 1, tasks: 0, calendar: 2},
		{name: "Given a hidden calendar Then only the calendar drops them", f: Filters{HideCompletedCalendar: true}, projects: 1, tasks: 1, calendar: 0},
		{name: "Given the defaults Then only tasks are hidden", f: DefaultFilters(), projects: 1, tasks: 0, calendar: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, tk, c := count(tt.f)
			if p != tt.projects || tk != tt.tasks || c != tt.calendar {
				t.Errorf("projects=%d tasks=%d calendar=%d, want %d %d %d", p, tk, c, tt.projects, tt.tasks, tt.calendar)
			}
		})
	}
}

func TestAllStampsVersion(t *testing.T) {
	snap := snapshot("w", []models.Workspace{workspace("w", "W")}, project("p", "w", "P"))
	v := All(snap, Filters{}, 2024, 6)
	if v.Version != 7 || len(v.Projects) != 1 || len(v.Workspaces) != 1 || v.Calendar.Month != 6 {
		t.Errorf("views = %+v", v)
	}

	if got := All(models.Snapshot{}, Filters{}, 2024, 1); got.Workspaces != nil || len(got.Projects) != 0 {
		t.Errorf("empty snapshot views = %+v", got)
	}
}

func TestParseOptions(t *testing.T) {
	if s, err := ParseProjectSort(""); err != nil || s != SortTitle {
		t.Errorf("empty sort = %q, %v", s, err)
	}
	if _, err := ParseProjectSort("size"); err == nil {
		t.Error("expected error for unknown sort")
	}
	if m, err := ParseCalendarMode("timespan"); err != nil || m != ModeTimespan {
		t.Errorf("timespan = %q, %v", m, err)
	}
	if _, err := ParseCalendarMode("week"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
