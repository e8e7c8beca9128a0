package models

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// DateLayout is the ISO calendar date format used for start and due dates
const DateLayout = "2006-01-02"

// Status is the workflow state of an item
type Status string

const (
	StatusDoNow    Status = "Do Now"
	StatusToDo     Status = "To Do"
	StatusOnHold   Status = "On Hold"
	StatusComplete Status = "Complete"
)

// Statuses is the fixed grouping order of the Tasks view
var Statuses = []Status{StatusDoNow, StatusToDo, StatusOnHold, StatusComplete}

// Rank returns the position of s in Statuses. Unknown statuses rank last.
func (s Status) Rank() int {
	if i := slices.Index(Statuses, s); i >= 0 {
		return i
	}
	return len(Statuses)
}

// Next cycles to the following status
func (s Status) Next() Status {
	return Statuses[(s.Rank()+1)%len(Statuses)]
}

// Priority is the importance of an item
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities in display order
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Rank orders priorities with High first. Unknown priorities rank last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// Next cycles Low -> Medium -> High -> Low
func (p Priority) Next() Priority {
	i := slices.Index(Priorities, p)
	return Priorities[(i+1)%len(Priorities)]
}

// Kind discriminates projects from tasks
type Kind int

const (
	KindProject Kind = iota
	KindTask
)

var kindValueMap = map[Kind]string{
	KindProject: "project",
	KindTask:    "task",
}

func (k Kind) String() string {
	v, ok := kindValueMap[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}
	return v
}

// UnmarshalText accepts "project" or "task"
func (k *Kind) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for kk, v := range kindValueMap {
		if v == text {
			*k = kk
			return nil
		}
	}
	return fmt.Errorf("unknown item kind %q", text)
}

// Workspace is a named container of projects
type Workspace struct {
	ID               string
	Name             string
	LinkedWorkspaces map[string]bool
}

// IsLinked reports whether id is linked to w. A missing key means false.
func (w Workspace) IsLinked(id string) bool {
	return w.LinkedWorkspaces[id]
}

// LinkedIDs returns the ids linked to w, sorted
func (w Workspace) LinkedIDs() []string {
	var ids []string
	for id, linked := range w.LinkedWorkspaces {
		if linked {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a copy that shares no map with w
func (w Workspace) Clone() Workspace {
	c := w
	c.LinkedWorkspaces = maps.Clone(w.LinkedWorkspaces)
	if c.LinkedWorkspaces == nil {
		c.LinkedWorkspaces = map[string]bool{}
	}
	return c
}

// Item is either a project or a task. Projects have an empty ParentID and
// are owned by WorkspaceID; tasks belong to the project named by ParentID.
type Item struct {
	Kind        Kind
	ID          string
	Title       string
	Priority    Priority
	Status      Status
	StartDate   string
	DueDate     string
	Description string
	ParentID    string
	// WorkspaceID is only authoritative for projects
	WorkspaceID string
}

func (i Item) IsProject() bool { return i.Kind == KindProject }
func (i Item) IsTask() bool    { return i.Kind == KindTask }

// NewItem carries the caller-supplied fields of an item being created.
// Empty fields take their defaults.
type NewItem struct {
	Kind        Kind
	Title       string
	ParentID    string
	WorkspaceID string
	Priority    Priority
	Status      Status
	StartDate   string
	DueDate     string
	Description string
}

// Build materializes n with the given id, applying creation defaults
func (n NewItem) Build(id string, today string) Item {
	item := Item{
		Kind:        n.Kind,
		ID:          id,
		Title:       n.Title,
		Priority:    PriorityLow,
		Status:      StatusToDo,
		StartDate:   today,
		DueDate:     n.DueDate,
		Description: n.Description,
		ParentID:    n.ParentID,
		WorkspaceID: n.WorkspaceID,
	}
	if n.Priority != "" {
		item.Priority = n.Priority
	}
	if n.Status != "" {
		item.Status = n.Status
	}
	if n.StartDate != "" {
		item.StartDate = n.StartDate
	}
	if item.Kind == KindProject {
		item.ParentID = ""
	}
	return item
}

// ItemPatch is a partial update. Nil fields are left unchanged.
type ItemPatch struct {
	Title       *string
	Priority    *Priority
	Status      *Status
	StartDate   *string
	DueDate     *string
	Description *string
	ParentID    *string
	WorkspaceID *string
}

// Apply merges p into item. The kind of an item never changes, so a
// ParentID on a project (or an empty ParentID on a task) is ignored.
func (p ItemPatch) Apply(item Item) Item {
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Priority != nil {
		item.Priority = *p.Priority
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
	if p.StartDate != nil {
		item.StartDate = *p.StartDate
	}
	if p.DueDate != nil {
		item.DueDate = *p.DueDate
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.ParentID != nil && item.IsTask() && *p.ParentID != "" {
		item.ParentID = *p.ParentID
	}
	if p.WorkspaceID != nil && item.IsProject() {
		item.WorkspaceID = *p.WorkspaceID
	}
	return item
}

// Today returns the current local date
func Today() string {
	return time.Now().Format(DateLayout)
}

// ParseDate parses an ISO date. The empty string is not a date.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
