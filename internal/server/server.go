// Package server exposes the derived views as a read-only JSON API
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"github.com/tgienger/plan/internal/derive"
	"github.com/tgienger/plan/internal/models"
)

// Source supplies planner snapshots
type Source interface {
	Snapshot() models.Snapshot
}

type server struct {
	src      Source
	defaults derive.Filters
}

// New returns the API handler. defaults supplies filter values that a
// request does not set, such as the configured calendar mode.
func New(src Source, defaults derive.Filters) http.Handler {
	s := &server{src: src, defaults: defaults}

	r := mux.NewRouter()
	r.Use(logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireUser)
	api.Methods(http.MethodGet).Path("/workspaces").HandlerFunc(s.getWorkspaces)
	api.Methods(http.MethodGet).Path("/projects").HandlerFunc(s.getProjects)
	api.Methods(http.MethodGet).Path("/projects/{id}/tasks").HandlerFunc(s.getProjectTasks)
	api.Methods(http.MethodGet).Path("/tasks").HandlerFunc(s.getTasks)
	api.Methods(http.MethodGet).Path("/calendar/{year:[0-9]+}/{month:[0-9]+}").HandlerFunc(s.getCalendar)
	api.Methods(http.MethodGet).Path("/orphans").HandlerFunc(s.getOrphans)
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("handled", "method", r.Method, "url", r.URL, "duration", m.Duration, "status", m.Code)
	})
}

func (s *server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.src.Snapshot().UID == "" {
			writeError(w, http.StatusServiceUnavailable, "not signed in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type workspaceJSON struct {
	models.Workspace
	Current bool `json:"current"`
	Visible bool `json:"visible"`
}

func (w workspaceJSON) MarshalJSON() ([]byte, error) {
	base, err := models.EncodeWorkspace(w.Workspace)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(base, &doc); err != nil {
		return nil, err
	}
	doc["current"], doc["visible"] = w.Current, w.Visible
	return json.Marshal(doc)
}

func (s *server) getWorkspaces(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	visible := map[string]bool{}
	for _, ws := range derive.VisibleWorkspaces(snap) {
		visible[ws.ID] = true
	}
	out := make([]workspaceJSON, len(snap.Workspaces))
	for i, ws := range snap.Workspaces {
		out[i] = workspaceJSON{Workspace: ws, Current: ws.ID == snap.CurrentWorkspaceID, Visible: visible[ws.ID]}
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "workspaces": out})
}

type projectRowJSON struct {
	Project models.Item   `json:"project"`
	Tasks   []models.Item `json:"tasks"`
}

func (s *server) getProjects(w http.ResponseWriter, r *http.Request) {
	f, err := s.filters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.src.Snapshot()
	rows := derive.Projects(snap, f)
	out := make([]projectRowJSON, len(rows))
	for i, row := range rows {
		out[i] = projectRowJSON{Project: row.Project, Tasks: nonNil(row.Tasks)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "projects": out})
}

func (s *server) getProjectTasks(w http.ResponseWriter, r *http.Request) {
	f, err := s.filters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.src.Snapshot()
	id := mux.Vars(r)["id"]
	if p, ok := snap.Item(id); !ok || !p.IsProject() {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	tasks := derive.ProjectTasks(snap, id, f.HideCompletedProjectTasks)
	writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "tasks": nonNil(tasks)})
}

type taskRowJSON struct {
	Task          models.Item `json:"task"`
	ProjectTitle  string      `json:"projectTitle"`
	WorkspaceID   string      `json:"workspaceId,omitempty"`
	ParentMissing bool        `json:"parentMissing,omitempty"`
}

type groupJSON struct {
	Status models.Status `json:"status"`
	Tasks  []taskRowJSON `json:"tasks"`
}

func taskRows(rows []derive.TaskRow) []taskRowJSON {
	out := make([]taskRowJSON, len(rows))
	for i, row := range rows {
		out[i] = taskRowJSON{Task: row.Task, ProjectTitle: row.ProjectTitle, WorkspaceID: row.WorkspaceID, ParentMissing: row.ParentMissing}
	}
	return out
}

func (s *server) getTasks(w http.ResponseWriter, r *http.Request) {
	f, err := s.filters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.src.Snapshot()
	groups := derive.Tasks(snap, f)
	out := make([]groupJSON, len(groups))
	for i, g := range groups {
		out[i] = groupJSON{Status: g.Status, Tasks: taskRows(g.Tasks)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "groups": out})
}

func (s *server) getOrphans(w http.ResponseWriter, r *http.Request) {
	snap := s.src.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "tasks": taskRows(derive.Orphans(snap))})
}

type entryJSON struct {
	Item         models.Item `json:"item"`
	ProjectTitle string      `json:"projectTitle,omitempty"`
}

type dayJSON struct {
	Date    string      `json:"date"`
	Day     int         `json:"day"`
	Entries []entryJSON `json:"entries"`
}

func (s *server) getCalendar(w http.ResponseWriter, r *http.Request) {
	f, err := s.filters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vars := mux.Vars(r)
	year, _ := strconv.Atoi(vars["year"])
	month, _ := strconv.Atoi(vars["month"])
	if month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid month %d", month))
		return
	}

	snap := s.src.Snapshot()
	m := derive.Calendar(snap, f, year, month)
	days := make([]dayJSON, len(m.Days))
	for i, d := range m.Days {
		entries := make([]entryJSON, len(d.Entries))
		for j, e := range d.Entries {
			entries[j] = entryJSON{Item: e.Item, ProjectTitle: e.ProjectTitle}
		}
		days[i] = dayJSON{Date: d.Date, Day: d.Day, Entries: entries}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": snap.Version,
		"year":    m.Year,
		"month":   int(m.Month),
		"mode":    m.Mode,
		"offset":  m.Offset,
		"days":    days,
	})
}

// filters reads q, hideCompleted, sort and mode over the defaults
func (s *server) filters(r *http.Request) (derive.Filters, error) {
	f := s.defaults
	q := r.URL.Query()
	f.Search = q.Get("q")
	if v := q.Get("hideCompleted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid hideCompleted %q", v)
		}
		f = f.HideCompleted(b)
	}
	if v := q.Get("sort"); v != "" {
		sort, err := derive.ParseProjectSort(v)
		if err != nil {
			return f, err
		}
		f.ProjectSort = sort
	}
	if v := q.Get("mode"); v != "" {
		mode, err := derive.ParseCalendarMode(v)
		if err != nil {
			return f, err
		}
		f.CalendarMode = mode
	}
	return f, nil
}

func nonNil(items []models.Item) []models.Item {
	if items == nil {
		return []models.Item{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
