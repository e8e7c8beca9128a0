package planner

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/tgienger/plan/internal/models"
)

var errStoreDown = errors.New("store unavailable")

// fakeGateway is an in-memory document store with failure injection
type fakeGateway struct {
	mu         sync.Mutex
	items      map[string]models.Item
	workspaces map[string]models.Workspace

	// failSave makes SaveItem/SaveWorkspace fail for these ids
	failSave map[string]bool
	// failDelete makes DeleteItem fail for these ids
	failDelete   map[string]bool
	failLoad     bool
	failCascade  bool
	saves        []string
	beforeReturn func()
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		items:      map[string]models.Item{},
		workspaces: map[string]models.Workspace{},
		failSave:   map[string]bool{},
		failDelete: map[string]bool{},
	}
}

func (g *fakeGateway) SaveItem(_ context.Context, uid string, item models.Item) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSave[item.ID] {
		return errStoreDown
	}
	g.items[item.ID] = item
	g.saves = append(g.saves, item.ID)
	return nil
}

func (g *fakeGateway) SaveWorkspace(_ context.Context, uid string, ws models.Workspace) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSave[ws.ID] {
		return errStoreDown
	}
	g.workspaces[ws.ID] = ws.Clone()
	g.saves = append(g.saves, ws.ID)
	return nil
}

func (g *fakeGateway) DeleteItem(_ context.Context, uid, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failDelete[id] {
		return errStoreDown
	}
	delete(g.items, id)
	return nil
}

func (g *fakeGateway) DeleteWorkspaceAndContents(_ context.Context, uid, wsID string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCascade {
		return nil, errStoreDown
	}
	var projects []string
	for id, it := range g.items {
		if it.IsProject() && it.WorkspaceID == wsID {
			projects = append(projects, id)
		}
	}
	for _, pid := range projects {
		for id, it := range g.items {
			if it.ParentID == pid {
				delete(g.items, id)
			}
		}
		delete(g.items, pid)
	}
	delete(g.workspaces, wsID)
	slices.Sort(projects)
	return projects, nil
}

func (g *fakeGateway) LoadItems(_ context.Context, uid string) ([]models.Item, error) {
	g.mu.Lock()
	if g.failLoad {
		g.mu.Unlock()
		return nil, errStoreDown
	}
	items := slices.Collect(maps.Values(g.items))
	hook := g.beforeReturn
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return items, nil
}

func (g *fakeGateway) LoadWorkspaces(_ context.Context, uid string) ([]models.Workspace, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failLoad {
		return nil, errStoreDown
	}
	var out []models.Workspace
	for _, ws := range g.workspaces {
		out = append(out, ws.Clone())
	}
	return out, nil
}

// fakePrefs is an in-memory preference store
type fakePrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakePrefs() *fakePrefs { return &fakePrefs{values: map[string]string{}} }

func (f *fakePrefs) GetSetting(_ context.Context, uid, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[uid+"/"+key], nil
}

func (f *fakePrefs) SetSetting(_ context.Context, uid, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[uid+"/"+key] = value
	return nil
}

func (f *fakePrefs) DeleteSetting(_ context.Context, uid, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, uid+"/"+key)
	return nil
}

// sequentialIDs issues id1, id2, ...
func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func newTestPlanner(t *testing.T, gw *fakeGateway, prefs *fakePrefs) *Planner {
	t.Helper()
	return New(gw, prefs, WithIDs(sequentialIDs()), WithToday(func() string { return "2024-06-01" }))
}

// initialized returns a planner loaded for user "u"
func initialized(t *testing.T, gw *fakeGateway) *Planner {
	t.Helper()
	p := newTestPlanner(t, gw, newFakePrefs())
	if err := p.InitializeForUser(context.Background(), "u"); err != nil {
		t.Fatalf("InitializeForUser: %v", err)
	}
	return p
}

func seedWorkspace(gw *fakeGateway, id, name string, links ...string) {
	ws := models.Workspace{ID: id, Name: name, LinkedWorkspaces: map[string]bool{}}
	for _, l := range links {
		ws.LinkedWorkspaces[l] = true
	}
	gw.workspaces[id] = ws
}

func seedProject(gw *fakeGateway, id, ws string) {
	gw.items[id] = models.Item{Kind: models.KindProject, ID: id, Title: "Project " + id, WorkspaceID: ws,
		Priority: models.PriorityLow, Status: models.StatusToDo}
}

func seedTask(gw *fakeGateway, id, parent string) {
	gw.items[id] = models.Item{Kind: models.KindTask, ID: id, Title: "Task " + id, ParentID: parent,
		Priority: models.PriorityLow, Status: models.StatusToDo}
}

func assertLinkSymmetry(t *testing.T, snap models.Snapshot) {
	t.Helper()
	for _, a := range snap.Workspaces {
		for _, b := range snap.Workspaces {
			if a.IsLinked(b.ID) != b.IsLinked(a.ID) {
				t.Errorf("asymmetric link %s->%s=%v, %s->%s=%v",
					a.ID, b.ID, a.IsLinked(b.ID), b.ID, a.ID, b.IsLinked(a.ID))
			}
		}
	}
}
