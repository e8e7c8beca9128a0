package planner

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/session"
)

func strPtr(s string) *string { return &s }

// =============================================================================
// InitializeForUser
// =============================================================================

func TestInitializeCreatesDefaultWorkspace(t *testing.T) {
	gw := newFakeGateway()
	p := initialized(t, gw)

	snap := p.Snapshot()
	if len(snap.Workspaces) != 1 {
		t.Fatalf("workspaces = %+v, want one default", snap.Workspaces)
	}
	ws := snap.Workspaces[0]
	if ws.Name != DefaultWorkspaceName || len(ws.LinkedWorkspaces) != 0 {
		t.Errorf("default workspace = %+v", ws)
	}
	if snap.CurrentWorkspaceID != ws.ID {
		t.Errorf("current = %q, want %q", snap.CurrentWorkspaceID, ws.ID)
	}
	if _, ok := gw.workspaces[ws.ID]; !ok {
		t.Error("default workspace was not persisted")
	}
}

func TestInitializeSelectsWorkspace(t *testing.T) {
	tests := []struct {
		name        string
		remembered  string
		wantCurrent string
	}{
		{name: "Given no preference Then smallest name wins", remembered: "", wantCurrent: "w-alpha"},
		{name: "Given a remembered workspace Then it wins", remembered: "w-zulu", wantCurrent: "w-zulu"},
		{name: "Given a stale preference Then smallest name wins", remembered: "deleted", wantCurrent: "w-alpha"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			seedWorkspace(gw, "w-zulu", "Zulu")
			seedWorkspace(gw, "w-alpha", "Alpha")
			prefs := newFakePrefs()
			if tt.remembered != "" {
				prefs.SetSetting(context.Background(), "u", LastWorkspaceKey, tt.remembered)
			}
			p := newTestPlanner(t, gw, prefs)
			if err := p.InitializeForUser(context.Background(), "u"); err != nil {
				t.Fatalf("InitializeForUser: %v", err)
			}
			if got := p.CurrentWorkspaceID(); got != tt.wantCurrent {
				t.Errorf("current = %q, want %q", got, tt.wantCurrent)
			}
		})
	}
}

func TestOrphanMigrationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "w-b", "Beta")
	seedWorkspace(gw, "w-a", "Alpha")
	seedProject(gw, "orphan", "")
	seedProject(gw, "owned", "w-b")
	prefs := newFakePrefs()
	prefs.SetSetting(ctx, "u", LastWorkspaceKey, "w-b")

	p := newTestPlanner(t, gw, prefs)
	if err := p.InitializeForUser(ctx, "u"); err != nil {
		t.Fatalf("InitializeForUser: %v", err)
	}

	snap := p.Snapshot()
	orphan, _ := snap.Item("orphan")
	if orphan.WorkspaceID != "w-a" {
		t.Errorf("orphan workspace = %q, want default w-a", orphan.WorkspaceID)
	}
	if gw.items["orphan"].WorkspaceID != "w-a" {
		t.Error("migration was not persisted")
	}
	if owned, _ := snap.Item("owned"); owned.WorkspaceID != "w-b" {
		t.Errorf("owned project moved to %q", owned.WorkspaceID)
	}

	saves := len(gw.saves)
	items := p.Snapshot().Items
	n, err := p.migrateOrphans(ctx, "u", items, "w-a")
	if err != nil || n != 0 {
		t.Errorf("second migration = %d, %v; want 0, nil", n, err)
	}
	if len(gw.saves) != saves {
		t.Error("second migration wrote to the store")
	}
	if !slices.Equal(items, snap.Items) {
		t.Error("second migration changed items")
	}

	// a fresh login finds nothing left to migrate
	if err := p.InitializeForUser(ctx, "u"); err != nil {
		t.Fatal(err)
	}
	if len(gw.saves) != saves {
		t.Error("re-initialization migrated again")
	}
}

func TestInitializeLoadFailureLeavesEmptyState(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	seedProject(gw, "p", "w")
	gw.failLoad = true

	p := newTestPlanner(t, gw, newFakePrefs())
	err := p.InitializeForUser(context.Background(), "u")
	var rerr *RemoteIOError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RemoteIOError", err)
	}
	snap := p.Snapshot()
	if len(snap.Items) != 0 || len(snap.Workspaces) != 0 || snap.CurrentWorkspaceID != "" {
		t.Errorf("state after failed load = %+v", snap)
	}
}

func TestInitializeDiscardsLoadAfterSignOut(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	seedProject(gw, "p", "w")
	p := newTestPlanner(t, gw, newFakePrefs())
	gw.beforeReturn = func() { p.Teardown(context.Background()) }

	err := p.InitializeForUser(context.Background(), "u")
	if !errors.Is(err, ErrStaleLoad) {
		t.Fatalf("err = %v, want ErrStaleLoad", err)
	}
	if snap := p.Snapshot(); len(snap.Items) != 0 || snap.UID != "" {
		t.Errorf("stale load was applied: %+v", snap)
	}
}

// =============================================================================
// Items
// =============================================================================

func TestAddItemAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	p := initialized(t, gw)
	ws := p.CurrentWorkspaceID()

	proj, err := p.AddItem(ctx, models.NewItem{Kind: models.KindProject, Title: "P1"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if proj.WorkspaceID != ws || proj.Priority != models.PriorityLow || proj.Status != models.StatusToDo ||
		proj.StartDate != "2024-06-01" || proj.Description != "" {
		t.Errorf("project = %+v", proj)
	}
	if gw.items[proj.ID] != proj {
		t.Error("project not persisted")
	}

	task, err := p.AddItem(ctx, models.NewItem{Kind: models.KindTask, Title: "T1", ParentID: proj.ID})
	if err != nil {
		t.Fatalf("AddItem task: %v", err)
	}
	if !task.IsTask() || task.ParentID != proj.ID {
		t.Errorf("task = %+v", task)
	}
}

func TestAddItemValidation(t *testing.T) {
	ctx := context.Background()

	signedOut := newTestPlanner(t, newFakeGateway(), newFakePrefs())
	if _, err := signedOut.AddItem(ctx, models.NewItem{Kind: models.KindProject}); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("signed out: err = %v, want ErrNotSignedIn", err)
	}

	p := initialized(t, newFakeGateway())
	_, err := p.AddItem(ctx, models.NewItem{Kind: models.KindTask, Title: "T", ParentID: "missing"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("dangling parent: err = %v, want ValidationError", err)
	}
	if len(p.Snapshot().Items) != 0 {
		t.Error("rejected item was added")
	}
}

func TestAddItemWithoutCurrentWorkspace(t *testing.T) {
	gw := newFakeGateway()
	p := initialized(t, gw)
	p.mu.Lock()
	p.current = ""
	p.mu.Unlock()

	_, err := p.AddItem(context.Background(), models.NewItem{Kind: models.KindProject, Title: "P"})
	if !errors.Is(err, ErrNoWorkspace) {
		t.Errorf("err = %v, want ErrNoWorkspace", err)
	}
}

func TestAddItemRollsBackOnStoreFailure(t *testing.T) {
	gw := newFakeGateway()
	p := initialized(t, gw)
	gw.failSave["id2"] = true // id1 is the default workspace

	_, err := p.AddItem(context.Background(), models.NewItem{Kind: models.KindProject, Title: "P"})
	var rerr *RemoteIOError
	if !errors.As(err, &rerr) || !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want RemoteIOError wrapping store failure", err)
	}
	if n := len(p.Snapshot().Items); n != 0 {
		t.Errorf("%d items after failed add, want 0", n)
	}
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	seedProject(gw, "p1", "w")
	seedProject(gw, "p2", "w")
	seedTask(gw, "t", "p1")
	p := initialized(t, gw)

	if _, ok, err := p.UpdateItem(ctx, "missing", models.ItemPatch{Title: strPtr("x")}); ok || err != nil {
		t.Errorf("unknown id: ok=%v err=%v, want silent no-op", ok, err)
	}

	due := "2024-07-01"
	status := models.StatusDoNow
	got, ok, err := p.UpdateItem(ctx, "t", models.ItemPatch{DueDate: &due, Status: &status, ParentID: strPtr("p2")})
	if err != nil || !ok {
		t.Fatalf("UpdateItem: ok=%v err=%v", ok, err)
	}
	if got.DueDate != due || got.Status != status || got.ParentID != "p2" || got.Title != "Task t" {
		t.Errorf("merged = %+v", got)
	}
	if gw.items["t"] != got {
		t.Error("merged item not persisted")
	}

	_, _, err = p.UpdateItem(ctx, "t", models.ItemPatch{ParentID: strPtr("nope")})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("reparent to missing project: err = %v, want ValidationError", err)
	}
}

func TestMoveProjectTakesItsTasks(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "a", "A")
	seedWorkspace(gw, "b", "B")
	seedProject(gw, "p", "a")
	seedTask(gw, "t", "p")
	p := initialized(t, gw)

	if err := p.MoveProject(ctx, "p", "b"); err != nil {
		t.Fatalf("MoveProject: %v", err)
	}
	if gw.items["p"].WorkspaceID != "b" {
		t.Errorf("project workspace = %q, want b", gw.items["p"].WorkspaceID)
	}
	// tasks follow their project, nothing to rewrite
	if gw.items["t"].ParentID != "p" {
		t.Errorf("task parent = %q, want p", gw.items["t"].ParentID)
	}

	var verr *ValidationError
	if err := p.MoveProject(ctx, "t", "a"); !errors.As(err, &verr) {
		t.Errorf("moving a task: err = %v, want ValidationError", err)
	}
	if err := p.MoveProject(ctx, "p", "nope"); !errors.As(err, &verr) {
		t.Errorf("moving to a missing workspace: err = %v, want ValidationError", err)
	}
}

func TestUpdateItemRollsBackOnStoreFailure(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	seedProject(gw, "p", "w")
	p := initialized(t, gw)
	gw.failSave["p"] = true

	before, _ := p.Snapshot().Item("p")
	_, _, err := p.UpdateItem(context.Background(), "p", models.ItemPatch{Title: strPtr("changed")})
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want store failure", err)
	}
	if after, _ := p.Snapshot().Item("p"); after != before {
		t.Errorf("item after failed update = %+v, want %+v", after, before)
	}
}

func TestDeleteProjectCascadesToTasks(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	seedProject(gw, "p1", "w")
	seedTask(gw, "t1", "p1")
	seedTask(gw, "t2", "p1")
	seedProject(gw, "p2", "w")
	seedTask(gw, "t3", "p2")
	p := initialized(t, gw)

	if err := p.DeleteItem(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	var ids []string
	for _, it := range p.Snapshot().Items {
		ids = append(ids, it.ID)
	}
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"p2", "t3"}) {
		t.Errorf("remaining = %v, want [p2 t3]", ids)
	}
	for _, id := range []string{"p1", "t1", "t2"} {
		if _, ok := gw.items[id]; ok {
			t.Errorf("%s still in store", id)
		}
	}

	if err := p.DeleteItem(context.Background(), "t3"); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Snapshot().Item("p2"); !ok {
		t.Error("deleting a task removed its project")
	}
}

func TestDeleteItemRestoresItemsThatFailedRemotely(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	seedProject(gw, "p", "w")
	seedTask(gw, "t1", "p")
	seedTask(gw, "t2", "p")
	p := initialized(t, gw)
	gw.failDelete["t2"] = true

	err := p.DeleteItem(context.Background(), "p")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want store failure", err)
	}
	snap := p.Snapshot()
	if _, ok := snap.Item("t2"); !ok {
		t.Error("t2 was not restored although it still exists remotely")
	}
	if _, ok := snap.Item("t1"); ok {
		t.Error("t1 was restored although it was deleted remotely")
	}
}

func TestIntegrityWarnings(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	seedProject(gw, "p", "w")
	seedTask(gw, "ok", "p")
	seedTask(gw, "lost", "gone")
	p := initialized(t, gw)

	warnings := p.CheckIntegrity()
	if len(warnings) != 1 || warnings[0].TaskID != "lost" || warnings[0].ParentID != "gone" {
		t.Errorf("warnings = %v", warnings)
	}
}

// =============================================================================
// Workspaces
// =============================================================================

func TestCreateAndRenameWorkspace(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	prefs := newFakePrefs()
	p := newTestPlanner(t, gw, prefs)
	if err := p.InitializeForUser(ctx, "u"); err != nil {
		t.Fatal(err)
	}

	ws, err := p.CreateWorkspace(ctx, "  Side  ")
	if err != nil {
		t.Fatalf("CreateWorkspace: %v", err)
	}
	if ws.Name != "Side" || p.CurrentWorkspaceID() != ws.ID {
		t.Errorf("created %+v, current %q", ws, p.CurrentWorkspaceID())
	}
	if v, _ := prefs.GetSetting(ctx, "u", LastWorkspaceKey); v != ws.ID {
		t.Errorf("remembered workspace = %q, want %q", v, ws.ID)
	}

	saves := len(gw.saves)
	for _, name := range []string{"", "   ", "Side"} {
		if err := p.RenameWorkspace(ctx, ws.ID, name); err != nil {
			t.Errorf("RenameWorkspace(%q): %v", name, err)
		}
	}
	if len(gw.saves) != saves {
		t.Error("no-op renames wrote to the store")
	}

	if err := p.RenameWorkspace(ctx, ws.ID, " Main "); err != nil {
		t.Fatal(err)
	}
	if got, _ := p.Snapshot().Workspace(ws.ID); got.Name != "Main" {
		t.Errorf("name = %q, want Main", got.Name)
	}
	if gw.workspaces[ws.ID].Name != "Main" {
		t.Error("rename not persisted")
	}
}

func TestDeleteOnlyWorkspaceIsRefused(t *testing.T) {
	p := initialized(t, newFakeGateway())
	id := p.CurrentWorkspaceID()

	err := p.DeleteWorkspace(context.Background(), id)
	var cv *ConstraintViolation
	if !errors.As(err, &cv) || !errors.Is(err, ErrLastWorkspace) {
		t.Fatalf("err = %v, want ConstraintViolation(ErrLastWorkspace)", err)
	}
	if _, ok := p.Snapshot().Workspace(id); !ok {
		t.Error("only workspace was removed")
	}
}

func TestDeleteWorkspaceCascade(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "A", "Alpha", "B", "C")
	seedWorkspace(gw, "B", "Beta", "A")
	seedWorkspace(gw, "C", "Gamma", "A")
	const n, m = 3, 4
	for i := 0; i < n; i++ {
		pid := "pa" + string(rune('0'+i))
		seedProject(gw, pid, "A")
		for j := 0; j < m; j++ {
			seedTask(gw, pid+"t"+string(rune('0'+j)), pid)
		}
	}
	seedProject(gw, "pb", "B")
	seedTask(gw, "pbt", "pb")
	prefs := newFakePrefs()
	prefs.SetSetting(ctx, "u", LastWorkspaceKey, "A")
	p := newTestPlanner(t, gw, prefs)
	if err := p.InitializeForUser(ctx, "u"); err != nil {
		t.Fatal(err)
	}

	if err := p.DeleteWorkspace(ctx, "A"); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}

	snap := p.Snapshot()
	if _, ok := snap.Workspace("A"); ok {
		t.Error("workspace A still present")
	}
	for _, it := range snap.Items {
		if it.WorkspaceID == "A" {
			t.Errorf("project %s still references A", it.ID)
		}
		if parent, ok := snap.Item(it.ParentID); it.IsTask() && (!ok || parent.WorkspaceID == "A") {
			t.Errorf("task %s left behind", it.ID)
		}
	}
	if len(snap.Items) != 2 {
		t.Errorf("%d items remain, want 2", len(snap.Items))
	}
	for _, ws := range snap.Workspaces {
		if _, ok := ws.LinkedWorkspaces["A"]; ok {
			t.Errorf("workspace %s still links to A", ws.ID)
		}
		if _, ok := gw.workspaces[ws.ID].LinkedWorkspaces["A"]; ok {
			t.Errorf("stored workspace %s still links to A", ws.ID)
		}
	}
	if snap.CurrentWorkspaceID != "B" {
		t.Errorf("current = %q, want B (smallest remaining name)", snap.CurrentWorkspaceID)
	}
}

func TestDeleteWorkspaceStoreFailureChangesNothing(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "A", "Alpha")
	seedWorkspace(gw, "B", "Beta")
	seedProject(gw, "p", "A")
	p := initialized(t, gw)
	before := p.Snapshot()
	gw.failCascade = true

	if err := p.DeleteWorkspace(context.Background(), "A"); !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want store failure", err)
	}
	after := p.Snapshot()
	if len(after.Workspaces) != len(before.Workspaces) || len(after.Items) != len(before.Items) {
		t.Error("local state changed after failed cascade delete")
	}
}

func TestSwitchWorkspace(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "A", "Alpha")
	seedWorkspace(gw, "B", "Beta")
	prefs := newFakePrefs()
	p := newTestPlanner(t, gw, prefs)
	if err := p.InitializeForUser(ctx, "u"); err != nil {
		t.Fatal(err)
	}

	v := p.Version()
	if err := p.SwitchWorkspace(ctx, "A"); err != nil || p.Version() != v {
		t.Errorf("switch to current: err=%v, version moved=%v", err, p.Version() != v)
	}
	if err := p.SwitchWorkspace(ctx, "B"); err != nil {
		t.Fatal(err)
	}
	if got, _ := prefs.GetSetting(ctx, "u", LastWorkspaceKey); got != "B" || p.CurrentWorkspaceID() != "B" {
		t.Errorf("current=%q remembered=%q, want B", p.CurrentWorkspaceID(), got)
	}
	var verr *ValidationError
	if err := p.SwitchWorkspace(ctx, "nope"); !errors.As(err, &verr) {
		t.Errorf("unknown workspace: err = %v", err)
	}
}

func TestTeardownClearsStateAndPreference(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "A", "Alpha")
	seedWorkspace(gw, "B", "Beta")
	prefs := newFakePrefs()
	p := newTestPlanner(t, gw, prefs)
	p.InitializeForUser(ctx, "u")
	p.SwitchWorkspace(ctx, "B")

	p.Teardown(ctx)
	snap := p.Snapshot()
	if snap.UID != "" || len(snap.Workspaces) != 0 || snap.CurrentWorkspaceID != "" {
		t.Errorf("state after teardown = %+v", snap)
	}
	if v, _ := prefs.GetSetting(ctx, "u", LastWorkspaceKey); v != "" {
		t.Errorf("last workspace still remembered: %q", v)
	}
}

// =============================================================================
// Linking
// =============================================================================

func TestToggleWorkspaceLinkIsSymmetric(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "A", "Alpha")
	seedWorkspace(gw, "B", "Beta")
	seedWorkspace(gw, "C", "Gamma")
	p := initialized(t, gw)

	if err := p.ToggleWorkspaceLink(ctx, "B", true); err != nil {
		t.Fatalf("link: %v", err)
	}
	snap := p.Snapshot()
	a, _ := snap.Workspace("A")
	b, _ := snap.Workspace("B")
	if !a.IsLinked("B") || !b.IsLinked("A") {
		t.Errorf("link not set both ways: %+v %+v", a, b)
	}
	if !gw.workspaces["A"].IsLinked("B") || !gw.workspaces["B"].IsLinked("A") {
		t.Error("link not persisted both ways")
	}
	assertLinkSymmetry(t, snap)

	if err := p.ToggleWorkspaceLink(ctx, "B", false); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	assertLinkSymmetry(t, p.Snapshot())

	var verr *ValidationError
	if err := p.ToggleWorkspaceLink(ctx, "A", true); !errors.As(err, &verr) {
		t.Errorf("self link: err = %v, want ValidationError", err)
	}
}

func TestToggleWorkspaceLinkRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	gw := newFakeGateway()
	seedWorkspace(gw, "A", "Alpha")
	seedWorkspace(gw, "B", "Beta")
	p := initialized(t, gw)
	gw.failSave["B"] = true

	err := p.ToggleWorkspaceLink(ctx, "B", true)
	var rerr *RemoteIOError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want RemoteIOError", err)
	}
	snap := p.Snapshot()
	assertLinkSymmetry(t, snap)
	if a, _ := snap.Workspace("A"); a.IsLinked("B") {
		t.Error("failed link left A linked in memory")
	}
	if gw.workspaces["A"].IsLinked("B") {
		t.Error("failed link left A linked in the store")
	}
}

// =============================================================================
// Concurrency
// =============================================================================

// slowGateway delays saves of one id so later writes try to overtake it
type slowGateway struct {
	*fakeGateway
	slowID string
	delay  time.Duration
	mu     sync.Mutex
	order  []string
}

func (g *slowGateway) SaveItem(ctx context.Context, uid string, item models.Item) error {
	if item.ID == g.slowID && item.Title == "first" {
		time.Sleep(g.delay)
	}
	g.mu.Lock()
	g.order = append(g.order, item.Title)
	g.mu.Unlock()
	return g.fakeGateway.SaveItem(ctx, uid, item)
}

func TestWritesToOneItemPersistInLocalOrder(t *testing.T) {
	ctx := context.Background()
	fake := newFakeGateway()
	seedWorkspace(fake, "w", "W")
	seedProject(fake, "p", "w")
	gw := &slowGateway{fakeGateway: fake, slowID: "p", delay: 50 * time.Millisecond}
	p := New(gw, newFakePrefs())
	if err := p.InitializeForUser(ctx, "u"); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.UpdateItem(ctx, "p", models.ItemPatch{Title: strPtr("first")})
	}()
	// wait until the first edit is applied locally
	for {
		if it, _ := p.Snapshot().Item("p"); it.Title == "first" {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if _, _, err := p.UpdateItem(ctx, "p", models.ItemPatch{Title: strPtr("second")}); err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	if fake.items["p"].Title != "second" {
		t.Errorf("store title = %q, want last local write", fake.items["p"].Title)
	}
	if !slices.Equal(gw.order, []string{"first", "second"}) {
		t.Errorf("write order = %v", gw.order)
	}
}

func TestVersionAdvancesOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	var notified []uint64
	var mu sync.Mutex
	p := New(newFakeGateway(), newFakePrefs(), WithOnChange(func(v uint64) {
		mu.Lock()
		notified = append(notified, v)
		mu.Unlock()
	}))
	p.InitializeForUser(ctx, "u")

	v0 := p.Version()
	proj, _ := p.AddItem(ctx, models.NewItem{Kind: models.KindProject, Title: "P"})
	v1 := p.Version()
	p.UpdateItem(ctx, proj.ID, models.ItemPatch{Title: strPtr("Q")})
	v2 := p.Version()
	p.DeleteItem(ctx, proj.ID)
	v3 := p.Version()
	if !(v0 < v1 && v1 < v2 && v2 < v3) {
		t.Errorf("versions %d %d %d %d are not increasing", v0, v1, v2, v3)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(notified) == 0 || notified[len(notified)-1] != v3 {
		t.Errorf("last notification = %v, want %d", notified, v3)
	}
}

func TestBindFollowsSession(t *testing.T) {
	gw := newFakeGateway()
	seedWorkspace(gw, "w", "W")
	p := newTestPlanner(t, gw, newFakePrefs())
	sessions := session.NewManager()
	events, cancel := sessions.Subscribe()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Bind(ctx, events)
		close(done)
	}()

	u, _ := sessions.SignIn("a@example.com")
	waitFor(t, func() bool { return p.Snapshot().UID == u.UID && p.CurrentWorkspaceID() == "w" })

	sessions.SignOut()
	waitFor(t, func() bool { return p.Snapshot().UID == "" })

	cancel()
	stop()
	<-done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}
