package planner

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/tgienger/plan/internal/models"
	"github.com/tgienger/plan/internal/session"
)

// InitializeForUser loads the user's workspaces and items, creates a
// default workspace if there is none, selects the current workspace and
// migrates orphaned projects. On failure the state is left empty.
func (p *Planner) InitializeForUser(ctx context.Context, uid string) error {
	p.mu.Lock()
	p.epoch++
	epoch := p.epoch
	p.uid = uid
	p.items = nil
	p.workspaces = nil
	p.current = ""
	notify := p.commit()
	p.mu.Unlock()
	notify()

	if uid == "" {
		return invalid("initialize", "uid is required")
	}

	items, workspaces, current, err := p.load(ctx, uid)

	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		slog.Warn("discarding stale load", "uid", uid)
		return ErrStaleLoad
	}
	if err != nil {
		p.items, p.workspaces, p.current = []models.Item{}, []models.Workspace{}, ""
		notify = p.commit()
		p.mu.Unlock()
		notify()
		slog.Error("failed to load user data", "uid", uid, "err", err)
		return err
	}
	p.items, p.workspaces, p.current = items, workspaces, current
	notify = p.commit()
	p.mu.Unlock()
	notify()

	slog.Info("loaded user data", "uid", uid, "items", len(items), "workspaces", len(workspaces), "current", current)
	return nil
}

func (p *Planner) load(ctx context.Context, uid string) ([]models.Item, []models.Workspace, string, error) {
	items, err := p.gw.LoadItems(ctx, uid)
	if err != nil {
		return nil, nil, "", remote("load items", err)
	}
	items = slices.Clone(items)
	loaded, err := p.gw.LoadWorkspaces(ctx, uid)
	if err != nil {
		return nil, nil, "", remote("load workspaces", err)
	}
	workspaces := make([]models.Workspace, len(loaded))
	for i, ws := range loaded {
		workspaces[i] = ws.Clone()
	}

	var defaultID string
	if len(workspaces) == 0 {
		ws := models.Workspace{ID: p.newID(), Name: DefaultWorkspaceName, LinkedWorkspaces: map[string]bool{}}
		if err := p.gw.SaveWorkspace(ctx, uid, ws); err != nil {
			return nil, nil, "", remote("create default workspace", err)
		}
		workspaces = append(workspaces, ws)
		defaultID = ws.ID
		slog.Info("created default workspace", "uid", uid, "id", ws.ID)
	} else {
		defaultID = slices.MinFunc(workspaces, byName).ID
	}

	if _, err := p.migrateOrphans(ctx, uid, items, defaultID); err != nil {
		return nil, nil, "", err
	}

	current := defaultID
	if p.prefs != nil {
		last, err := p.prefs.GetSetting(ctx, uid, LastWorkspaceKey)
		if err != nil {
			slog.Warn("failed to read last workspace", "uid", uid, "err", err)
		}
		if last != "" && slices.ContainsFunc(workspaces, func(ws models.Workspace) bool { return ws.ID == last }) {
			current = last
		}
	}
	return items, workspaces, current, nil
}

func isOrphan(it models.Item) bool {
	return it.IsProject() && it.WorkspaceID == ""
}

// migrateOrphans assigns every project without a workspace to defaultID,
// persisting each one and updating items in place. With no orphans it does
// nothing. It returns how many projects moved.
func (p *Planner) migrateOrphans(ctx context.Context, uid string, items []models.Item, defaultID string) (int, error) {
	n := 0
	for i, it := range items {
		if !isOrphan(it) {
			continue
		}
		it.WorkspaceID = defaultID
		if err := p.gw.SaveItem(ctx, uid, it); err != nil {
			return n, remote("migrate orphaned project", err)
		}
		items[i] = it
		n++
		slog.Info("migrated orphaned project", "uid", uid, "id", it.ID, "workspace", defaultID)
	}
	return n, nil
}

// Teardown clears all state after sign-out and forgets the last workspace
func (p *Planner) Teardown(ctx context.Context) {
	p.mu.Lock()
	uid := p.uid
	p.epoch++
	p.uid = ""
	p.items = nil
	p.workspaces = nil
	p.current = ""
	notify := p.commit()
	p.mu.Unlock()
	notify()

	if uid != "" && p.prefs != nil {
		if err := p.prefs.DeleteSetting(ctx, uid, LastWorkspaceKey); err != nil {
			slog.Warn("failed to clear last workspace", "uid", uid, "err", err)
		}
	}
}

// Bind follows session changes until ctx is done or events is closed:
// sign-in loads the user, sign-out tears the state down. Loads run in the
// background so a sign-out during a load discards its result.
func (p *Planner) Bind(ctx context.Context, events <-chan session.Event) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.User == nil {
				p.Teardown(ctx)
				continue
			}
			wg.Add(1)
			go func(uid string) {
				defer wg.Done()
				if err := p.InitializeForUser(ctx, uid); err != nil && !errors.Is(err, ErrStaleLoad) {
					slog.Error("failed to initialize planner", "uid", uid, "err", err)
				}
			}(ev.User.UID)
		}
	}
}
