package planner

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/tgienger/plan/internal/models"
)

// CreateWorkspace adds a workspace and makes it current
func (p *Planner) CreateWorkspace(ctx context.Context, name string) (models.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Workspace{}, invalid("create workspace", "name is required")
	}

	p.mu.Lock()
	if p.uid == "" {
		p.mu.Unlock()
		return models.Workspace{}, &ValidationError{Op: "create workspace", Err: ErrNotSignedIn}
	}
	ws := models.Workspace{ID: p.newID(), Name: name, LinkedWorkspaces: map[string]bool{}}
	p.workspaces = append(p.workspaces, ws)
	previous := p.current
	p.current = ws.ID
	uid, epoch := p.uid, p.epoch
	notify := p.commit()
	t := p.writes.enqueue(ws.ID)
	p.mu.Unlock()
	notify()

	t.wait()
	err := p.gw.SaveWorkspace(ctx, uid, ws)
	t.release()
	if err != nil {
		p.rollback(epoch, func() bool {
			i := p.workspaceIndex(ws.ID)
			if i < 0 {
				return false
			}
			p.workspaces = slices.Delete(p.workspaces, i, i+1)
			if p.current == ws.ID {
				p.current = previous
			}
			return true
		})
		return models.Workspace{}, remote("create workspace", err)
	}
	p.rememberWorkspace(ctx, uid, ws.ID)
	return ws.Clone(), nil
}

// RenameWorkspace changes a workspace name. A blank or unchanged name is a no-op.
func (p *Planner) RenameWorkspace(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)

	p.mu.Lock()
	i := p.workspaceIndex(id)
	if p.uid == "" || i < 0 || newName == "" || newName == p.workspaces[i].Name {
		p.mu.Unlock()
		return nil
	}
	oldName := p.workspaces[i].Name
	p.workspaces[i].Name = newName
	ws := p.workspaces[i].Clone()
	uid, epoch := p.uid, p.epoch
	notify := p.commit()
	t := p.writes.enqueue(id)
	p.mu.Unlock()
	notify()

	t.wait()
	err := p.gw.SaveWorkspace(ctx, uid, ws)
	t.release()
	if err != nil {
		p.rollback(epoch, func() bool {
			j := p.workspaceIndex(id)
			if j < 0 || p.workspaces[j].Name != newName {
				return false
			}
			p.workspaces[j].Name = oldName
			return true
		})
		return remote("rename workspace", err)
	}
	return nil
}

// DeleteWorkspace deletes a workspace with all its projects and tasks and
// unlinks it from every other workspace. The only workspace cannot be
// deleted. Nothing changes locally unless the store delete succeeds.
func (p *Planner) DeleteWorkspace(ctx context.Context, id string) error {
	p.mu.Lock()
	if p.uid == "" {
		p.mu.Unlock()
		return &ValidationError{Op: "delete workspace", Err: ErrNotSignedIn}
	}
	if len(p.workspaces) <= 1 {
		p.mu.Unlock()
		return &ConstraintViolation{Op: "delete workspace", Err: ErrLastWorkspace}
	}
	if p.workspaceIndex(id) < 0 {
		p.mu.Unlock()
		return nil
	}
	uid, epoch := p.uid, p.epoch
	t := p.writes.enqueue(id)
	p.mu.Unlock()

	t.wait()
	projectIDs, err := p.gw.DeleteWorkspaceAndContents(ctx, uid, id)
	t.release()
	if err != nil {
		return remote("delete workspace", err)
	}

	p.mu.Lock()
	if p.epoch != epoch {
		p.mu.Unlock()
		return nil
	}
	gone := make(map[string]bool, len(projectIDs))
	for _, pid := range projectIDs {
		gone[pid] = true
	}
	for _, it := range p.items {
		if it.IsProject() && it.WorkspaceID == id {
			gone[it.ID] = true
		}
	}
	p.items = slices.DeleteFunc(p.items, func(it models.Item) bool {
		return gone[it.ID] || (it.IsTask() && gone[it.ParentID])
	})
	p.workspaces = slices.DeleteFunc(p.workspaces, func(ws models.Workspace) bool { return ws.ID == id })

	var unlinked []models.Workspace
	var keys []string
	for i, ws := range p.workspaces {
		if _, ok := ws.LinkedWorkspaces[id]; ok {
			delete(p.workspaces[i].LinkedWorkspaces, id)
			unlinked = append(unlinked, p.workspaces[i].Clone())
			keys = append(keys, ws.ID)
		}
	}

	switched := ""
	if p.current == id {
		if def, ok := p.defaultWorkspace(); ok {
			p.current = def.ID
			switched = def.ID
		}
	}
	notify := p.commit()
	lt := p.writes.enqueue(keys...)
	p.mu.Unlock()
	notify()

	slog.Info("deleted workspace", "uid", uid, "id", id, "projects", len(projectIDs))
	if switched != "" {
		p.rememberWorkspace(ctx, uid, switched)
	}

	// The workspace is already gone remotely, so failed unlinks are not
	// rolled back; they are reported to the caller.
	lt.wait()
	defer lt.release()
	var errs []error
	for _, ws := range unlinked {
		if err := p.gw.SaveWorkspace(ctx, uid, ws); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return remote("unlink deleted workspace", err)
	}
	return nil
}

// SwitchWorkspace makes id the current workspace and remembers the choice
func (p *Planner) SwitchWorkspace(ctx context.Context, id string) error {
	p.mu.Lock()
	if id == p.current {
		p.mu.Unlock()
		return nil
	}
	if p.workspaceIndex(id) < 0 {
		p.mu.Unlock()
		return invalid("switch workspace", "workspace "+id+" not found")
	}
	p.current = id
	uid := p.uid
	notify := p.commit()
	p.mu.Unlock()
	notify()

	p.rememberWorkspace(ctx, uid, id)
	return nil
}
