package planner

import (
	"context"
	"log/slog"

	"github.com/tgienger/plan/internal/models"
)

// ToggleWorkspaceLink links or unlinks target and the current workspace
func (p *Planner) ToggleWorkspaceLink(ctx context.Context, targetID string, linked bool) error {
	return p.SetLink(ctx, p.CurrentWorkspaceID(), targetID, linked)
}

// SetLink sets the symmetric link between workspaces a and b and persists
// both. If either write fails both flags return to their previous value.
func (p *Planner) SetLink(ctx context.Context, aID, bID string, linked bool) error {
	if aID == bID {
		return invalid("link workspaces", "a workspace cannot link to itself")
	}

	p.mu.Lock()
	ai, bi := p.workspaceIndex(aID), p.workspaceIndex(bID)
	if p.uid == "" || ai < 0 || bi < 0 {
		p.mu.Unlock()
		return invalid("link workspaces", "workspace not found")
	}
	a, b := &p.workspaces[ai], &p.workspaces[bi]
	if a.LinkedWorkspaces == nil {
		a.LinkedWorkspaces = map[string]bool{}
	}
	if b.LinkedWorkspaces == nil {
		b.LinkedWorkspaces = map[string]bool{}
	}
	prevA, hadA := a.LinkedWorkspaces[bID]
	prevB, hadB := b.LinkedWorkspaces[aID]
	a.LinkedWorkspaces[bID] = linked
	b.LinkedWorkspaces[aID] = linked
	savedA, savedB := a.Clone(), b.Clone()
	uid, epoch := p.uid, p.epoch
	notify := p.commit()
	t := p.writes.enqueue(aID, bID)
	p.mu.Unlock()
	notify()

	t.wait()
	defer t.release()
	errA := p.gw.SaveWorkspace(ctx, uid, savedA)
	errB := p.gw.SaveWorkspace(ctx, uid, savedB)
	if errA == nil && errB == nil {
		return nil
	}

	p.rollback(epoch, func() bool {
		ai, bi := p.workspaceIndex(aID), p.workspaceIndex(bID)
		if ai < 0 || bi < 0 {
			return false
		}
		restoreLink(&p.workspaces[ai], bID, prevA, hadA)
		restoreLink(&p.workspaces[bi], aID, prevB, hadB)
		return true
	})

	// Put back whichever document did get written so the store stays symmetric too
	restore := func(ws models.Workspace, other string, prev, had bool) {
		restoreLink(&ws, other, prev, had)
		if err := p.gw.SaveWorkspace(ctx, uid, ws); err != nil {
			slog.Error("failed to restore workspace link", "uid", uid, "workspace", ws.ID, "err", err)
		}
	}
	if errA == nil {
		restore(savedA, bID, prevA, hadA)
	}
	if errB == nil {
		restore(savedB, aID, prevB, hadB)
	}

	if errA != nil {
		return remote("link workspaces", errA)
	}
	return remote("link workspaces", errB)
}

func restoreLink(ws *models.Workspace, other string, prev, had bool) {
	if had {
		ws.LinkedWorkspaces[other] = prev
	} else {
		delete(ws.LinkedWorkspaces, other)
	}
}
