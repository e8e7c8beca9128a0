package planner

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/tgienger/plan/internal/models"
)

// AddItem creates a project or task with creation defaults. A project
// without a workspace joins the current one; a task needs an existing
// parent project.
func (p *Planner) AddItem(ctx context.Context, n models.NewItem) (models.Item, error) {
	p.mu.Lock()
	if p.uid == "" {
		p.mu.Unlock()
		return models.Item{}, &ValidationError{Op: "add item", Err: ErrNotSignedIn}
	}
	switch n.Kind {
	case models.KindProject:
		if n.WorkspaceID == "" {
			if p.current == "" {
				p.mu.Unlock()
				return models.Item{}, &ValidationError{Op: "add project", Err: ErrNoWorkspace}
			}
			n.WorkspaceID = p.current
		} else if p.workspaceIndex(n.WorkspaceID) < 0 {
			p.mu.Unlock()
			return models.Item{}, invalid("add project", "workspace "+n.WorkspaceID+" not found")
		}
	case models.KindTask:
		if parent, ok := p.findItem(n.ParentID); !ok || !parent.IsProject() {
			p.mu.Unlock()
			return models.Item{}, invalid("add task", "project "+n.ParentID+" not found")
		}
	default:
		p.mu.Unlock()
		return models.Item{}, invalid("add item", "unknown item kind "+n.Kind.String())
	}

	item := n.Build(p.newID(), p.today())
	p.items = append(p.items, item)
	uid, epoch := p.uid, p.epoch
	notify := p.commit()
	t := p.writes.enqueue(item.ID)
	p.mu.Unlock()
	notify()

	t.wait()
	err := p.gw.SaveItem(ctx, uid, item)
	t.release()
	if err != nil {
		p.rollback(epoch, func() bool {
			i := p.itemIndex(item.ID)
			if i < 0 || p.items[i] != item {
				return false
			}
			p.items = slices.Delete(p.items, i, i+1)
			return true
		})
		return models.Item{}, remote("add item", err)
	}
	return item, nil
}

// UpdateItem merges patch into the item. An unknown id is a silent no-op
// reported by ok == false.
func (p *Planner) UpdateItem(ctx context.Context, itemID string, patch models.ItemPatch) (item models.Item, ok bool, err error) {
	p.mu.Lock()
	i := p.itemIndex(itemID)
	if p.uid == "" || i < 0 {
		p.mu.Unlock()
		return models.Item{}, false, nil
	}
	before := p.items[i]
	after := patch.Apply(before)

	if after.IsTask() && after.ParentID != before.ParentID {
		if parent, exists := p.findItem(after.ParentID); !exists || !parent.IsProject() {
			p.mu.Unlock()
			return before, true, invalid("update item", "project "+after.ParentID+" not found")
		}
	}
	if after.IsProject() && after.WorkspaceID != before.WorkspaceID && p.workspaceIndex(after.WorkspaceID) < 0 {
		p.mu.Unlock()
		return before, true, invalid("update item", "workspace "+after.WorkspaceID+" not found")
	}

	p.items[i] = after
	uid, epoch := p.uid, p.epoch
	notify := p.commit()
	t := p.writes.enqueue(itemID)
	p.mu.Unlock()
	notify()

	t.wait()
	err = p.gw.SaveItem(ctx, uid, after)
	t.release()
	if err != nil {
		p.rollback(epoch, func() bool {
			j := p.itemIndex(itemID)
			if j < 0 || p.items[j] != after {
				return false
			}
			p.items[j] = before
			return true
		})
		return before, true, remote("update item", err)
	}
	return after, true, nil
}

// MoveProject reassigns a project, and with it its tasks, to another workspace
func (p *Planner) MoveProject(ctx context.Context, projectID, workspaceID string) error {
	p.mu.Lock()
	it, found := p.findItem(projectID)
	p.mu.Unlock()
	if !found || !it.IsProject() {
		return invalid("move project", "project "+projectID+" not found")
	}
	_, _, err := p.UpdateItem(ctx, projectID, models.ItemPatch{WorkspaceID: &workspaceID})
	return err
}

// DeleteItem removes an item. Deleting a project also removes its tasks.
// Items whose remote delete fails are restored locally.
func (p *Planner) DeleteItem(ctx context.Context, itemID string) error {
	p.mu.Lock()
	target, found := p.findItem(itemID)
	if p.uid == "" || !found {
		p.mu.Unlock()
		return nil
	}

	var removed []models.Item
	p.items = slices.DeleteFunc(p.items, func(it models.Item) bool {
		gone := it.ID == itemID || (target.IsProject() && it.IsTask() && it.ParentID == itemID)
		if gone {
			removed = append(removed, it)
		}
		return gone
	})
	keys := make([]string, len(removed))
	for i, it := range removed {
		keys[i] = it.ID
	}
	uid, epoch := p.uid, p.epoch
	notify := p.commit()
	t := p.writes.enqueue(keys...)
	p.mu.Unlock()
	notify()

	t.wait()
	var failed []models.Item
	var errs []error
	for _, it := range removed {
		if err := p.gw.DeleteItem(ctx, uid, it.ID); err != nil {
			failed = append(failed, it)
			errs = append(errs, err)
		}
	}
	t.release()

	if len(failed) > 0 {
		p.rollback(epoch, func() bool {
			restored := false
			for _, it := range failed {
				if p.itemIndex(it.ID) < 0 {
					p.items = append(p.items, it)
					restored = true
				}
			}
			return restored
		})
		return remote("delete item", errors.Join(errs...))
	}
	slog.Debug("deleted item", "id", itemID, "kind", target.Kind, "removed", len(removed))
	return nil
}

// rollback reverts an optimistic change if the session is unchanged. undo
// runs with mu held and reports whether it changed anything.
func (p *Planner) rollback(epoch uint64, undo func() bool) {
	p.mu.Lock()
	if p.epoch != epoch || !undo() {
		p.mu.Unlock()
		return
	}
	notify := p.commit()
	p.mu.Unlock()
	notify()
	slog.Warn("rolled back local change after store failure")
}
