package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tgienger/plan/internal/models"
)

// SaveWorkspace upserts a workspace by id
func (db *DB) SaveWorkspace(ctx context.Context, uid string, ws models.Workspace) error {
	if uid == "" {
		return ErrMissingUID
	}
	if ws.ID == "" {
		return ErrMissingID
	}
	body, err := models.EncodeWorkspace(ws)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO workspaces (uid, id, body) VALUES (?, ?, ?)
		ON CONFLICT(uid, id) DO UPDATE SET body = excluded.body, updated_at = CURRENT_TIMESTAMP
	`, uid, ws.ID, string(body))
	if err != nil {
		slog.Error("save workspace failed", "uid", uid, "id", ws.ID, "err", err)
		return fmt.Errorf("save workspace %s: %w", ws.ID, err)
	}
	slog.Debug("saved workspace", "uid", uid, "id", ws.ID, "name", ws.Name)
	return nil
}

// DeleteWorkspace deletes only the workspace document
func (db *DB) DeleteWorkspace(ctx context.Context, uid, workspaceID string) error {
	if uid == "" {
		return ErrMissingUID
	}
	if workspaceID == "" {
		return ErrMissingID
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM workspaces WHERE uid = ? AND id = ?", uid, workspaceID); err != nil {
		return fmt.Errorf("delete workspace %s: %w", workspaceID, err)
	}
	return nil
}

// DeleteWorkspaceAndContents deletes the workspace, its projects and their
// tasks in one transaction and returns the ids of the deleted projects.
func (db *DB) DeleteWorkspaceAndContents(ctx context.Context, uid, workspaceID string) (projectIDs []string, err error) {
	if uid == "" {
		return nil, ErrMissingUID
	}
	if workspaceID == "" {
		return nil, ErrMissingID
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("delete workspace %s: %w", workspaceID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM items WHERE uid = ? AND workspace_id = ? AND parent_id = '' ORDER BY id
	`, uid, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("delete workspace %s: find projects: %w", workspaceID, err)
	}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("delete workspace %s: find projects: %w", workspaceID, err)
		}
		projectIDs = append(projectIDs, id)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("delete workspace %s: find projects: %w", workspaceID, err)
	}

	for _, pid := range projectIDs {
		if _, err = tx.ExecContext(ctx, "DELETE FROM items WHERE uid = ? AND parent_id = ?", uid, pid); err != nil {
			return nil, fmt.Errorf("delete workspace %s: tasks of %s: %w", workspaceID, pid, err)
		}
		if _, err = tx.ExecContext(ctx, "DELETE FROM items WHERE uid = ? AND id = ?", uid, pid); err != nil {
			return nil, fmt.Errorf("delete workspace %s: project %s: %w", workspaceID, pid, err)
		}
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM workspaces WHERE uid = ? AND id = ?", uid, workspaceID); err != nil {
		return nil, fmt.Errorf("delete workspace %s: %w", workspaceID, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("delete workspace %s: commit: %w", workspaceID, err)
	}
	slog.Info("deleted workspace and contents", "uid", uid, "id", workspaceID, "projects", len(projectIDs))
	return projectIDs, nil
}

// LoadWorkspaces returns every workspace of the user. No uid yields an empty list.
func (db *DB) LoadWorkspaces(ctx context.Context, uid string) ([]models.Workspace, error) {
	if uid == "" {
		return []models.Workspace{}, nil
	}
	rows, err := db.QueryContext(ctx, "SELECT body FROM workspaces WHERE uid = ? ORDER BY id", uid)
	if err != nil {
		return nil, fmt.Errorf("load workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := []models.Workspace{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("load workspaces: %w", err)
		}
		ws, err := models.DecodeWorkspace([]byte(body))
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load workspaces: %w", err)
	}
	slog.Debug("loaded workspaces", "uid", uid, "count", len(workspaces))
	return workspaces, nil
}
