package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tgienger/plan/internal/models"
)

// SaveItem upserts an item by id
func (db *DB) SaveItem(ctx context.Context, uid string, item models.Item) error {
	if uid == "" {
		return ErrMissingUID
	}
	if item.ID == "" {
		return ErrMissingID
	}
	body, err := models.EncodeItem(item)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO items (uid, id, parent_id, workspace_id, body) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(uid, id) DO UPDATE SET
			parent_id = excluded.parent_id,
			workspace_id = excluded.workspace_id,
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, uid, item.ID, item.ParentID, item.WorkspaceID, string(body))
	if err != nil {
		slog.Error("save item failed", "uid", uid, "id", item.ID, "err", err)
		return fmt.Errorf("save item %s: %w", item.ID, err)
	}
	slog.Debug("saved item", "uid", uid, "id", item.ID, "title", item.Title)
	return nil
}

// DeleteItem deletes an item. Deleting a missing id is not an error.
func (db *DB) DeleteItem(ctx context.Context, uid, itemID string) error {
	if uid == "" {
		return ErrMissingUID
	}
	if itemID == "" {
		return ErrMissingID
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM items WHERE uid = ? AND id = ?", uid, itemID); err != nil {
		slog.Error("delete item failed", "uid", uid, "id", itemID, "err", err)
		return fmt.Errorf("delete item %s: %w", itemID, err)
	}
	slog.Debug("deleted item", "uid", uid, "id", itemID)
	return nil
}

// LoadItems returns every item of the user. No uid yields an empty list.
func (db *DB) LoadItems(ctx context.Context, uid string) ([]models.Item, error) {
	if uid == "" {
		return []models.Item{}, nil
	}
	rows, err := db.QueryContext(ctx, "SELECT body FROM items WHERE uid = ? ORDER BY id", uid)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("load items: %w", err)
		}
		item, err := models.DecodeItem([]byte(body))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	slog.Debug("loaded items", "uid", uid, "count", len(items))
	return items, nil
}
