package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

var (
	// ErrMissingUID is returned when an operation is not scoped to a user
	ErrMissingUID = errors.New("db: uid is required")
	// ErrMissingID is returned when an entity to save has no id
	ErrMissingID = errors.New("db: entity id is required")
)

// DB wraps the database connection. It is a pass-through document store:
// per-user items, workspaces and settings, no business rules.
type DB struct {
	*sql.DB
}

// New opens (creating if needed) the database at path and initializes the schema
func New(path string) (*DB, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers anyway; one connection keeps transactions simple
	db.SetMaxOpenConns(1)

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// DefaultPath returns the database location under the XDG data directory
func DefaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataDir, "plan", "plan.db"), nil
}

// expandHome expands a leading "~" or "~/". Other forms such as "~alice"
// are left alone.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// GetSetting retrieves a per-user setting. A missing key yields "".
func (db *DB) GetSetting(ctx context.Context, uid, key string) (string, error) {
	if uid == "" {
		return "", ErrMissingUID
	}
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE uid = ? AND key = ?", uid, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a per-user setting value
func (db *DB) SetSetting(ctx context.Context, uid, key, value string) error {
	if uid == "" {
		return ErrMissingUID
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (uid, key, value) VALUES (?, ?, ?)
		ON CONFLICT(uid, key) DO UPDATE SET value = excluded.value
	`, uid, key, value)
	return err
}

// DeleteSetting removes a per-user setting
func (db *DB) DeleteSetting(ctx context.Context, uid, key string) error {
	if uid == "" {
		return ErrMissingUID
	}
	_, err := db.ExecContext(ctx, "DELETE FROM settings WHERE uid = ? AND key = ?", uid, key)
	return err
}
