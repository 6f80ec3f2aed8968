// Package storage persists projects in a local SQLite database so a
// working session can be saved, listed and reopened later.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local database schema. Bump it when making
// breaking changes and add a migration step.
const schemaVersion = 1

// ErrNotFound is returned when no saved project has the requested key.
var ErrNotFound = errors.New("project not found")

// Store wraps the project database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the project database at path, creating the file and schema
// on first use.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("storage")

	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Single connection keeps the embedded database free of writer races.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("project database ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS schema_info (
			id     INTEGER PRIMARY KEY CHECK(id = 1),
			schema INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS projects (
			key        TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			cardback   TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS project_members (
			project_key    TEXT    NOT NULL,
			slot           INTEGER NOT NULL,
			face           TEXT    NOT NULL,
			query          TEXT,
			card_type      TEXT,
			selected_image TEXT    NOT NULL DEFAULT '',
			PRIMARY KEY (project_key, slot, face),
			FOREIGN KEY (project_key) REFERENCES projects(key) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_members_project ON project_members(project_key);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM schema_info WHERE id = 1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_info (id, schema) VALUES (1, ?)`, schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case cur > schemaVersion:
		return fmt.Errorf("database schema %d is newer than this build supports (%d)", cur, schemaVersion)
	}
	return nil
}
