// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package journal keeps a SQLite history of file-producing camera operations.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go, no CGO)

	"github.com/ManuGH/picam/internal/device"
)

const (
	// DefaultListLimit applies when List is called with a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps a single List call.
	MaxListLimit = 500

	busyTimeout = 5 * time.Second
)

// Store persists device.Capture entries. It implements device.CaptureRecorder.
type Store struct {
	db *sql.DB
}

var _ device.CaptureRecorder = (*Store)(nil)

// Open opens or creates the journal at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("journal: path is required")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		dbPath, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: open failed: %w", err)
	}
	// Writes come from one camera; a single connection avoids lock contention.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: ping failed: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS captures (
		id TEXT PRIMARY KEY,
		operation TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS capture_files (
		capture_id TEXT NOT NULL REFERENCES captures(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		path TEXT NOT NULL,
		PRIMARY KEY (capture_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_captures_finished ON captures(finished_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordCapture stores c and its files in one transaction.
func (s *Store) RecordCapture(ctx context.Context, c device.Capture) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO captures (id, operation, started_at, finished_at, error) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Operation, formatTime(c.StartedAt), formatTime(c.FinishedAt), c.Err)
	if err != nil {
		return fmt.Errorf("insert capture %s: %w", c.ID, err)
	}
	for i, path := range c.Files {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO capture_files (capture_id, position, path) VALUES (?, ?, ?)`,
			c.ID, i, path); err != nil {
			return fmt.Errorf("insert capture file: %w", err)
		}
	}
	return tx.Commit()
}

// List returns the most recent captures, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]device.Capture, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, operation, started_at, finished_at, error
	FROM captures
	ORDER BY finished_at DESC, id
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	captures := []device.Capture{}
	index := make(map[string]int)
	for rows.Next() {
		var c device.Capture
		var started, finished string
		if err := rows.Scan(&c.ID, &c.Operation, &started, &finished, &c.Err); err != nil {
			return nil, err
		}
		c.StartedAt = parseTime(started)
		c.FinishedAt = parseTime(finished)
		c.Files = []string{}
		index[c.ID] = len(captures)
		captures = append(captures, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	for id, i := range index {
		files, err := s.files(ctx, id)
		if err != nil {
			return nil, err
		}
		captures[i].Files = files
	}
	return captures, nil
}

func (s *Store) files(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM capture_files WHERE capture_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := []string{}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
