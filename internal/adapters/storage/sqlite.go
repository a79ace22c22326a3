// Package storage provides SQLite implementations of the storage ports.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xvierd/studyflow/internal/ports"
	_ "modernc.org/sqlite"
)

// sqliteStore implements ports.RecordStore on a single key/value table.
type sqliteStore struct {
	db *sql.DB
}

// Ensure sqliteStore implements ports.RecordStore.
var _ ports.RecordStore = (*sqliteStore)(nil)

// New opens (and migrates) the record store at dbPath.
func New(dbPath string) (ports.RecordStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: the app has a single writer, and every connection to
	// ":memory:" would otherwise be its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	store := &sqliteStore{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewMemory creates a new in-memory SQLite store for testing.
func NewMemory() (ports.RecordStore, error) {
	return New(":memory:")
}

func (s *sqliteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Get returns the blob stored under key.
func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read record: %w", err)
	}
	return []byte(value), true, nil
}

// Set overwrites the blob stored under key.
func (s *sqliteStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO records (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Remove deletes key.
func (s *sqliteStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove record: %w", err)
	}
	return nil
}

// Clear removes every key given in one transaction.
func (s *sqliteStore) Clear(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to clear record %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
