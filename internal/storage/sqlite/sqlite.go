// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/sharethebill/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store on two tables: kv for documents and
// set_members for sets.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers so conditional updates never
	// see SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewFromDB wraps an already opened and migrated database.
func NewFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored at key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

// Set stores value at key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// CompareAndSwap stores next only if the current value equals prev.
func (s *SQLiteStore) CompareAndSwap(ctx context.Context, key string, prev, next []byte) error {
	var (
		res sql.Result
		err error
	)
	if prev == nil {
		res, err = s.db.ExecContext(ctx,
			"INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO NOTHING",
			key, next, time.Now().Unix(),
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			"UPDATE kv SET value = ?, updated_at = ? WHERE key = ? AND value = ?",
			next, time.Now().Unix(), key, prev,
		)
	}
	if err != nil {
		return fmt.Errorf("failed to swap %s: %w", key, err)
	}
	return expectOneRow(res, key)
}

// CompareAndDelete removes key only if the current value equals prev.
func (s *SQLiteStore) CompareAndDelete(ctx context.Context, key string, prev []byte) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ? AND value = ?", key, prev)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	if err := expectOneRow(res, key); !errors.Is(err, storage.ErrConflict) {
		return err
	}

	// Distinguish a changed value from a missing key
	var exists int
	err = s.db.QueryRowContext(ctx, "SELECT 1 FROM kv WHERE key = ?", key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", key, err)
	}
	return fmt.Errorf("%w: %s", storage.ErrConflict, key)
}

// AddToSet adds member to the set at key.
func (s *SQLiteStore) AddToSet(ctx context.Context, key, member string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO set_members (set_key, member) VALUES (?, ?)",
		key, member,
	)
	if err != nil {
		return fmt.Errorf("failed to add %s to %s: %w", member, key, err)
	}
	return nil
}

// RemoveFromSet removes member from the set at key.
func (s *SQLiteStore) RemoveFromSet(ctx context.Context, key, member string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM set_members WHERE set_key = ? AND member = ?",
		key, member,
	)
	if err != nil {
		return fmt.Errorf("failed to remove %s from %s: %w", member, key, err)
	}
	return nil
}

// Members returns all members of the set at key.
func (s *SQLiteStore) Members(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT member FROM set_members WHERE set_key = ? ORDER BY member",
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of %s: %w", key, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

func expectOneRow(res sql.Result, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrConflict, key)
	}
	return nil
}
