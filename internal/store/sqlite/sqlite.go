// Package sqlite is the default store backend: a single embedded
// database file, no external service required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/readmark/readmark/internal/domain"
)

// Store wraps the SQLite connection.
type Store struct {
	conn *sql.DB
}

// New opens or creates an SQLite database at the given path.
func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set wal mode: %w", err)
	}
	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		collection TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		data       BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, user_id)
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Get returns the blob for (collection, userID), or domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, collection, userID string) ([]byte, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx,
		"SELECT data FROM kv WHERE collection = ? AND user_id = ?",
		collection, userID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, userID, err)
	}
	return data, nil
}

// Put stores the blob for (collection, userID), replacing any previous value.
func (s *Store) Put(ctx context.Context, collection, userID string, data []byte) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO kv (collection, user_id, data, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (collection, user_id)
		 DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		collection, userID, data,
	)
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, userID, err)
	}
	return nil
}

// Remove deletes the blob for (collection, userID). Removing a missing
// key is not an error.
func (s *Store) Remove(ctx context.Context, collection, userID string) error {
	_, err := s.conn.ExecContext(ctx,
		"DELETE FROM kv WHERE collection = ? AND user_id = ?",
		collection, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove %s/%s: %w", collection, userID, err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
