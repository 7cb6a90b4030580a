// Package threads maps conversation keys (chat or user identifiers) to
// vendor-side thread IDs, with per-key context text and JSON metadata.
// Early deployments kept the mapping in a flat JSON file; Open migrates
// such files into SQLite and removes them.
package threads

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

// Store holds the thread mapping. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open creates or opens the thread database. An empty path opens an
// in-memory store for testing.
func Open(path string) (*Store, error) {
	dsn := path
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, storeerrors.StorageError("failed to create data directory", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeerrors.StorageError("failed to open thread database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, storeerrors.StorageError("failed to set pragma", err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS threads (
			key TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS context (
			key TEXT PRIMARY KEY,
			content TEXT
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			data TEXT
		);
	`); err != nil {
		_ = db.Close()
		return nil, storeerrors.StorageError("failed to initialize schema", err)
	}

	return &Store{db: db}, nil
}

// MigrateFromJSON imports a legacy key -> thread-id JSON file and removes
// it on success. A missing file is a no-op.
func (s *Store) MigrateFromJSON(ctx context.Context, jsonPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storeerrors.New(storeerrors.ErrCodeStoreClosed, "thread store is closed", nil)
	}

	data, err := os.ReadFile(jsonPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return storeerrors.New(storeerrors.ErrCodeFileUnreadable, "cannot read legacy thread file", err)
	}

	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return storeerrors.ValidationError("legacy thread file is not valid JSON", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeerrors.StorageError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, threadID := range mapping {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO threads (key, thread_id) VALUES (?, ?)`,
			key, threadID); err != nil {
			return storeerrors.StorageError("failed to import thread mapping", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeerrors.StorageError("failed to commit migration", err)
	}

	return os.Remove(jsonPath)
}

// Thread returns the thread ID for a key, or NotFound.
func (s *Store) Thread(ctx context.Context, key string) (string, error) {
	return s.getText(ctx, `SELECT thread_id FROM threads WHERE key = ?`, key, "thread")
}

// SetThread stores or replaces a key's thread ID.
func (s *Store) SetThread(ctx context.Context, key, threadID string) error {
	return s.putText(ctx, `INSERT OR REPLACE INTO threads (key, thread_id) VALUES (?, ?)`, key, threadID)
}

// All returns the complete key -> thread-id mapping.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "thread store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, thread_id FROM threads`)
	if err != nil {
		return nil, storeerrors.StorageError("failed to load thread map", err)
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var key, threadID string
		if err := rows.Scan(&key, &threadID); err != nil {
			return nil, storeerrors.StorageError("failed to scan thread row", err)
		}
		mapping[key] = threadID
	}
	return mapping, rows.Err()
}

// Context returns the stored context text for a key, or NotFound.
func (s *Store) Context(ctx context.Context, key string) (string, error) {
	return s.getText(ctx, `SELECT content FROM context WHERE key = ?`, key, "context")
}

// SetContext stores or replaces a key's context text.
func (s *Store) SetContext(ctx context.Context, key, content string) error {
	return s.putText(ctx, `INSERT OR REPLACE INTO context (key, content) VALUES (?, ?)`, key, content)
}

// Metadata unmarshals a key's stored metadata into out, or returns
// NotFound.
func (s *Store) Metadata(ctx context.Context, key string, out any) error {
	raw, err := s.getText(ctx, `SELECT data FROM metadata WHERE key = ?`, key, "metadata")
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return storeerrors.ValidationError("stored metadata is not valid JSON", err)
	}
	return nil
}

// SetMetadata marshals value to JSON and stores it under key.
func (s *Store) SetMetadata(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return storeerrors.ValidationError("metadata is not serializable", err)
	}
	return s.putText(ctx, `INSERT OR REPLACE INTO metadata (key, data) VALUES (?, ?)`, key, string(data))
}

func (s *Store) getText(ctx context.Context, query, key, what string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", storeerrors.New(storeerrors.ErrCodeStoreClosed, "thread store is closed", nil)
	}

	var value sql.NullString
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows || (err == nil && !value.Valid) {
		return "", storeerrors.NotFoundError("no " + what + " for key " + key)
	}
	if err != nil {
		return "", storeerrors.StorageError("failed to load "+what, err)
	}
	return value.String, nil
}

func (s *Store) putText(ctx context.Context, query, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storeerrors.New(storeerrors.ErrCodeStoreClosed, "thread store is closed", nil)
	}

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return storeerrors.StorageError("failed to store value", err)
	}
	return nil
}

// Close closes the store. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
