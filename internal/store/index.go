package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/lorekit/lorestore/internal/chunk"
	storeerrors "github.com/lorekit/lorestore/internal/errors"
	"github.com/lorekit/lorestore/internal/scanner"
)

// IndexStore owns the persistent full-text index over the corpus.
// It is safe for concurrent use: searches may run while a reindex is in
// progress and observe a consistent pre- or post-state for any single
// file. Reindex calls themselves are serialized internally.
type IndexStore struct {
	mu        sync.RWMutex // guards closed
	reindexMu sync.Mutex   // serializes Reindex runs
	db        *sql.DB
	path      string
	opts      Options
	closed    bool
}

// validateIntegrity checks an existing database file before opening.
// Returns nil if the file is absent or healthy.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// Open creates or opens an IndexStore at path. An empty path opens an
// in-memory store for testing. Schema creation is idempotent: opening an
// already-initialized store leaves its contents intact.
func Open(path string, opts Options) (*IndexStore, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, storeerrors.StorageError(fmt.Sprintf("failed to create directory %s", dir), err)
		}

		if validErr := validateIntegrity(path); validErr != nil {
			return nil, storeerrors.New(storeerrors.ErrCodeCorruptIndex,
				fmt.Sprintf("index at %s is corrupt, remove it and reindex", path), validErr)
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeerrors.StorageError("failed to open database", err)
	}

	// Single connection: serializes SQLite access through one handle and
	// keeps :memory: stores coherent. WAL still lets other processes read.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite; DSN params
	// are not honored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, storeerrors.StorageError("failed to set pragma", err)
		}
	}

	s := &IndexStore{
		db:   db,
		path: path,
		opts: opts,
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, storeerrors.StorageError("failed to initialize schema", err)
	}

	slog.Info("index store opened",
		slog.String("path", path),
		slog.Int("chunk_size", s.chunkOptions().Size))

	return s, nil
}

// initSchema creates the manifest, chunk metadata, and FTS5 tables.
func (s *IndexStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- Manifest: one row per currently-indexed corpus file.
	CREATE TABLE IF NOT EXISTS manifest (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		indexed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Plain metadata copy of every chunk.
	CREATE TABLE IF NOT EXISTS chunks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		content TEXT NOT NULL,
		UNIQUE(path, ordinal)
	);

	-- Searchable copy. path and ordinal are stored but not tokenized.
	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		path UNINDEXED,
		ordinal UNINDEXED,
		content,
		tokenize='porter unicode61'
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *IndexStore) chunkOptions() chunk.Options {
	return chunk.Options{Size: s.opts.ChunkSize, Overlap: s.opts.ChunkOverlap}
}

// isClosed reports whether Close has been called.
func (s *IndexStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func notify(progress ProgressFunc, format string, args ...any) {
	if progress != nil {
		progress(fmt.Sprintf(format, args...))
	}
}

// Reindex reconciles the index with the current corpus state. Files whose
// hash changed (or every matched file when force is set) get their chunk
// set replaced inside one transaction per file; files gone from the corpus
// lose their chunks and manifest row. Unreadable files are logged and
// skipped. Concurrent Reindex calls are serialized.
func (s *IndexStore) Reindex(ctx context.Context, pattern string, force bool, progress ProgressFunc) (*ReindexResult, error) {
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()

	if s.isClosed() {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "index store is closed", nil)
	}

	notify(progress, "indexing started (pattern %s)", pattern)

	current, err := scanner.Scan(pattern)
	if err != nil {
		return nil, err
	}

	previous, err := s.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	diff := scanner.ComputeDiff(current, previous, force)
	notify(progress, "%d changed, %d new, %d removed",
		len(diff.Changed), len(diff.Added), len(diff.Removed))

	result := &ReindexResult{Upserted: []string{}, Deleted: []string{}}

	for _, path := range append(diff.Changed, diff.Added...) {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			slog.Warn("failed to read corpus file, skipping",
				slog.String("path", path),
				slog.String("error", readErr.Error()))
			continue
		}

		chunks := chunk.Split(string(data), s.chunkOptions())
		if err := s.replaceFile(ctx, path, current[path], chunks); err != nil {
			return nil, fmt.Errorf("failed to index %s: %w", path, err)
		}

		result.Upserted = append(result.Upserted, path)
		slog.Debug("indexed file",
			slog.String("path", path),
			slog.Int("chunks", len(chunks)))
	}

	for _, path := range diff.Removed {
		if err := s.removeFile(ctx, path); err != nil {
			return nil, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		result.Deleted = append(result.Deleted, path)
		slog.Debug("removed file from index", slog.String("path", path))
	}

	notify(progress, "indexing complete: %d upserted, %d deleted",
		len(result.Upserted), len(result.Deleted))
	slog.Info("reindex complete",
		slog.Int("upserted", len(result.Upserted)),
		slog.Int("deleted", len(result.Deleted)))

	return result, nil
}

// replaceFile swaps a file's chunk set in both representations and updates
// its manifest row, all inside one transaction. A reader either sees the
// old chunk set or the new one, never a partial state.
func (s *IndexStore) replaceFile(ctx context.Context, path, hash string, chunks []chunk.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeerrors.StorageError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Delete-then-insert: FTS5 virtual tables have no REPLACE.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE path = ?`, path); err != nil {
		return storeerrors.StorageError("failed to delete chunk metadata", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks_fts WHERE path = ?`, path); err != nil {
		return storeerrors.StorageError("failed to delete indexed chunks", err)
	}

	metaStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (path, ordinal, content) VALUES (?, ?, ?)`)
	if err != nil {
		return storeerrors.StorageError("failed to prepare metadata insert", err)
	}
	defer metaStmt.Close()

	ftsStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks_fts (path, ordinal, content) VALUES (?, ?, ?)`)
	if err != nil {
		return storeerrors.StorageError("failed to prepare FTS insert", err)
	}
	defer ftsStmt.Close()

	for _, c := range chunks {
		if _, err := metaStmt.ExecContext(ctx, path, c.Ordinal, c.Content); err != nil {
			return storeerrors.StorageError("failed to insert chunk metadata", err)
		}
		if _, err := ftsStmt.ExecContext(ctx, path, c.Ordinal, c.Content); err != nil {
			return storeerrors.StorageError("failed to insert indexed chunk", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`REPLACE INTO manifest (path, hash) VALUES (?, ?)`, path, hash); err != nil {
		return storeerrors.StorageError("failed to update manifest", err)
	}

	if err := tx.Commit(); err != nil {
		return storeerrors.StorageError("failed to commit", err)
	}
	return nil
}

// removeFile deletes a vanished file's chunks and manifest row atomically.
func (s *IndexStore) removeFile(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeerrors.StorageError("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM chunks WHERE path = ?`,
		`DELETE FROM chunks_fts WHERE path = ?`,
		`DELETE FROM manifest WHERE path = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, path); err != nil {
			return storeerrors.StorageError("failed to delete file rows", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeerrors.StorageError("failed to commit", err)
	}
	return nil
}

// Manifest returns the stored path -> hash mapping.
func (s *IndexStore) Manifest(ctx context.Context) (map[string]string, error) {
	if s.isClosed() {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "index store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT path, hash FROM manifest`)
	if err != nil {
		return nil, storeerrors.StorageError("failed to load manifest", err)
	}
	defer rows.Close()

	manifest := make(map[string]string)
	for rows.Next() {
		var path, hash string
		if err := rows.Scan(&path, &hash); err != nil {
			return nil, storeerrors.StorageError("failed to scan manifest row", err)
		}
		manifest[path] = hash
	}
	return manifest, rows.Err()
}

// ChunkCount returns the number of chunk metadata rows.
func (s *IndexStore) ChunkCount(ctx context.Context) (int, error) {
	if s.isClosed() {
		return 0, storeerrors.New(storeerrors.ErrCodeStoreClosed, "index store is closed", nil)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, storeerrors.StorageError("failed to count chunks", err)
	}
	return count, nil
}

// ChunksForPath returns one file's chunks from the given representation
// ("chunks" or "chunks_fts"), ordered by ordinal. Used by the consistency
// check and the test suite.
func (s *IndexStore) ChunksForPath(ctx context.Context, table, path string) ([]Chunk, error) {
	if s.isClosed() {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "index store is closed", nil)
	}
	if table != "chunks" && table != "chunks_fts" {
		return nil, storeerrors.ValidationError("unknown chunk table: "+table, nil)
	}

	query := fmt.Sprintf(
		`SELECT path, ordinal, content FROM %s WHERE path = ? ORDER BY ordinal`, table)
	rows, err := s.db.QueryContext(ctx, query, path)
	if err != nil {
		return nil, storeerrors.StorageError("failed to query chunks", err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.Path, &c.Ordinal, &c.Content); err != nil {
			return nil, storeerrors.StorageError("failed to scan chunk", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Close checkpoints the WAL and closes the store. Idempotent.
func (s *IndexStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}
