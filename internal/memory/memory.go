// Package memory provides the append-only event log: observations,
// rituals, and other moments the agent wants to keep. Events live in
// SQLite; a Bleve index alongside makes them recallable by keyword.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

// Event is one remembered moment.
type Event struct {
	ID      string
	TS      time.Time
	Type    string
	Content string
	Tags    []string
}

// Filter narrows a Query call. Zero-value fields are ignored.
type Filter struct {
	Start time.Time
	End   time.Time
	Tags  []string
	Limit int
}

// recallDoc is the shape indexed into Bleve.
type recallDoc struct {
	Content string `json:"content"`
	Type    string `json:"type"`
	Tags    string `json:"tags"`
}

// Log is the event store. Safe for concurrent use.
type Log struct {
	mu     sync.RWMutex
	db     *sql.DB
	idx    bleve.Index
	closed bool
}

// Open creates or opens the event log. dbPath empty opens an in-memory
// database; indexPath empty keeps the recall index in memory too. A
// corrupt recall index is discarded and rebuilt from the SQLite log.
func Open(dbPath, indexPath string) (*Log, error) {
	dsn := dbPath
	if dbPath == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, storeerrors.StorageError("failed to create data directory", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storeerrors.StorageError("failed to open memory database", err)
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
		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			ts TIMESTAMP NOT NULL,
			type TEXT NOT NULL,
			content TEXT,
			tags TEXT
		)`); err != nil {
		_ = db.Close()
		return nil, storeerrors.StorageError("failed to initialize schema", err)
	}

	l := &Log{db: db}

	idx, rebuilt, err := openRecallIndex(indexPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	l.idx = idx

	if rebuilt {
		if err := l.rebuildRecall(context.Background()); err != nil {
			_ = idx.Close()
			_ = db.Close()
			return nil, err
		}
	}

	return l, nil
}

// openRecallIndex opens or creates the Bleve index. The second return
// value reports that a fresh index was created and needs a rebuild pass.
func openRecallIndex(path string) (bleve.Index, bool, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, false, storeerrors.StorageError("failed to create recall index", err)
		}
		return idx, false, nil
	}

	idx, err := bleve.Open(path)
	if err == nil {
		return idx, false, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		// Anything else means a damaged index. Drop and rebuild from
		// the SQLite log, which remains the source of truth.
		slog.Warn("recall index unusable, rebuilding",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, false, storeerrors.StorageError("cannot clear damaged recall index", removeErr)
		}
	}

	idx, err = bleve.New(path, bleve.NewIndexMapping())
	if err != nil {
		return nil, false, storeerrors.StorageError("failed to create recall index", err)
	}
	return idx, true, nil
}

// rebuildRecall re-indexes every stored event into Bleve.
func (l *Log) rebuildRecall(ctx context.Context) error {
	rows, err := l.db.QueryContext(ctx, `SELECT id, type, content, tags FROM events`)
	if err != nil {
		return storeerrors.StorageError("failed to read events for rebuild", err)
	}
	defer rows.Close()

	batch := l.idx.NewBatch()
	for rows.Next() {
		var id, typ string
		var content, tags sql.NullString
		if err := rows.Scan(&id, &typ, &content, &tags); err != nil {
			return storeerrors.StorageError("failed to scan event", err)
		}
		if err := batch.Index(id, recallDoc{
			Content: content.String,
			Type:    typ,
			Tags:    tags.String,
		}); err != nil {
			return storeerrors.StorageError("failed to stage event for rebuild", err)
		}
	}
	if err := rows.Err(); err != nil {
		return storeerrors.StorageError("failed reading events", err)
	}

	if err := l.idx.Batch(batch); err != nil {
		return storeerrors.StorageError("failed to rebuild recall index", err)
	}
	return nil
}

// Append stores a new event and indexes it for recall.
func (l *Log) Append(ctx context.Context, eventType, content string, tags []string) (*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "memory log is closed", nil)
	}
	if strings.TrimSpace(eventType) == "" {
		return nil, storeerrors.ValidationError("event type is required", nil)
	}

	ev := &Event{
		ID:      uuid.NewString(),
		TS:      time.Now().UTC(),
		Type:    eventType,
		Content: content,
		Tags:    tags,
	}

	tagStr := strings.Join(tags, ",")
	if _, err := l.db.ExecContext(ctx,
		`INSERT INTO events (id, ts, type, content, tags) VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.TS, ev.Type, ev.Content, tagStr); err != nil {
		return nil, storeerrors.StorageError("failed to append event", err)
	}

	if err := l.idx.Index(ev.ID, recallDoc{Content: content, Type: eventType, Tags: tagStr}); err != nil {
		// The SQLite row is the source of truth; a failed recall-index
		// write is logged, and a later rebuild recovers it.
		slog.Warn("failed to index event for recall",
			slog.String("id", ev.ID),
			slog.String("error", err.Error()))
	}

	return ev, nil
}

// Query returns events matching the filter, most recent first.
func (l *Log) Query(ctx context.Context, f Filter) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "memory log is closed", nil)
	}

	query := `SELECT id, ts, type, content, tags FROM events WHERE 1=1`
	var args []any
	if !f.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, f.Start.UTC())
	}
	if !f.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, f.End.UTC())
	}
	if len(f.Tags) > 0 {
		likes := make([]string, len(f.Tags))
		for i, tag := range f.Tags {
			likes[i] = "tags LIKE ?"
			args = append(args, "%"+tag+"%")
		}
		query += ` AND (` + strings.Join(likes, " OR ") + `)`
	}
	query += ` ORDER BY ts DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerrors.StorageError("failed to query events", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Recall runs a keyword search over event content via Bleve and returns
// up to topK events, most relevant first.
func (l *Log) Recall(ctx context.Context, query string, topK int) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "memory log is closed", nil)
	}
	if topK <= 0 {
		return nil, storeerrors.New(storeerrors.ErrCodeInvalidTopK, "topK must be positive", nil)
	}
	if strings.TrimSpace(query) == "" {
		return []Event{}, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")
	req := bleve.NewSearchRequest(matchQuery)
	req.Size = topK

	res, err := l.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, storeerrors.New(storeerrors.ErrCodeSearchFailed, "recall search failed", err)
	}

	events := []Event{}
	for _, hit := range res.Hits {
		ev, err := l.getEvent(ctx, hit.ID)
		if err != nil {
			if storeerrors.IsNotFound(err) {
				// Index ahead of the log; skip the orphan.
				continue
			}
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, nil
}

// getEvent fetches a single event row by ID.
func (l *Log) getEvent(ctx context.Context, id string) (*Event, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, ts, type, content, tags FROM events WHERE id = ?`, id)

	ev, err := scanEvent(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storeerrors.NotFoundError(fmt.Sprintf("event %s not found", id))
	}
	if err != nil {
		return nil, storeerrors.StorageError("failed to load event", err)
	}
	return ev, nil
}

func scanEvent(scan func(...any) error) (*Event, error) {
	var ev Event
	var content, tags sql.NullString
	if err := scan(&ev.ID, &ev.TS, &ev.Type, &content, &tags); err != nil {
		return nil, err
	}
	ev.Content = content.String
	if tags.String != "" {
		ev.Tags = strings.Split(tags.String, ",")
	}
	return &ev, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	events := []Event{}
	for rows.Next() {
		ev, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, storeerrors.StorageError("failed to scan event", err)
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storeerrors.StorageError("failed reading events", err)
	}
	return events, nil
}

// Close closes the recall index and the database. Idempotent.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	var firstErr error
	if l.idx != nil {
		if err := l.idx.Close(); err != nil {
			firstErr = err
		}
	}
	if l.db != nil {
		if err := l.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
