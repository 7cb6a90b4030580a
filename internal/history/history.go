// Package history provides the message-history log: every inbound and
// outbound chat message, queryable as a context window around a given
// message for prompt assembly.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

// Direction of a logged message relative to the agent.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Message is one logged chat message.
type Message struct {
	ChatID    int64
	MessageID int64
	UserID    int64
	Username  string
	Direction string
	Text      string
	TS        time.Time
}

// Store is the message-history log. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

// Open creates or opens the history database. An empty path opens an
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
		return nil, storeerrors.StorageError("failed to open history database", err)
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
		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			chat_id INTEGER NOT NULL,
			message_id INTEGER NOT NULL,
			user_id INTEGER,
			username TEXT,
			direction TEXT NOT NULL,
			text TEXT,
			ts TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages (chat_id, ts);
	`); err != nil {
		_ = db.Close()
		return nil, storeerrors.StorageError("failed to initialize schema", err)
	}

	return &Store{db: db}, nil
}

// Log stores one message. A zero TS is stamped with the current time.
func (s *Store) Log(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storeerrors.New(storeerrors.ErrCodeStoreClosed, "history store is closed", nil)
	}
	if msg.Direction != DirectionIn && msg.Direction != DirectionOut {
		return storeerrors.ValidationError("direction must be \"in\" or \"out\"", nil)
	}

	ts := msg.TS
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (chat_id, message_id, user_id, username, direction, text, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ChatID, msg.MessageID, msg.UserID, msg.Username, msg.Direction, msg.Text, ts.UTC()); err != nil {
		return storeerrors.StorageError("failed to log message", err)
	}
	return nil
}

// Context returns up to window messages on each side of the given message
// plus the message itself, in chronological order. Selection is by
// timestamp rather than message ID so gaps in sparse ID sequences do not
// shrink the window. Returns an empty slice when the center message is
// unknown.
func (s *Store) Context(ctx context.Context, chatID, messageID int64, window int, start, end time.Time) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "history store is closed", nil)
	}
	if window < 0 {
		return nil, storeerrors.ValidationError("window must be non-negative", nil)
	}

	center, err := s.getMessage(ctx, chatID, messageID)
	if err != nil {
		if storeerrors.IsNotFound(err) {
			return []Message{}, nil
		}
		return nil, err
	}

	beforeQuery := `
		SELECT chat_id, message_id, user_id, username, direction, text, ts
		FROM messages WHERE chat_id = ? AND ts < ?`
	beforeArgs := []any{chatID, center.TS}
	if !start.IsZero() {
		beforeQuery += ` AND ts >= ?`
		beforeArgs = append(beforeArgs, start.UTC())
	}
	beforeQuery += ` ORDER BY ts DESC LIMIT ?`
	beforeArgs = append(beforeArgs, window)

	before, err := s.queryMessages(ctx, beforeQuery, beforeArgs...)
	if err != nil {
		return nil, err
	}

	afterQuery := `
		SELECT chat_id, message_id, user_id, username, direction, text, ts
		FROM messages WHERE chat_id = ? AND ts > ?`
	afterArgs := []any{chatID, center.TS}
	if !end.IsZero() {
		afterQuery += ` AND ts < ?`
		afterArgs = append(afterArgs, end.UTC())
	}
	afterQuery += ` ORDER BY ts ASC LIMIT ?`
	afterArgs = append(afterArgs, window)

	after, err := s.queryMessages(ctx, afterQuery, afterArgs...)
	if err != nil {
		return nil, err
	}

	// before came back newest-first; flip it into chronological order.
	result := make([]Message, 0, len(before)+1+len(after))
	for i := len(before) - 1; i >= 0; i-- {
		result = append(result, before[i])
	}
	result = append(result, *center)
	result = append(result, after...)
	return result, nil
}

// Recent returns the last n messages for a chat, oldest first.
func (s *Store) Recent(ctx context.Context, chatID int64, n int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "history store is closed", nil)
	}

	msgs, err := s.queryMessages(ctx, `
		SELECT chat_id, message_id, user_id, username, direction, text, ts
		FROM messages WHERE chat_id = ?
		ORDER BY ts DESC LIMIT ?`, chatID, n)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *Store) getMessage(ctx context.Context, chatID, messageID int64) (*Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chat_id, message_id, user_id, username, direction, text, ts
		FROM messages WHERE chat_id = ? AND message_id = ?`,
		chatID, messageID)

	var msg Message
	var username, text sql.NullString
	err := row.Scan(&msg.ChatID, &msg.MessageID, &msg.UserID, &username, &msg.Direction, &text, &msg.TS)
	if err == sql.ErrNoRows {
		return nil, storeerrors.NotFoundError("message not found")
	}
	if err != nil {
		return nil, storeerrors.StorageError("failed to load message", err)
	}
	msg.Username = username.String
	msg.Text = text.String
	return &msg, nil
}

func (s *Store) queryMessages(ctx context.Context, query string, args ...any) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerrors.StorageError("failed to query messages", err)
	}
	defer rows.Close()

	msgs := []Message{}
	for rows.Next() {
		var msg Message
		var username, text sql.NullString
		if err := rows.Scan(&msg.ChatID, &msg.MessageID, &msg.UserID, &username, &msg.Direction, &text, &msg.TS); err != nil {
			return nil, storeerrors.StorageError("failed to scan message", err)
		}
		msg.Username = username.String
		msg.Text = text.String
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, storeerrors.StorageError("failed reading messages", err)
	}
	return msgs, nil
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
