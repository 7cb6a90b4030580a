package store

import (
	"context"
	"log/slog"
	"strings"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

// EscapeQuery neutralizes FTS5 control syntax in user input.
// FTS5 gives special meaning to " * - : ( ) and bare keywords like AND/OR.
// Stripping embedded double quotes and wrapping the whole input in quotes
// turns it into a single literal phrase.
func EscapeQuery(query string) string {
	query = strings.ReplaceAll(query, `"`, "")
	return `"` + query + `"`
}

// Search runs a keyword query against the FTS index and returns up to topK
// chunk texts, most relevant first. An empty result is not an error; a
// broken store is, so callers can tell "no matches" from "can't search".
func (s *IndexStore) Search(ctx context.Context, query string, topK int) ([]string, error) {
	if s.isClosed() {
		return nil, storeerrors.New(storeerrors.ErrCodeStoreClosed, "index store is closed", nil)
	}
	if topK <= 0 {
		return nil, storeerrors.New(storeerrors.ErrCodeInvalidTopK, "topK must be positive", nil)
	}
	if strings.TrimSpace(strings.ReplaceAll(query, `"`, "")) == "" {
		return []string{}, nil
	}

	escaped := EscapeQuery(query)

	// FTS5 rank orders best matches first (bm25, lower is better).
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM chunks_fts
		WHERE content MATCH ?
		ORDER BY rank
		LIMIT ?
	`, escaped, topK)
	if err != nil {
		return nil, storeerrors.New(storeerrors.ErrCodeSearchFailed, "search query failed", err)
	}
	defer rows.Close()

	results := []string{}
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, storeerrors.StorageError("failed to scan search result", err)
		}
		results = append(results, content)
	}
	if err := rows.Err(); err != nil {
		return nil, storeerrors.New(storeerrors.ErrCodeSearchFailed, "search iteration failed", err)
	}

	slog.Debug("search complete",
		slog.String("query", truncate(query, 50)),
		slog.Int("results", len(results)))

	return results, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
