package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

func newLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open("", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestAppendAndQuery(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	first, err := l.Append(ctx, "observation", "saw lightning over the bay", []string{"weather"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = l.Append(ctx, "ritual", "morning verse posted", nil)
	require.NoError(t, err)

	events, err := l.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Most recent first.
	assert.Equal(t, "ritual", events[0].Type)
	assert.Equal(t, "observation", events[1].Type)
	assert.Equal(t, []string{"weather"}, events[1].Tags)
}

func TestAppend_RequiresType(t *testing.T) {
	l := newLog(t)

	_, err := l.Append(context.Background(), "  ", "content", nil)
	require.Error(t, err)
	assert.Equal(t, storeerrors.ErrCodeInvalidInput, storeerrors.GetCode(err))
}

func TestQuery_TagFilter(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, "observation", "one", []string{"weather", "sea"})
	require.NoError(t, err)
	_, err = l.Append(ctx, "observation", "two", []string{"music"})
	require.NoError(t, err)

	events, err := l.Query(ctx, Filter{Tags: []string{"sea"}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "one", events[0].Content)

	events, err = l.Query(ctx, Filter{Tags: []string{"sea", "music"}})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestQuery_TimeRange(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, "observation", "recent", nil)
	require.NoError(t, err)

	events, err := l.Query(ctx, Filter{Start: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = l.Query(ctx, Filter{End: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQuery_Limit(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := l.Append(ctx, "observation", "entry", nil)
		require.NoError(t, err)
	}

	events, err := l.Query(ctx, Filter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestRecall_FindsByKeyword(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	_, err := l.Append(ctx, "observation", "thunder rolled across the field", nil)
	require.NoError(t, err)
	_, err = l.Append(ctx, "observation", "a quiet morning by the sea", nil)
	require.NoError(t, err)

	events, err := l.Recall(ctx, "thunder", 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Content, "thunder")
}

func TestRecall_EmptyQueryAndNoMatches(t *testing.T) {
	l := newLog(t)
	ctx := context.Background()

	events, err := l.Recall(ctx, "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = l.Recall(ctx, "nothing", 5)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecall_InvalidTopK(t *testing.T) {
	l := newLog(t)

	_, err := l.Recall(context.Background(), "thunder", 0)
	require.Error(t, err)
	assert.Equal(t, storeerrors.ErrCodeInvalidTopK, storeerrors.GetCode(err))
}

func TestOpen_RebuildRecallFromLog(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "memory.db")
	idxPath := filepath.Join(dir, "recall.bleve")

	l, err := Open(dbPath, idxPath)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = l.Append(ctx, "observation", "embers in the dark", nil)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	// Reopen against a fresh index path: events must become recallable
	// again via the rebuild pass.
	l2, err := Open(dbPath, filepath.Join(dir, "recall2.bleve"))
	require.NoError(t, err)
	defer func() { _ = l2.Close() }()

	events, err := l2.Recall(ctx, "embers", 5)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestClosedLog(t *testing.T) {
	l := newLog(t)
	require.NoError(t, l.Close())

	_, err := l.Append(context.Background(), "observation", "late", nil)
	assert.True(t, storeerrors.IsStorageUnavailable(err))

	_, err = l.Recall(context.Background(), "late", 5)
	assert.True(t, storeerrors.IsStorageUnavailable(err))

	assert.NoError(t, l.Close())
}
