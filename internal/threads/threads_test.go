package threads

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestThread_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetThread(ctx, "chat:42", "thread_abc"))

	got, err := s.Thread(ctx, "chat:42")
	require.NoError(t, err)
	assert.Equal(t, "thread_abc", got)

	// Replacement.
	require.NoError(t, s.SetThread(ctx, "chat:42", "thread_xyz"))
	got, err = s.Thread(ctx, "chat:42")
	require.NoError(t, err)
	assert.Equal(t, "thread_xyz", got)
}

func TestThread_UnknownKeyIsNotFound(t *testing.T) {
	s := newStore(t)

	_, err := s.Thread(context.Background(), "chat:missing")
	require.Error(t, err)
	assert.True(t, storeerrors.IsNotFound(err))
}

func TestAll(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetThread(ctx, "a", "t1"))
	require.NoError(t, s.SetThread(ctx, "b", "t2"))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "t1", "b": "t2"}, all)
}

func TestContext_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetContext(ctx, "chat:42", "we were talking about storms"))

	got, err := s.Context(ctx, "chat:42")
	require.NoError(t, err)
	assert.Equal(t, "we were talking about storms", got)
}

func TestMetadata_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	type meta struct {
		Model string `json:"model"`
		Turns int    `json:"turns"`
	}

	require.NoError(t, s.SetMetadata(ctx, "chat:42", meta{Model: "gpt", Turns: 7}))

	var got meta
	require.NoError(t, s.Metadata(ctx, "chat:42", &got))
	assert.Equal(t, meta{Model: "gpt", Turns: 7}, got)

	err := s.Metadata(ctx, "chat:nothing", &got)
	assert.True(t, storeerrors.IsNotFound(err))
}

func TestMigrateFromJSON(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	jsonPath := filepath.Join(t.TempDir(), "threads.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"chat:1": "t1", "chat:2": "t2"}`), 0644))

	require.NoError(t, s.MigrateFromJSON(ctx, jsonPath))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "t1", all["chat:1"])

	// Legacy file is removed after a successful import.
	_, statErr := os.Stat(jsonPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMigrateFromJSON_MissingFileIsNoop(t *testing.T) {
	s := newStore(t)

	err := s.MigrateFromJSON(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.NoError(t, err)
}

func TestMigrateFromJSON_MalformedFile(t *testing.T) {
	s := newStore(t)

	jsonPath := filepath.Join(t.TempDir(), "threads.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{not json"), 0644))

	err := s.MigrateFromJSON(context.Background(), jsonPath)
	require.Error(t, err)
	// The malformed file is left in place for inspection.
	_, statErr := os.Stat(jsonPath)
	assert.NoError(t, statErr)
}

func TestClosedStore(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Close())

	err := s.SetThread(context.Background(), "a", "t")
	assert.True(t, storeerrors.IsStorageUnavailable(err))
}
