package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRememberCmd_AppendsEvent(t *testing.T) {
	// Given: a fresh data dir
	dataDir := filepath.Join(t.TempDir(), "data")

	// When: remembering a note
	output, err := executeCommand(t, "remember", "shipped the landing page", "--data-dir", dataDir)

	// Then: it should confirm with the event id
	require.NoError(t, err)
	assert.Contains(t, output, "remembered ")
}

func TestRecallCmd_FindsRememberedEvent(t *testing.T) {
	// Given: a remembered note
	dataDir := filepath.Join(t.TempDir(), "data")
	_, err := executeCommand(t, "remember", "shipped the landing page", "--data-dir", dataDir)
	require.NoError(t, err)

	// When: recalling by keyword
	output, err := executeCommand(t, "recall", "landing", "--data-dir", dataDir)

	// Then: the note should be printed
	require.NoError(t, err)
	assert.Contains(t, output, "shipped the landing page")
}

func TestRecallCmd_ListsRecentWithoutQuery(t *testing.T) {
	// Given: two remembered events, one tagged
	dataDir := filepath.Join(t.TempDir(), "data")
	_, err := executeCommand(t, "remember", "first note", "--data-dir", dataDir)
	require.NoError(t, err)
	_, err = executeCommand(t, "remember", "second note", "--tag", "infra", "--type", "decision", "--data-dir", dataDir)
	require.NoError(t, err)

	// When: recalling without a query
	output, err := executeCommand(t, "recall", "--data-dir", dataDir)

	// Then: both events should be listed
	require.NoError(t, err)
	assert.Contains(t, output, "first note")
	assert.Contains(t, output, "second note")
	assert.Contains(t, output, "decision")
}

func TestRecallCmd_TagFilter(t *testing.T) {
	// Given: a tagged and an untagged event
	dataDir := filepath.Join(t.TempDir(), "data")
	_, err := executeCommand(t, "remember", "untagged note", "--data-dir", dataDir)
	require.NoError(t, err)
	_, err = executeCommand(t, "remember", "tagged note", "--tag", "infra", "--data-dir", dataDir)
	require.NoError(t, err)

	// When: recalling with --tag
	output, err := executeCommand(t, "recall", "--tag", "infra", "--data-dir", dataDir)

	// Then: only the tagged event should be listed
	require.NoError(t, err)
	assert.Contains(t, output, "tagged note")
	assert.NotContains(t, output, "untagged note")
}

func TestRecallCmd_EmptyLog(t *testing.T) {
	// When: recalling from an empty log
	output, err := executeCommand(t, "recall", "--data-dir", filepath.Join(t.TempDir(), "data"))

	// Then: it should report no events
	require.NoError(t, err)
	assert.Contains(t, output, "No events")
}
