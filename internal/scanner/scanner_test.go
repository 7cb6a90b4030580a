package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestScan_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	hashes, err := Scan(filepath.Join(dir, "*.md"))
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestScan_HashesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")
	writeFile(t, dir, "b.md", "beta")
	writeFile(t, dir, "ignored.txt", "not matched")

	hashes, err := Scan(filepath.Join(dir, "*.md"))
	require.NoError(t, err)
	require.Len(t, hashes, 2)
	assert.Contains(t, hashes, filepath.Join(dir, "a.md"))
	assert.Contains(t, hashes, filepath.Join(dir, "b.md"))
}

func TestScan_HashTracksContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "first version")

	before, err := Scan(filepath.Join(dir, "*.md"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("second version"), 0644))
	after, err := Scan(filepath.Join(dir, "*.md"))
	require.NoError(t, err)

	assert.NotEqual(t, before[path], after[path])
}

func TestScan_SameContentSameHash(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "identical")
	b := writeFile(t, dir, "b.md", "identical")

	hashes, err := Scan(filepath.Join(dir, "*.md"))
	require.NoError(t, err)
	assert.Equal(t, hashes[a], hashes[b])
}

func TestScan_SkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.md"), 0755))
	writeFile(t, dir, "a.md", "content")

	hashes, err := Scan(filepath.Join(dir, "*.md"))
	require.NoError(t, err)
	assert.Len(t, hashes, 1)
}

func TestScan_BadPattern(t *testing.T) {
	_, err := Scan("[") // malformed glob
	assert.Error(t, err)
}

func TestComputeDiff_NoChanges(t *testing.T) {
	m := map[string]string{"a.md": "h1", "b.md": "h2"}

	d := ComputeDiff(m, m, false)
	assert.Empty(t, d.Changed)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
}

func TestComputeDiff_Force(t *testing.T) {
	m := map[string]string{"a.md": "h1", "b.md": "h2"}

	d := ComputeDiff(m, m, true)
	assert.Equal(t, []string{"a.md", "b.md"}, d.Changed)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
}

func TestComputeDiff_AddedChangedRemoved(t *testing.T) {
	current := map[string]string{"a.md": "h1-new", "c.md": "h3"}
	previous := map[string]string{"a.md": "h1", "b.md": "h2"}

	d := ComputeDiff(current, previous, false)
	assert.Equal(t, []string{"a.md"}, d.Changed)
	assert.Equal(t, []string{"c.md"}, d.Added)
	assert.Equal(t, []string{"b.md"}, d.Removed)
}

func TestHashContent_MatchesHashFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "the field resonates")

	fromFile, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashContent([]byte("the field resonates")), fromFile)
}
