// Package store provides the SQLite-backed persistence layer: the
// incremental full-text index over the corpus, with a manifest of file
// hashes and two parallel chunk representations (FTS5 and plain metadata).
package store

// Chunk is one indexed slice of a corpus file.
type Chunk struct {
	// Path is the corpus-relative path of the owning file.
	Path string

	// Ordinal is the 0-based position of this chunk within the file.
	Ordinal int

	// Content is the chunk text.
	Content string
}

// ReindexResult reports what a Reindex call did. Both slices are non-nil
// so callers can report empty runs without nil checks.
type ReindexResult struct {
	// Upserted lists files whose chunk sets were (re)written.
	Upserted []string

	// Deleted lists files removed from the index because they left
	// the corpus.
	Deleted []string
}

// ProgressFunc receives human-readable progress messages during a long
// Reindex run. Purely advisory; may be nil.
type ProgressFunc func(msg string)

// Options configures an IndexStore.
type Options struct {
	// ChunkSize is the chunk size in bytes (0 = chunk.DefaultSize).
	ChunkSize int

	// ChunkOverlap is the overlap between consecutive chunks in bytes
	// (negative = chunk.DefaultOverlap).
	ChunkOverlap int
}
