// Package chunk splits corpus documents into fixed-size overlapping slices.
// A chunk is the unit of indexing and retrieval: searches return chunk
// text, and reindexing replaces a file's chunk set wholesale.
package chunk

import "strings"

const (
	// DefaultSize is the default chunk size in bytes.
	DefaultSize = 900

	// DefaultOverlap is the default number of bytes shared between
	// consecutive chunks. Overlap keeps phrases that straddle a chunk
	// boundary findable.
	DefaultOverlap = 120
)

// Chunk is one contiguous slice of a document.
type Chunk struct {
	// Ordinal is the 0-based position within the owning file. Ordinals
	// are contiguous over emitted chunks: whitespace-only slices are
	// dropped without consuming an ordinal.
	Ordinal int

	// Offset is the byte offset of the slice start within the document.
	Offset int

	// Content is the raw slice text.
	Content string
}

// Options configures the splitter.
type Options struct {
	// Size is the chunk size in bytes. Defaults to DefaultSize if <= 0.
	Size int

	// Overlap is the overlap between consecutive chunks in bytes.
	// Must be smaller than Size; defaults to DefaultOverlap if < 0.
	Overlap int
}

// normalized returns options with defaults applied and overlap clamped
// below size.
func (o Options) normalized() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Overlap < 0 {
		o.Overlap = DefaultOverlap
	}
	if o.Overlap >= o.Size {
		o.Overlap = o.Size - 1
	}
	return o
}

// Split cuts text into overlapping chunks. Slices start at offsets
// 0, size-overlap, 2*(size-overlap), ... and each spans at most size
// bytes; the final slice ends exactly at len(text). Whitespace-only
// slices are dropped. Empty or all-whitespace input yields no chunks.
func Split(text string, opts Options) []Chunk {
	opts = opts.normalized()

	var chunks []Chunk
	step := opts.Size - opts.Overlap
	for start := 0; start < len(text); start += step {
		end := start + opts.Size
		if end > len(text) {
			end = len(text)
		}
		piece := text[start:end]
		if strings.TrimSpace(piece) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Ordinal: len(chunks),
			Offset:  start,
			Content: piece,
		})
	}
	return chunks
}
