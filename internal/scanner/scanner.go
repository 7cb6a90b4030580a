// Package scanner discovers corpus files and fingerprints their content.
// The resulting path -> hash map is diffed against the stored manifest to
// decide which files need reindexing.
package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	storeerrors "github.com/lorekit/lorestore/internal/errors"
)

// DefaultPattern matches the corpus location the persona configs live in.
const DefaultPattern = "config/*.md"

// HashFile returns the hex-encoded SHA-256 digest of a file's raw bytes.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// HashContent returns the hex-encoded SHA-256 digest of raw bytes.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Scan globs for corpus files and hashes each one in parallel.
// Files that cannot be read are logged and skipped; an unreadable file is
// never fatal to the scan. A malformed glob pattern is fatal.
func Scan(pattern string) (map[string]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, storeerrors.New(storeerrors.ErrCodeBadPattern, "invalid corpus pattern: "+pattern, err)
	}

	var (
		mu     sync.Mutex
		hashes = make(map[string]string, len(matches))
	)

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, path := range matches {
		path := path
		g.Go(func() error {
			if info, statErr := os.Stat(path); statErr != nil || info.IsDir() {
				return nil
			}
			h, hashErr := HashFile(path)
			if hashErr != nil {
				slog.Warn("failed to hash corpus file",
					slog.String("path", path),
					slog.String("error", hashErr.Error()))
				return nil
			}
			mu.Lock()
			hashes[path] = h
			mu.Unlock()
			return nil
		})
	}
	// Workers only ever return nil; the group is used for its limit and join.
	_ = g.Wait()

	return hashes, nil
}

// Diff computes the change set between a fresh scan and the stored
// manifest. With force set, every current file counts as changed.
type Diff struct {
	// Changed holds paths present in both maps whose hash differs
	// (or every current path when forced).
	Changed []string
	// Added holds paths present only in the current scan.
	Added []string
	// Removed holds paths present only in the manifest.
	Removed []string
}

// ComputeDiff diffs current against previous. Output slices are sorted so
// per-run reporting is stable.
func ComputeDiff(current, previous map[string]string, force bool) Diff {
	var d Diff
	for path, hash := range current {
		prev, ok := previous[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case force || prev != hash:
			d.Changed = append(d.Changed, path)
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}
	sort.Strings(d.Changed)
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	return d
}
