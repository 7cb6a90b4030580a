//go:build ignore

// Package main generates a synthetic markdown corpus for index benchmarks.
// Usage: go run scripts/generate-test-corpus.go -files 200 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numFiles   = flag.Int("files", 200, "Number of markdown files to generate")
	outputDir  = flag.String("output", "testdata/bench", "Output directory")
	paragraphs = flag.Int("paragraphs", 12, "Paragraphs per file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var topics = []string{
	"thunder", "valley", "ember", "river", "lantern", "harvest",
	"compass", "archive", "signal", "meridian", "tide", "orchard",
}

var sentences = []string{
	"The %s settled over the ridge before dawn.",
	"Nobody spoke of the %s until the third season.",
	"Records of the %s were kept in the lower archive.",
	"A survey of the %s began the following spring.",
	"The %s was marked on every map after that year.",
	"Travelers described the %s differently in each account.",
}

func main() {
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *numFiles; i++ {
		topic := topics[rng.Intn(len(topics))]
		var b strings.Builder
		fmt.Fprintf(&b, "# Notes on the %s (%04d)\n\n", topic, i)
		for p := 0; p < *paragraphs; p++ {
			for s := 0; s < 4; s++ {
				fmt.Fprintf(&b, sentences[rng.Intn(len(sentences))]+" ", topics[rng.Intn(len(topics))])
			}
			b.WriteString("\n\n")
		}

		path := filepath.Join(*outputDir, fmt.Sprintf("lore-%04d.md", i))
		if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
	}

	fmt.Printf("generated %d files in %s\n", *numFiles, *outputDir)
}
