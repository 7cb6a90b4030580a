package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/lorekit/lorestore/internal/memory"
	"github.com/lorekit/lorestore/internal/store"
)

// Printer writes command results to a single output stream.
type Printer struct {
	out    io.Writer
	styles Styles
}

// NewPrinter creates a printer for out. Color is used only when out is
// a terminal and noColor is false.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	if !noColor {
		noColor = !isTerminal(out)
	}
	return &Printer{out: out, styles: GetStyles(noColor)}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ReindexSummary reports the outcome of a reindex run.
func (p *Printer) ReindexSummary(result *store.ReindexResult, elapsed time.Duration) {
	fmt.Fprintf(p.out, "%s %d upserted, %d deleted in %s\n",
		p.styles.Success.Render("Reindexed:"),
		len(result.Upserted), len(result.Deleted),
		elapsed.Round(time.Millisecond))

	for _, path := range result.Upserted {
		fmt.Fprintf(p.out, "  %s %s\n", p.styles.Dim.Render("+"), path)
	}
	for _, path := range result.Deleted {
		fmt.Fprintf(p.out, "  %s %s\n", p.styles.Dim.Render("-"), path)
	}
}

// SearchResults prints ranked passages for a query.
func (p *Printer) SearchResults(query string, hits []string) {
	if len(hits) == 0 {
		fmt.Fprintf(p.out, "%s\n", p.styles.Label.Render("No matches for "+fmt.Sprintf("%q", query)))
		return
	}

	fmt.Fprintf(p.out, "%s\n", p.styles.Header.Render(fmt.Sprintf("Results for %q", query)))
	for i, hit := range hits {
		fmt.Fprintf(p.out, "\n%s\n%s\n",
			p.styles.Label.Render(fmt.Sprintf("--- %d ---", i+1)), hit)
	}
}

// StatusReport prints the index status: manifest size, chunk count and
// per-file hashes.
func (p *Printer) StatusReport(dbPath string, manifest map[string]string, chunks int, paths []string) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Label.Render("Store:"), dbPath)
	fmt.Fprintf(p.out, "%s %d\n", p.styles.Label.Render("Files:"), len(manifest))
	fmt.Fprintf(p.out, "%s %d\n", p.styles.Label.Render("Chunks:"), chunks)

	for _, path := range paths {
		fmt.Fprintf(p.out, "  %s %s\n", path, p.styles.Dim.Render(shortHash(manifest[path])))
	}
}

// Events prints memory events in reverse-chronological order as they
// come from the log.
func (p *Printer) Events(events []memory.Event) {
	if len(events) == 0 {
		fmt.Fprintf(p.out, "%s\n", p.styles.Label.Render("No events"))
		return
	}

	for _, ev := range events {
		header := fmt.Sprintf("%s  %s", ev.TS.Format(time.RFC3339), ev.Type)
		if len(ev.Tags) > 0 {
			header += "  " + fmt.Sprintf("%v", ev.Tags)
		}
		fmt.Fprintf(p.out, "%s\n%s\n\n", p.styles.Header.Render(header), ev.Content)
	}
}

// Success prints a confirmation line.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.out, "%s\n", p.styles.Success.Render(msg))
}

// Errorf prints an error line.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Error.Render("Error:"), fmt.Sprintf(format, args...))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
