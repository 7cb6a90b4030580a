package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lorekit/lorestore/internal/async"
	"github.com/lorekit/lorestore/internal/config"
	"github.com/lorekit/lorestore/internal/store"
	"github.com/lorekit/lorestore/internal/ui"
	"github.com/lorekit/lorestore/internal/watcher"
)

// indexOptions holds CLI flags for index.
type indexOptions struct {
	force   bool
	watch   bool
	pattern string
	verbose bool
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the full-text index",
		Long: `Scan the corpus, diff content hashes against the stored manifest,
and reindex only the files that changed. Use --force to reindex
everything regardless of hashes.

With --watch, keep running and reindex whenever corpus files change.

Examples:
  lorestore index
  lorestore index --force
  lorestore index --watch
  lorestore index --pattern "lore/**.md"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Reindex all files regardless of content hashes")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and reindex on corpus changes")
	cmd.Flags().StringVarP(&opts.pattern, "pattern", "p", "", "Corpus glob pattern (overrides config)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print per-file progress")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, opts indexOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pattern := cfg.Paths.CorpusPattern
	if opts.pattern != "" {
		pattern = opts.pattern
	}

	st, err := store.Open(cfg.IndexDBPath(), store.Options{
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	printer := ui.NewPrinter(cmd.OutOrStdout(), rootOpts.noColor)

	reindexer := async.New(cfg.Paths.DataDir, func(ctx context.Context, progress store.ProgressFunc) (*store.ReindexResult, error) {
		if !opts.verbose {
			progress = nil
		}
		return st.Reindex(ctx, pattern, opts.force, progress)
	})

	if err := reindexOnce(ctx, reindexer, printer, opts.verbose); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	return watchLoop(ctx, cfg, pattern, reindexer, printer)
}

// reindexOnce runs a single background reindex to completion.
func reindexOnce(ctx context.Context, reindexer *async.Reindexer, printer *ui.Printer, verbose bool) error {
	start := time.Now()

	started, err := reindexer.Start(ctx)
	if err != nil {
		return err
	}
	if !started {
		printer.Errorf("another reindex is already running")
		return nil
	}

	if verbose {
		go pollProgress(ctx, reindexer, printer)
	}

	result, err := reindexer.Wait()
	if err != nil {
		return err
	}
	printer.ReindexSummary(result, time.Since(start))
	return nil
}

func pollProgress(ctx context.Context, reindexer *async.Reindexer, printer *ui.Printer) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := reindexer.Snapshot()
			if snap.Status != async.StatusRunning {
				return
			}
			if snap.LastMessage != "" && snap.LastMessage != last {
				last = snap.LastMessage
				printer.Success(snap.LastMessage)
			}
		}
	}
}

// watchLoop blocks until interrupted, triggering a reindex after each
// debounced burst of corpus file events.
func watchLoop(ctx context.Context, cfg *config.Config, pattern string, reindexer *async.Reindexer, printer *ui.Printer) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := watcher.New(watchDir(pattern), cfg.Watch.Debounce, func() {
		slog.Info("corpus changed, reindexing")
		if err := reindexOnce(ctx, reindexer, printer, false); err != nil {
			slog.Error("reindex failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	printer.Success("watching " + watchDir(pattern) + " (ctrl-c to stop)")
	<-ctx.Done()
	return nil
}

// watchDir derives the directory to watch from a glob pattern. Glob
// metacharacters in the directory part fall back to the working
// directory.
func watchDir(pattern string) string {
	dir := filepath.Dir(pattern)
	if strings.ContainsAny(dir, "*?[") {
		return "."
	}
	return dir
}
