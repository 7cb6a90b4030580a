package cmd

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorekit/lorestore/internal/cache"
	"github.com/lorekit/lorestore/internal/store"
	"github.com/lorekit/lorestore/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK   int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed corpus",
		Long: `Search the full-text index for a literal phrase. Query syntax
characters are neutralized, so any input is safe to search for.

Examples:
  lorestore search "rolling thunder"
  lorestore search resonance --top 3
  lorestore search "error handling" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top", "n", 0, "Maximum number of results (0 uses the configured default)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	topK := opts.topK
	if topK <= 0 {
		topK = cfg.Index.TopK
	}

	st, err := store.Open(cfg.IndexDBPath(), store.Options{
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	searcher := cache.New(st, cfg.Cache.Size, cfg.Cache.TTL)
	hits, err := searcher.Search(ctx, query, topK)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"query":   query,
			"results": hits,
		})
	}

	ui.NewPrinter(cmd.OutOrStdout(), rootOpts.noColor).SearchResults(query, hits)
	return nil
}
