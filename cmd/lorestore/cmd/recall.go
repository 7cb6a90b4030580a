package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lorekit/lorestore/internal/memory"
	"github.com/lorekit/lorestore/internal/ui"
)

// recallOptions holds CLI flags for recall.
type recallOptions struct {
	topK  int
	tags  []string
	since time.Duration
	limit int
}

func newRecallCmd() *cobra.Command {
	var opts recallOptions

	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Recall events from the memory log",
		Long: `Recall events from the memory log. With a query, events are ranked
by keyword relevance. Without one, recent events are listed, filtered
by --tag and --since.

Examples:
  lorestore recall "landing page"
  lorestore recall --tag infra --since 168h
  lorestore recall deadline --top 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runRecall(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top", "n", 0, "Maximum ranked results (0 uses the configured default)")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "Filter by tag (repeatable)")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "Only events newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "Maximum listed events when no query is given")

	return cmd
}

func runRecall(ctx context.Context, cmd *cobra.Command, query string, opts recallOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := memory.Open(cfg.MemoryDBPath(), cfg.RecallIndexPath())
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	printer := ui.NewPrinter(cmd.OutOrStdout(), rootOpts.noColor)

	if query != "" {
		topK := opts.topK
		if topK <= 0 {
			topK = cfg.Index.TopK
		}
		events, err := log.Recall(ctx, query, topK)
		if err != nil {
			return err
		}
		printer.Events(events)
		return nil
	}

	filter := memory.Filter{Tags: opts.tags, Limit: opts.limit}
	if opts.since > 0 {
		filter.Start = time.Now().Add(-opts.since)
	}
	events, err := log.Query(ctx, filter)
	if err != nil {
		return err
	}
	printer.Events(events)
	return nil
}
