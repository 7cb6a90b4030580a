package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorekit/lorestore/internal/memory"
	"github.com/lorekit/lorestore/internal/ui"
)

// rememberOptions holds CLI flags for remember.
type rememberOptions struct {
	eventType string
	tags      []string
}

func newRememberCmd() *cobra.Command {
	var opts rememberOptions

	cmd := &cobra.Command{
		Use:   "remember <content>",
		Short: "Append an event to the memory log",
		Long: `Append an event to the append-only memory log. Events are also
indexed for keyword recall.

Examples:
  lorestore remember "shipped the landing page"
  lorestore remember --type decision --tag infra "moved backups to nightly"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")
			return runRemember(cmd.Context(), cmd, content, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.eventType, "type", "t", "note", "Event type")
	cmd.Flags().StringSliceVar(&opts.tags, "tag", nil, "Tag for the event (repeatable)")

	return cmd
}

func runRemember(ctx context.Context, cmd *cobra.Command, content string, opts rememberOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := memory.Open(cfg.MemoryDBPath(), cfg.RecallIndexPath())
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	event, err := log.Append(ctx, opts.eventType, content, opts.tags)
	if err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout(), rootOpts.noColor).Success("remembered " + event.ID)
	return nil
}
