package cmd

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lorekit/lorestore/internal/store"
	"github.com/lorekit/lorestore/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index status",
		Long:  `Show the indexed files, their content hashes, and the chunk count.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.IndexDBPath(), store.Options{
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	manifest, err := st.Manifest(ctx)
	if err != nil {
		return err
	}
	chunks, err := st.ChunkCount(ctx)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(manifest))
	for path := range manifest {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"store":  cfg.IndexDBPath(),
			"files":  manifest,
			"chunks": chunks,
		})
	}

	ui.NewPrinter(cmd.OutOrStdout(), rootOpts.noColor).StatusReport(cfg.IndexDBPath(), manifest, chunks, paths)
	return nil
}
