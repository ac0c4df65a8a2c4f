package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	embeddinguc "github.com/kailas-cloud/catalogsearch/internal/usecase/embedding"
)

var (
	rebuildIfEmpty bool
	rebuildReset   bool
)

// NewRebuildCmd creates the rebuild command.
func NewRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Re-embed every catalog product into the vector index",
		Long: `Rebuild synthesizes the source text of every product, embeds it and
upserts it into the vector index. The run is synchronous.

Examples:
  catalogctl rebuild
  catalogctl rebuild --if-empty
  catalogctl rebuild --reset`,
		Args: cobra.NoArgs,
		RunE: runRebuild,
	}

	cmd.Flags().BoolVar(&rebuildIfEmpty, "if-empty", false, "Only rebuild when the index holds no vectors")
	cmd.Flags().BoolVar(&rebuildReset, "reset", false, "Drop the index before rebuilding")
	cmd.MarkFlagsMutuallyExclusive("if-empty", "reset")

	return cmd
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		rep     embeddinguc.Report
		skipped bool
	)
	switch {
	case rebuildReset:
		rep, err = a.Pipeline.ResetAndRebuild(ctx)
	case rebuildIfEmpty:
		var ran bool
		rep, ran, err = a.Pipeline.RebuildIfEmpty(ctx)
		skipped = !ran
	default:
		rep, err = a.Pipeline.RebuildAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("rebuild: %w", err)
	}

	out := cmd.OutOrStdout()
	if skipped {
		fmt.Fprintln(out, "Index already populated, nothing to do.")
		return nil
	}
	if jsonOutput {
		return writeJSON(out, rep)
	}
	writeReport(out, rep)
	return nil
}
