package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var queryLimit int

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <question>",
		Short: "Retrieve products for a question",
		Long: `Search runs the retrieval pipeline: intent extraction, vector search,
ranking and the brand fallback.

Examples:
  catalogctl search "iphone dưới 20 triệu"
  catalogctl search --limit 10 --json "điện thoại cao cấp"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
	cmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "Maximum results (0 uses the configured default)")
	return cmd
}

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question with retrieved products",
		Long: `Ask retrieves products and composes a reply. Without a configured
answer model the deterministic product list is printed.

Examples:
  catalogctl ask "nên mua điện thoại nào tầm 10 triệu?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}
	cmd.Flags().IntVarP(&queryLimit, "limit", "n", 0, "Maximum products (0 uses the configured default)")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.Retrieval.Retrieve(ctx, strings.Join(args, " "), queryLimit)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, res)
	}
	writeIntent(out, res.Intent)
	if res.Fallback {
		fmt.Fprintln(out, "(brand fallback)")
	}
	writeItems(out, res.Items)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reply := a.Answer.Ask(ctx, strings.Join(args, " "), queryLimit)

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, reply)
	}
	fmt.Fprintln(out, reply.Answer)
	return nil
}
