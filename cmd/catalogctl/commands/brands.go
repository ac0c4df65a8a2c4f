package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewBrandsCmd creates the brands command.
func NewBrandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "brands",
		Short: "List the brands recognised in questions",
		Args:  cobra.NoArgs,
		RunE:  runBrands,
	}
}

func runBrands(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	brands, err := a.Retrieval.Brands(ctx)
	if err != nil {
		return fmt.Errorf("list brands: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, brands)
	}
	for _, b := range brands {
		fmt.Fprintln(out, b)
	}
	return nil
}
