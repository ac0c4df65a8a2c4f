package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/catalogsearch/internal/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "catalogctl %s (commit %s, built %s)\n",
				version.Version, version.Commit, version.Date)
		},
	}
}
