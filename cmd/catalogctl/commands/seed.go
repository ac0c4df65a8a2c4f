package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/catalogsearch/internal/app"
	"github.com/kailas-cloud/catalogsearch/internal/repository/catalog"
)

// NewSeedCmd creates the seed command.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a YAML catalog fixture",
		Long: `Seed creates any missing catalog tables and upserts the brands,
products, prices and specifications from a YAML fixture.

Examples:
  catalogctl seed config/catalog.seed.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runSeed,
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	conn, err := catalog.Open(cfg.Catalog.Driver, cfg.Catalog.DSN, cfg.Catalog.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer conn.Close()

	if err := app.SeedCatalog(cmd.Context(), conn, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded catalog from %s\n", args[0])
	return nil
}
