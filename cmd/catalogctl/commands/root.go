// Package commands implements the catalogctl admin CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/catalogsearch/internal/app"
	"github.com/kailas-cloud/catalogsearch/internal/config"
	logpkg "github.com/kailas-cloud/catalogsearch/internal/logger"
)

var (
	envFlag    string
	jsonOutput bool
	logLevel   string
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogctl",
		Short: "Admin tool for the product retrieval service",
		Long: `catalogctl runs retrieval and maintenance tasks against the same
catalog and vector index the API server uses.

Configuration is read from config/<env>.yaml; a .env file in the working
directory is loaded first.

Examples:
  catalogctl rebuild --if-empty
  catalogctl search "điện thoại Samsung dưới 10 triệu"
  catalogctl ask --limit 3 "máy tầm trung chụp ảnh đẹp"`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&envFlag, "env", "", "Config environment (defaults to $ENV or local)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		NewRebuildCmd(),
		NewSearchCmd(),
		NewAskCmd(),
		NewBrandsCmd(),
		NewSeedCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the CLI. An interrupt cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func loadConfig() (config.Config, string, error) {
	_ = godotenv.Load()

	env := envFlag
	if env == "" {
		env = config.GetEnv()
	}
	cfg, err := config.Load(env)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, env, nil
}

func newLogger(env string) (*zap.Logger, error) {
	logger, err := logpkg.NewLogger(env, logLevel)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	return logger, nil
}

// openApp wires the full service graph for commands that need it.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, env, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(env)
	if err != nil {
		return nil, err
	}
	a, err := app.New(logpkg.ContextWithLogger(ctx, logger), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return a, nil
}
