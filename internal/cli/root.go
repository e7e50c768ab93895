// Package cli implements the perfstrip command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/perfstrip/internal/app"
	"github.com/bobmcallan/perfstrip/internal/common"
)

// RootConfig holds the persistent flags shared by every subcommand.
type RootConfig struct {
	ConfigPath string
	LogLevel   string
	NoBanner   bool
}

// appFactory initializes the app for a subcommand, applying flag overrides.
type appFactory func(rc *RootConfig) (*app.App, error)

func defaultAppFactory(rc *RootConfig) (*app.App, error) {
	cfg, err := common.LoadConfig(app.ResolveConfigPath(rc.ConfigPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rc.LogLevel != "" {
		cfg.Logging.Level = rc.LogLevel
	}
	return app.NewAppWithConfig(cfg, common.NewLoggerFromConfig(cfg.Logging))
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(defaultAppFactory)
}

func newRootCmd(factory appFactory) *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:           "perfstrip",
		Short:         "Weighted-average cost performance for a stock ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rc.ConfigPath, "config", "", "Path to config file (default: $PERFSTRIP_CONFIG or config/perfstrip.toml)")
	cmd.PersistentFlags().StringVar(&rc.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().BoolVar(&rc.NoBanner, "no-banner", false, "Do not print the startup banner")

	cmd.AddCommand(
		newReportCmd(rc, factory),
		newPricesCmd(rc, factory),
		newPositionsCmd(rc, factory),
		newVersionCmd(),
	)

	return cmd
}

// withApp runs fn with an initialized app and the banner around it.
func withApp(cmd *cobra.Command, rc *RootConfig, factory appFactory, fn func(ctx context.Context, a *app.App) error) error {
	a, err := factory(rc)
	if err != nil {
		return err
	}
	defer a.Close()

	banner := !rc.NoBanner
	stderr := cmd.ErrOrStderr()
	if banner {
		common.PrintBanner(stderr, a.Config, a.Logger, cmd.Name())
	}

	err = fn(cmd.Context(), a)

	if banner {
		common.PrintShutdownBanner(stderr, a.Logger)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "perfstrip %s\n", common.GetFullVersion())
		},
	}
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, NewRootCmd(), os.Args[1:], os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cobra.Command, args []string, stderr io.Writer) error {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return err
	}
	return nil
}
