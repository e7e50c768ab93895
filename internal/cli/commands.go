package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/perfstrip/internal/app"
	"github.com/bobmcallan/perfstrip/internal/services/report"
)

type reportFlags struct {
	ledger   string
	out      string
	notify   bool
	noRender bool
	json     bool
	every    time.Duration
}

func printResult(out io.Writer, a *app.App, result *app.RunResult, asJSON bool) error {
	if asJSON {
		return printJSON(out, result)
	}
	if len(result.Records) == 0 {
		fmt.Fprintln(out, "Nothing to report.")
		return nil
	}

	md := "# Current Performance\n\n" + report.SummaryTable(result.Records, a.Config.Output.Currency)
	if len(result.Summary.Excluded) > 0 {
		md += "\n## Excluded\n\n"
		for _, code := range sortedKeys(result.Summary.Excluded) {
			md += fmt.Sprintf("- %s: %s\n", code, result.Summary.Excluded[code])
		}
	}
	for _, name := range []string{app.RecordsFile, app.PerformanceFile, app.SummaryFile, app.HTMLFile} {
		if path, ok := result.Outputs[name]; ok {
			md += fmt.Sprintf("\n- wrote `%s`", path)
		}
	}
	if result.NotifyError != "" {
		md += fmt.Sprintf("\n\n**Notification:** %s\n", result.NotifyError)
	}
	return printMarkdown(out, md+"\n")
}

func newReportCmd(rc *RootConfig, factory appFactory) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reconstruct performance, write charts and the HTML report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rc, factory, func(ctx context.Context, a *app.App) error {
				opts := app.RunOptions{
					LedgerPath: f.ledger,
					OutputDir:  f.out,
					Notify:     f.notify || a.Config.Notify.Enabled,
					NoRender:   f.noRender,
				}
				out := cmd.OutOrStdout()

				if f.every > 0 {
					return a.Schedule(ctx, f.every, opts, func(result *app.RunResult, err error) {
						if err != nil {
							return
						}
						if err := printResult(out, a, result, f.json); err != nil {
							a.Logger.Warn().Err(err).Msg("Failed to print scheduled result")
						}
					})
				}

				result, err := a.Run(ctx, opts)
				if err != nil {
					return err
				}
				return printResult(out, a, result, f.json)
			})
		},
	}

	cmd.Flags().StringVar(&f.ledger, "ledger", "", "Ledger CSV (default from config)")
	cmd.Flags().StringVar(&f.out, "out", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&f.notify, "notify", false, "Send the performance chart to the configured chats")
	cmd.Flags().BoolVar(&f.noRender, "no-render", false, "Only write records.json")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the run result as JSON")
	cmd.Flags().DurationVar(&f.every, "every", 0, "Keep running, repeating the report at this interval (e.g. 24h)")
	return cmd
}

func newPricesCmd(rc *RootConfig, factory appFactory) *cobra.Command {
	var ledger string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "prices",
		Short: "Refresh cached prices for the ledger's instruments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rc, factory, func(ctx context.Context, a *app.App) error {
				coverage, err := a.RefreshPrices(ctx, ledger)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), coverage)
				}
				return printMarkdown(cmd.OutOrStdout(), "# Price Coverage\n\n"+coverageMarkdown(coverage))
			})
		},
	}
	cmd.Flags().StringVar(&ledger, "ledger", "", "Ledger CSV (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print coverage as JSON")
	return cmd
}

func newPositionsCmd(rc *RootConfig, factory appFactory) *cobra.Command {
	var ledger string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Print held positions replayed from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rc, factory, func(ctx context.Context, a *app.App) error {
				positions, _, err := a.Positions(ctx, ledger)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd.OutOrStdout(), positions)
				}
				return printMarkdown(cmd.OutOrStdout(), "# Positions\n\n"+positionsMarkdown(positions, a.Config.Output.Currency))
			})
		},
	}
	cmd.Flags().StringVar(&ledger, "ledger", "", "Ledger CSV (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print positions as JSON")
	return cmd
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
