package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
	"github.com/bobmcallan/perfstrip/internal/services/ledger"
	"github.com/bobmcallan/perfstrip/internal/services/notify"
	"github.com/bobmcallan/perfstrip/internal/services/performance"
	"github.com/bobmcallan/perfstrip/internal/services/prices"
	"github.com/bobmcallan/perfstrip/internal/services/report"
)

// Output file names written by Run.
const (
	RecordsFile     = "records.json"
	PerformanceFile = "performance.png"
	SummaryFile     = "summary.png"
	HTMLFile        = "report.html"
)

// RunOptions overrides config for a single Run.
type RunOptions struct {
	LedgerPath string
	OutputDir  string
	Notify     bool
	NoRender   bool
}

// RunResult is everything one pipeline run produced.
type RunResult struct {
	RunID       string                      `json:"run_id"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Records     []*models.PerformanceRecord `json:"records"`
	Stats       *ledger.Stats               `json:"ledger"`
	Summary     *performance.Summary        `json:"summary"`
	Outputs     map[string]string           `json:"outputs"` // file name -> path
	Deliveries  []notify.Delivery           `json:"deliveries,omitempty"`
	NotifyError string                      `json:"notify_error,omitempty"`
}

// Run loads the ledger and prices, reconstructs performance, writes the
// outputs and optionally notifies. An empty ledger is not an error; the
// result simply has no records.
func (a *App) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	started := a.now()
	result := &RunResult{
		RunID:       uuid.NewString(),
		GeneratedAt: started,
		Outputs:     make(map[string]string),
	}
	logger := a.Logger.WithRun(result.RunID)

	sets, stats, err := a.LedgerService.Load(opts.LedgerPath)
	if err != nil {
		return nil, err
	}
	result.Stats = stats

	if len(sets) == 0 {
		logger.Info().Msg("No held instruments - nothing to report")
		result.Summary = &performance.Summary{}
		return result, nil
	}

	series, err := a.PriceService.Load(ctx, sortedCodes(sets))
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	records, summary, err := a.PerformanceService.ComputeAll(ctx, sets, series)
	if err != nil {
		return nil, err
	}
	result.Records = records
	result.Summary = summary

	outDir := opts.OutputDir
	if outDir == "" {
		outDir = a.Config.Output.Dir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", outDir, err)
	}

	if err := writeJSON(filepath.Join(outDir, RecordsFile), result.Records); err != nil {
		return nil, err
	}
	result.Outputs[RecordsFile] = filepath.Join(outDir, RecordsFile)

	if len(records) == 0 {
		logger.Info().Int("excluded", len(summary.Excluded)).Msg("No instrument could be reconstructed - nothing to report")
		return result, nil
	}

	var perfPNG []byte
	if !opts.NoRender {
		perfPNG, err = a.render(result, outDir)
		if err != nil {
			return nil, err
		}
	}

	if opts.Notify {
		a.deliver(ctx, result, perfPNG, logger)
	}

	logger.Info().
		Int("records", len(records)).
		Int("excluded", len(summary.Excluded)).
		Int("outputs", len(result.Outputs)).
		Dur("elapsed", a.now().Sub(started)).
		Msg("Run complete")

	return result, nil
}

// render writes the charts and HTML page and returns the performance PNG.
func (a *App) render(result *RunResult, outDir string) ([]byte, error) {
	chartOpts := report.ChartOptions{Width: a.Config.Output.ChartWidth, Height: a.Config.Output.ChartHeight}

	perfPNG, err := report.RenderPerformanceChart(result.Records, chartOpts)
	switch {
	case errors.Is(err, report.ErrNotEnoughPoints):
		a.Logger.Warn().Msg("Not enough history for the performance chart")
		perfPNG = nil
	case err != nil:
		return nil, err
	default:
		if err := writeFile(filepath.Join(outDir, PerformanceFile), perfPNG); err != nil {
			return nil, err
		}
		result.Outputs[PerformanceFile] = filepath.Join(outDir, PerformanceFile)
	}

	summaryPNG, err := report.RenderSummaryChart(result.Records, chartOpts)
	if err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(outDir, SummaryFile), summaryPNG); err != nil {
		return nil, err
	}
	result.Outputs[SummaryFile] = filepath.Join(outDir, SummaryFile)

	if a.Config.Output.HTML {
		page, err := report.RenderHTML(&report.Report{
			RunID:          result.RunID,
			GeneratedAt:    result.GeneratedAt,
			Currency:       a.Config.Output.Currency,
			Records:        result.Records,
			Excluded:       result.Summary.Excluded,
			PerformancePNG: perfPNG,
			SummaryPNG:     summaryPNG,
		})
		if err != nil {
			return nil, err
		}
		if err := writeFile(filepath.Join(outDir, HTMLFile), page); err != nil {
			return nil, err
		}
		result.Outputs[HTMLFile] = filepath.Join(outDir, HTMLFile)
	}

	return perfPNG, nil
}

// deliver sends the performance chart. Delivery problems are recorded on
// the result and logged; they never fail the run.
func (a *App) deliver(ctx context.Context, result *RunResult, png []byte, logger *common.Logger) {
	switch {
	case a.NotifyService == nil:
		result.NotifyError = notify.ErrNoTargets.Error()
		logger.Warn().Msg("Notification requested but no targets configured")
		return
	case len(png) == 0:
		result.NotifyError = "no chart to send"
		logger.Warn().Msg("Notification skipped - no chart rendered")
		return
	}

	caption := report.Caption(a.Config.Notify.CaptionPrefix, result.GeneratedAt)
	deliveries, err := a.NotifyService.Send(ctx, PerformanceFile, png, caption)
	result.Deliveries = deliveries
	if err != nil {
		result.NotifyError = err.Error()
		logger.Error().Err(err).Msg("Notification failed")
	}
}

// Position is the replayed position of one held instrument.
type Position struct {
	Instrument   string    `json:"instrument"`
	EntryDate    time.Time `json:"entry_date"`
	Units        float64   `json:"units"`
	AverageCost  float64   `json:"average_cost"`
	TotalCost    float64   `json:"total_cost"`
	Transactions int       `json:"transactions"`
	Error        string    `json:"error,omitempty"`
}

// Positions replays the ledger without prices.
func (a *App) Positions(ctx context.Context, ledgerPath string) ([]Position, *ledger.Stats, error) {
	sets, stats, err := a.LedgerService.Load(ledgerPath)
	if err != nil {
		return nil, nil, err
	}

	policy := a.PerformanceService.Options().SellPolicy
	out := make([]Position, 0, len(sets))
	for _, code := range sortedCodes(sets) {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		set := sets[code]
		p := Position{Instrument: code, Transactions: set.Len()}
		if first, ok := set.FirstBuy(); ok {
			p.EntryDate = first.Date
		}
		pos, err := performance.Replay(set, policy)
		if err != nil {
			p.Error = err.Error()
		}
		p.Units = pos.TotalUnits
		p.TotalCost = pos.TotalCost
		p.AverageCost = pos.AverageCost()
		out = append(out, p)
	}
	return out, stats, nil
}

// RefreshPrices brings the price cache up to date for the ledger's
// instruments and reports coverage.
func (a *App) RefreshPrices(ctx context.Context, ledgerPath string) ([]prices.Coverage, error) {
	sets, _, err := a.LedgerService.Load(ledgerPath)
	if err != nil {
		return nil, err
	}
	return a.PriceService.Refresh(ctx, sortedCodes(sets))
}

func sortedCodes(sets map[string]models.TransactionSet) []string {
	codes := make([]string, 0, len(sets))
	for code := range sets {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
