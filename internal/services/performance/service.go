// Package performance reconstructs weighted-average cost positions and
// percentage-return histories from transaction sets and price series.
package performance

import (
	"context"
	"errors"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

// Summary describes the outcome of a ComputeAll call.
type Summary struct {
	Computed int               `json:"computed"`
	Excluded map[string]string `json:"excluded,omitempty"` // instrument -> reason
}

// Service computes performance records for many instruments in parallel.
type Service struct {
	opts    Options
	workers int
	logger  *common.Logger
}

// NewService creates a performance service. workers bounds the number of
// instruments reconstructed concurrently.
func NewService(opts Options, workers int, logger *common.Logger) *Service {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{opts: opts, workers: workers, logger: logger}
}

// NewServiceFromConfig builds a service from the [engine] section.
func NewServiceFromConfig(cfg common.EngineConfig, logger *common.Logger) *Service {
	return NewService(Options{
		ClampMin:   cfg.ClampMin,
		ClampMax:   cfg.ClampMax,
		SellPolicy: SellPolicy(cfg.SellPolicy),
	}, cfg.Workers, logger)
}

// Options returns the reconstruction options in use.
func (s *Service) Options() Options { return s.opts }

// ComputeAll reconstructs every instrument in sets against its series in
// prices. Instruments are independent: an exclusion or failure for one is
// recorded in the summary and never affects the others. Records come back
// sorted by instrument code. Only context cancellation returns an error.
func (s *Service) ComputeAll(ctx context.Context, sets map[string]models.TransactionSet, prices map[string][]models.PricePoint) ([]*models.PerformanceRecord, *Summary, error) {
	start := time.Now()

	codes := make([]string, 0, len(sets))
	for code := range sets {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	records := make([]*models.PerformanceRecord, len(codes))
	failures := make([]error, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, code := range codes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i], failures[i] = Reconstruct(sets[code], prices[code], s.opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	summary := &Summary{Excluded: make(map[string]string)}
	out := make([]*models.PerformanceRecord, 0, len(codes))
	for i, code := range codes {
		err := failures[i]
		switch {
		case err == nil:
			out = append(out, records[i])
			s.logger.Debug().
				Str("instrument", code).
				Float64("units", records[i].CurrentUnits).
				Float64("avg_cost", records[i].WeightedAvgCost).
				Float64("current_price", records[i].CurrentPrice).
				Float64("pct_change", records[i].PctChange).
				Msg("Performance reconstructed")
		case errors.Is(err, ErrOversell):
			summary.Excluded[code] = err.Error()
			s.logger.Warn().Str("instrument", code).Err(err).Msg("Instrument rejected by sell policy")
		default:
			summary.Excluded[code] = err.Error()
			s.logger.Info().Str("instrument", code).Str("reason", err.Error()).Msg("Instrument excluded")
		}
	}
	summary.Computed = len(out)

	s.logger.Info().
		Int("instruments", len(codes)).
		Int("computed", summary.Computed).
		Int("excluded", len(summary.Excluded)).
		Dur("elapsed", time.Since(start)).
		Msg("Performance computed")

	return out, summary, nil
}
