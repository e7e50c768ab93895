// Package prices assembles per-instrument closing price series from the
// configured source and keeps the local price cache current.
package prices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/interfaces"
	"github.com/bobmcallan/perfstrip/internal/models"
)

// ErrNoSource is returned when the configured source has no backing client.
var ErrNoSource = errors.New("price source not configured")

const defaultFetchWorkers = 4

// Service loads closing prices
type Service struct {
	cfg      common.PricesConfig
	cache    interfaces.PriceCache
	client   interfaces.PriceClient
	sheet    interfaces.PriceTable
	fallback interfaces.PriceTable
	logger   *common.Logger
	now      func() time.Time
	workers  int
}

// Sources bundles the optional backends. Only those the configured source
// needs must be set.
type Sources struct {
	Cache    interfaces.PriceCache
	Client   interfaces.PriceClient
	Sheet    interfaces.PriceTable
	Fallback interfaces.PriceTable
}

// NewService creates a price service
func NewService(cfg common.PricesConfig, src Sources, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		cfg:      cfg,
		cache:    src.Cache,
		client:   src.Client,
		sheet:    src.Sheet,
		fallback: src.Fallback,
		logger:   logger,
		now:      time.Now,
		workers:  defaultFetchWorkers,
	}
}

// SetClock replaces the time source used to decide what is missing.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Load returns aligned series for codes from the configured source.
func (s *Service) Load(ctx context.Context, codes []string) (map[string][]models.PricePoint, error) {
	series, err := s.LoadRaw(ctx, codes)
	if err != nil {
		return nil, err
	}
	return Align(series, s.cfg.Backfill), nil
}

// LoadRaw is Load without alignment.
func (s *Service) LoadRaw(ctx context.Context, codes []string) (map[string][]models.PricePoint, error) {
	switch s.cfg.Source {
	case common.PriceSourceCSV:
		return s.loadTable(ctx, s.fallback, codes)

	case common.PriceSourceSheet:
		series, err := s.loadTable(ctx, s.sheet, codes)
		if err == nil {
			return series, nil
		}
		s.logger.Warn().Err(err).Msg("Sheet download failed, using local CSV")
		return s.loadTable(ctx, s.fallback, codes)

	default:
		return s.loadAPI(ctx, codes)
	}
}

func (s *Service) loadTable(ctx context.Context, table interfaces.PriceTable, codes []string) (map[string][]models.PricePoint, error) {
	if table == nil {
		return nil, ErrNoSource
	}
	series, err := table.LoadAll(ctx, codes)
	if err != nil {
		return nil, err
	}
	for _, code := range codes {
		if len(series[code]) == 0 {
			s.logger.Warn().Str("code", code).Msg("No prices in table")
		}
	}
	return series, nil
}

func (s *Service) loadAPI(ctx context.Context, codes []string) (map[string][]models.PricePoint, error) {
	if s.cache == nil || s.client == nil {
		return nil, ErrNoSource
	}

	var mu sync.Mutex
	out := make(map[string][]models.PricePoint, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, code := range codes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			points := s.refresh(gctx, code)
			if len(points) == 0 {
				return nil
			}
			mu.Lock()
			out[code] = points
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.Info().Int("requested", len(codes)).Int("loaded", len(out)).Msg("Prices loaded")
	return out, nil
}

// refresh brings one code's cache up to date and returns the cached series.
// Failures are logged; whatever the cache holds is still returned.
func (s *Service) refresh(ctx context.Context, code string) []models.PricePoint {
	cached, err := s.cache.Load(ctx, code)
	if err != nil {
		s.logger.Warn().Str("code", code).Err(err).Msg("Price cache read failed")
		cached = nil
	}

	from, to, need := MissingRange(cached, s.cfg.GetStartDate(), s.cfg.GetRefreshWindow(), s.now())
	if !need {
		s.logger.Debug().Str("code", code).Msg("Price cache up to date")
		return cached
	}

	fetched, err := s.client.GetDailyCloses(ctx, code, from, to)
	if err != nil {
		s.logger.Warn().Str("code", code).Err(err).Msg("Price fetch failed, using cached data")
		return cached
	}
	if len(fetched) == 0 {
		return cached
	}

	if err := s.cache.Save(ctx, code, fetched); err != nil {
		s.logger.Warn().Str("code", code).Err(err).Msg("Price cache write failed")
	}
	s.logger.Debug().Str("code", code).Int("fetched", len(fetched)).
		Str("from", from.Format("2006-01-02")).Str("to", to.Format("2006-01-02")).
		Msg("Prices fetched")
	return models.MergePricePoints(cached, fetched)
}

// MissingRange decides which dates to fetch given the cached series.
// With no cache everything from start to today is fetched. A cache whose
// latest date is within window of today refetches from that date so a
// partial close is replaced; an older cache fetches from the day after.
func MissingRange(cached []models.PricePoint, start time.Time, window time.Duration, now time.Time) (from, to time.Time, need bool) {
	today := models.DateOnly(now)
	if len(cached) == 0 {
		return models.DateOnly(start), today, true
	}

	latest := models.DateOnly(cached[len(cached)-1].Date)
	if !latest.Before(today) {
		return time.Time{}, time.Time{}, false
	}
	if common.IsFresh(latest, today, window) {
		return latest, today, true
	}
	return latest.AddDate(0, 0, 1), today, true
}

// Coverage summarises one cached series for the prices command.
type Coverage struct {
	Code   string    `json:"code"`
	Points int       `json:"points"`
	First  time.Time `json:"first"`
	Last   time.Time `json:"last"`
}

// Refresh updates the cache for codes and reports what each now covers.
func (s *Service) Refresh(ctx context.Context, codes []string) ([]Coverage, error) {
	series, err := s.LoadRaw(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("refresh prices: %w", err)
	}

	out := make([]Coverage, 0, len(codes))
	for _, code := range codes {
		c := Coverage{Code: code}
		if points := series[code]; len(points) > 0 {
			c.Points = len(points)
			c.First = points[0].Date
			c.Last = points[len(points)-1].Date
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
