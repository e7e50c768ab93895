// Package ledger reads the transaction ledger and normalises it into
// per-instrument transaction sets.
package ledger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

// Service loads and normalises ledgers.
type Service struct {
	cfg        common.LedgerConfig
	normalizer *Normalizer
	logger     *common.Logger
}

// NewService creates a ledger service
func NewService(cfg common.LedgerConfig, logger *common.Logger) *Service {
	return &Service{
		cfg:        cfg,
		normalizer: NewNormalizer(cfg),
		logger:     logger,
	}
}

// Load reads the ledger at path and returns the held instruments.
func (s *Service) Load(path string) (map[string]models.TransactionSet, *Stats, error) {
	if path == "" {
		path = s.cfg.Path
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	defer f.Close()

	sets, stats, err := s.LoadReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger %s: %w", path, err)
	}
	return sets, stats, nil
}

// LoadReader is Load for an already open CSV stream.
func (s *Service) LoadReader(r io.Reader) (map[string]models.TransactionSet, *Stats, error) {
	rows, err := ReadCSV(r, s.cfg.Columns)
	if err != nil {
		return nil, nil, err
	}

	sets, stats := s.normalizer.Normalize(rows)

	s.logger.Debug().
		Int("rows", stats.RowsRead).
		Int("out_of_class", stats.OutOfClass).
		Int("bad_date", stats.BadDate).
		Int("bad_type", stats.BadType).
		Int("non_positive", stats.NonPositive).
		Msg("Ledger rows dropped")

	s.logger.Info().
		Int("rows", stats.RowsRead).
		Int("transactions", stats.Accepted).
		Int("instruments", stats.Instruments).
		Str("not_held", strings.Join(stats.NotHeld, ",")).
		Msg("Ledger normalised")

	return sets, stats, nil
}
