// Package pricefs implements the price cache as one JSON document per
// instrument on the local filesystem.
package pricefs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

// document is the on-disk layout of one cached series.
type document struct {
	Code      string              `json:"code"`
	UpdatedAt time.Time           `json:"updated_at"`
	Points    []models.PricePoint `json:"points"`
}

// Store provides file-based JSON storage for price series.
type Store struct {
	basePath string
	logger   *common.Logger
	mu       sync.Mutex
}

// NewStore opens (creating if needed) a cache rooted at path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create price cache path %s: %w", path, err)
	}
	logger.Info().Str("path", path).Msg("PriceFS store opened")
	return &Store{basePath: path, logger: logger}, nil
}

// Load returns the cached series, or nil when the code was never cached.
func (s *Store) Load(_ context.Context, code string) ([]models.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(code)
	if err != nil || doc == nil {
		return nil, err
	}
	return doc.Points, nil
}

// Save merges points into the cached series.
func (s *Store) Save(_ context.Context, code string, points []models.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(code)
	if err != nil {
		return err
	}
	var existing []models.PricePoint
	if doc != nil {
		existing = doc.Points
	}

	merged := models.MergePricePoints(existing, points)
	if err := s.write(code, &document{Code: code, UpdatedAt: time.Now().UTC(), Points: merged}); err != nil {
		return err
	}
	s.logger.Debug().Str("code", code).Int("points", len(merged)).Msg("Price cache saved")
	return nil
}

// Codes lists every cached instrument, sorted.
func (s *Store) Codes(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.basePath, err)
	}
	var codes []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		codes = append(codes, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(codes)
	return codes, nil
}

// Close is a no-op for file-based storage.
func (s *Store) Close() error {
	return nil
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (s *Store) filePath(code string) string {
	return filepath.Join(s.basePath, sanitizeKey(code)+".json")
}

func (s *Store) read(code string) (*document, error) {
	path := s.filePath(code)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	models.SortPricePoints(doc.Points)
	return &doc, nil
}

// write replaces the document atomically via a temp file and rename.
func (s *Store) write(code string, doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')

	tmpFile, err := os.CreateTemp(s.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.filePath(code)); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
