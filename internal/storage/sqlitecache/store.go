// Package sqlitecache implements the price cache on a SQLite database.
package sqlitecache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

// Schema creates the prices table.
const Schema = `
CREATE TABLE IF NOT EXISTS prices (
	code  TEXT NOT NULL,
	date  TEXT NOT NULL,
	close REAL NOT NULL,
	PRIMARY KEY (code, date)
);`

const dateLayout = "2006-01-02"

// Store is a SQLite-backed price cache
type Store struct {
	db     *sql.DB
	logger *common.Logger
}

// NewStore opens the database at path, creating the schema if needed.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single writer; sqlite serialises anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite price cache opened")
	return &Store{db: db, logger: logger}, nil
}

// Load returns the cached series sorted by date, nil when absent.
func (s *Store) Load(ctx context.Context, code string) ([]models.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, close FROM prices WHERE code = ? ORDER BY date`, code)
	if err != nil {
		return nil, fmt.Errorf("query prices for %s: %w", code, err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var date string
		var price float64
		if err := rows.Scan(&date, &price); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		t, err := time.Parse(dateLayout, date)
		if err != nil {
			continue
		}
		points = append(points, models.PricePoint{Date: t, Price: price})
	}
	return points, rows.Err()
}

// Save upserts points in one transaction.
func (s *Store) Save(ctx context.Context, code string, points []models.PricePoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO prices (code, date, close) VALUES (?, ?, ?)
		ON CONFLICT(code, date) DO UPDATE SET close = excluded.close`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, code, p.Date.Format(dateLayout), p.Price); err != nil {
			return fmt.Errorf("upsert %s %s: %w", code, p.Date.Format(dateLayout), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit prices for %s: %w", code, err)
	}
	s.logger.Debug().Str("code", code).Int("points", len(points)).Msg("Price cache saved")
	return nil
}

// Codes lists cached instruments in order.
func (s *Store) Codes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT code FROM prices ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
