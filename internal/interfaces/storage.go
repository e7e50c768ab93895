package interfaces

import (
	"context"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// PriceCache persists fetched closing prices per instrument so later runs
// only fetch the dates they are missing.
type PriceCache interface {
	// Load returns the cached series sorted ascending, or nil when the
	// instrument has never been cached.
	Load(ctx context.Context, code string) ([]models.PricePoint, error)

	// Save merges points into the cached series; newer values win by date.
	Save(ctx context.Context, code string, points []models.PricePoint) error

	// Codes lists cached instruments.
	Codes(ctx context.Context) ([]string, error)

	// Close releases resources held by the cache
	Close() error
}
