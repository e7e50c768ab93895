// Package interfaces defines service contracts for perfstrip
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// PriceClient fetches daily closing prices for one instrument.
type PriceClient interface {
	// GetDailyCloses returns closes between from and to inclusive, sorted
	// ascending. A zero from or to leaves that end open.
	GetDailyCloses(ctx context.Context, code string, from, to time.Time) ([]models.PricePoint, error)
}

// PriceTable is a source that yields every instrument's series at once,
// such as a spreadsheet export.
type PriceTable interface {
	LoadAll(ctx context.Context, codes []string) (map[string][]models.PricePoint, error)
}

// PhotoSender delivers an image with a caption to one chat.
type PhotoSender interface {
	SendPhoto(ctx context.Context, botToken, chatID, filename string, image []byte, caption string) error
}
