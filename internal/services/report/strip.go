package report

import (
	"fmt"
	"time"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// StripItem is one tile of the performance strip.
type StripItem struct {
	Instrument  string   `json:"instrument"`
	Return      string   `json:"return"`
	DailyChange string   `json:"daily_change"` // "N/A" without two prices
	Since       string   `json:"since"`        // "from 02 Jan"
	Year        string   `json:"year"`
	Gain        bool     `json:"gain"`
	DailyPct    *float64 `json:"daily_pct,omitempty"`
	Color       string   `json:"color"`
}

// Strip builds strip tiles in record order. Colours follow the order of
// the performance chart lines.
func Strip(records []*models.PerformanceRecord) []StripItem {
	items := make([]StripItem, 0, len(records))
	for i, r := range records {
		item := StripItem{
			Instrument:  r.Instrument,
			Return:      FormatPct(r.PctChange),
			DailyChange: "N/A",
			Since:       "from " + r.EntryDate.Format("02 Jan"),
			Year:        r.EntryDate.Format("2006"),
			Gain:        r.PctChange >= 0,
			DailyPct:    r.DailyChangePct,
			Color:       "#" + hexColor(i),
		}
		if r.DailyChangePct != nil {
			item.DailyChange = FormatPct(*r.DailyChangePct)
		}
		items = append(items, item)
	}
	return items
}

func hexColor(i int) string {
	c := SeriesColor(i)
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// Caption is the message text sent with the report image.
func Caption(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "Portfolio Update"
	}
	return prefix + " " + now.Format("2006-01-02 15:04")
}
