package prices

import (
	"sort"
	"time"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// Align puts every series on the union of all observed dates. Each series
// is forward-filled from its first observation; with backfill the leading
// gap before it takes the first observed price.
func Align(series map[string][]models.PricePoint, backfill bool) map[string][]models.PricePoint {
	seen := make(map[time.Time]struct{})
	for _, points := range series {
		for _, p := range points {
			seen[models.DateOnly(p.Date)] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make(map[string][]models.PricePoint, len(series))
	for code, points := range series {
		if len(points) == 0 {
			continue
		}
		sorted := models.MergePricePoints(nil, points)

		aligned := make([]models.PricePoint, 0, len(dates))
		next := 0
		var last float64
		for _, d := range dates {
			for next < len(sorted) && !sorted[next].Date.After(d) {
				last = sorted[next].Price
				next++
			}
			if next == 0 {
				if backfill {
					aligned = append(aligned, models.PricePoint{Date: d, Price: sorted[0].Price})
				}
				continue
			}
			aligned = append(aligned, models.PricePoint{Date: d, Price: last})
		}
		out[code] = aligned
	}
	return out
}
