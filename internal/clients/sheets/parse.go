package sheets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// ErrNoDateColumn is returned when a wide CSV has no Date column.
var ErrNoDateColumn = errors.New("price csv has no Date column")

var dateLayouts = []string{"2006/01/02", "2006-01-02", "2006/1/2"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClose(s string) (float64, bool) {
	s = strings.NewReplacer(",", "", "$", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

func readAll(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read price csv: %w", err)
	}
	return records, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ParseSheetExport reads the published sheet layout: each instrument owns a
// column headed by its code holding the dates, with the close in the
// column to its right. The first data row is a sub-header and is skipped.
// Each instrument's own date column is used, so instruments may cover
// different dates. Unknown codes are ignored.
func ParseSheetExport(r io.Reader, codes []string) (map[string][]models.PricePoint, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[string][]models.PricePoint{}, nil
	}

	idx := headerIndex(records[0])
	if len(codes) == 0 {
		for _, h := range records[0] {
			h = strings.TrimSpace(h)
			if isCode(h) {
				codes = append(codes, h)
			}
		}
	}

	data := records[1:]
	if len(data) > 0 {
		data = data[1:]
	}

	out := make(map[string][]models.PricePoint, len(codes))
	for _, code := range codes {
		col, ok := idx[code]
		if !ok {
			continue
		}
		var points []models.PricePoint
		for _, row := range data {
			date, ok := parseDate(cell(row, col))
			if !ok {
				continue
			}
			price, ok := parseClose(cell(row, col+1))
			if !ok {
				continue
			}
			points = append(points, models.PricePoint{Date: date, Price: price})
		}
		out[code] = models.MergePricePoints(nil, points)
	}
	return out, nil
}

// ParseWide reads a CSV with a Date column and one close column per code.
// With no codes given every non-Date column is returned.
func ParseWide(r io.Reader, codes []string) (map[string][]models.PricePoint, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoDateColumn
	}

	idx := headerIndex(records[0])
	dateCol := -1
	for name, i := range idx {
		if strings.EqualFold(name, "date") {
			dateCol = i
		}
	}
	if dateCol < 0 {
		return nil, ErrNoDateColumn
	}

	if len(codes) == 0 {
		for i, h := range records[0] {
			if i != dateCol && strings.TrimSpace(h) != "" {
				codes = append(codes, strings.TrimSpace(h))
			}
		}
	}

	out := make(map[string][]models.PricePoint, len(codes))
	for _, code := range codes {
		col, ok := idx[code]
		if !ok {
			continue
		}
		var points []models.PricePoint
		for _, row := range records[1:] {
			date, ok := parseDate(cell(row, dateCol))
			if !ok {
				continue
			}
			price, ok := parseClose(cell(row, col))
			if !ok {
				continue
			}
			points = append(points, models.PricePoint{Date: date, Price: price})
		}
		out[code] = models.MergePricePoints(nil, points)
	}
	return out, nil
}

func isCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
