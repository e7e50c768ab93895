package models

import (
	"sort"
	"time"
)

// PricePoint is the closing price of an instrument on a calendar date.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// SortPricePoints orders points ascending by date in place.
func SortPricePoints(points []PricePoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
}

// MergePricePoints merges incoming into existing by date. Incoming values
// win on conflict. The result is sorted ascending.
func MergePricePoints(existing, incoming []PricePoint) []PricePoint {
	byDate := make(map[time.Time]float64, len(existing)+len(incoming))
	for _, p := range existing {
		byDate[DateOnly(p.Date)] = p.Price
	}
	for _, p := range incoming {
		byDate[DateOnly(p.Date)] = p.Price
	}
	out := make([]PricePoint, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, PricePoint{Date: d, Price: v})
	}
	SortPricePoints(out)
	return out
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
