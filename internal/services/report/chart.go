package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/perfstrip/internal/models"
)

// ErrNotEnoughPoints is returned when no instrument has a drawable line.
var ErrNotEnoughPoints = errors.New("need at least one series with two points")

// ErrNoRecords is returned when a chart is requested for nothing.
var ErrNoRecords = errors.New("no performance records")

// ChartOptions sizes the rendered images.
type ChartOptions struct {
	Width  int
	Height int
}

func (o ChartOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 1600
	}
	if h <= 0 {
		h = 800
	}
	return w, h
}

var (
	colorBackground = drawing.ColorFromHex("111827") // gray-900
	colorCanvas     = drawing.ColorFromHex("1f2937") // gray-800
	colorText       = drawing.ColorFromHex("e5e7eb") // gray-200
	colorZero       = drawing.ColorFromHex("9ca3af") // gray-400
	colorGain       = drawing.ColorFromHex("22c55e") // green-500
	colorLoss       = drawing.ColorFromHex("ef4444") // red-500

	palette = []drawing.Color{
		drawing.ColorFromHex("3b82f6"),
		drawing.ColorFromHex("f97316"),
		drawing.ColorFromHex("22c55e"),
		drawing.ColorFromHex("ef4444"),
		drawing.ColorFromHex("a855f7"),
		drawing.ColorFromHex("eab308"),
		drawing.ColorFromHex("ec4899"),
		drawing.ColorFromHex("14b8a6"),
	}
)

// SeriesColor is the line colour used for the i-th instrument.
func SeriesColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

// SeriesName labels an instrument line with its current return.
func SeriesName(r *models.PerformanceRecord) string {
	return fmt.Sprintf("%s %+.2f%%", r.Instrument, r.PctChange)
}

// RenderPerformanceChart renders one line per instrument of its return
// since entry, with a dashed break-even line. Returns raw PNG bytes.
func RenderPerformanceChart(records []*models.PerformanceRecord, opts ChartOptions) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	var series []chart.Series
	var annotations []chart.Value2
	var first, last time.Time
	minY, maxY := 0.0, 0.0

	for i, r := range records {
		if len(r.HistoricalSeries) < 2 {
			continue
		}
		xs := make([]time.Time, len(r.HistoricalSeries))
		ys := make([]float64, len(r.HistoricalSeries))
		for j, p := range r.HistoricalSeries {
			xs[j] = p.Date
			ys[j] = p.Pct
			minY = math.Min(minY, p.Pct)
			maxY = math.Max(maxY, p.Pct)
		}
		if first.IsZero() || xs[0].Before(first) {
			first = xs[0]
		}
		if xs[len(xs)-1].After(last) {
			last = xs[len(xs)-1]
		}

		color := SeriesColor(i)
		series = append(series, chart.TimeSeries{
			Name: SeriesName(r),
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2.5,
			},
			XValues: xs,
			YValues: ys,
		})

		end := r.HistoricalSeries[len(r.HistoricalSeries)-1]
		annotations = append(annotations, chart.Value2{
			XValue: chart.TimeToFloat64(end.Date),
			YValue: end.Pct,
			Label:  fmt.Sprintf("%s %+.1f%%", r.Instrument, end.Pct),
			Style: chart.Style{
				FillColor:   colorCanvas,
				FontColor:   color,
				StrokeColor: color,
			},
		})
	}
	if len(series) == 0 {
		return nil, ErrNotEnoughPoints
	}

	series = append(series, chart.TimeSeries{
		Name: "Break-even",
		Style: chart.Style{
			StrokeColor:     colorZero,
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{6.0, 4.0},
		},
		XValues: []time.Time{first, last},
		YValues: []float64{0, 0},
	})
	series = append(series, chart.AnnotationSeries{Annotations: annotations})

	width, height := opts.size()
	lo, hi := paddedRange(minY, maxY)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: colorBackground,
			Padding:   chart.Box{Top: 30, Left: 20, Right: 120, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: colorCanvas},
		XAxis: chart.XAxis{
			Style:        chart.Style{FontColor: colorText, StrokeColor: colorText},
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Name:      "Change from entry (%)",
			NameStyle: chart.Style{FontColor: colorText},
			Style:     chart.Style{FontColor: colorText, StrokeColor: colorText},
			Range:     &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph, chart.Style{
			FillColor:   colorBackground,
			FontColor:   colorText,
			StrokeColor: colorZero,
		}),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSummaryChart renders current returns as bars, best first, green
// for gains and red for losses.
func RenderSummaryChart(records []*models.PerformanceRecord, opts ChartOptions) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	sorted := SortByReturn(records)
	bars := make([]chart.Value, len(sorted))
	minY, maxY := 0.0, 0.0
	for i, r := range sorted {
		color := colorGain
		if r.PctChange < 0 {
			color = colorLoss
		}
		bars[i] = chart.Value{
			Label: SeriesName(r),
			Value: r.PctChange,
			Style: chart.Style{FillColor: color, StrokeColor: color},
		}
		minY = math.Min(minY, r.PctChange)
		maxY = math.Max(maxY, r.PctChange)
	}

	width, height := opts.size()
	barWidth := (width - 200) / (2 * len(bars))
	if barWidth < 10 {
		barWidth = 10
	}
	if barWidth > 120 {
		barWidth = 120
	}
	lo, hi := paddedRange(minY, maxY)

	graph := chart.BarChart{
		Title:      "Current Performance - % Change from Entry",
		TitleStyle: chart.Style{FontColor: colorText},
		Width:      width,
		Height:     height / 2,
		Background: chart.Style{
			FillColor: colorBackground,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas:       chart.Style{FillColor: colorCanvas},
		BarWidth:     barWidth,
		BarSpacing:   barWidth,
		UseBaseValue: true,
		BaseValue:    0,
		XAxis:        chart.Style{FontColor: colorText, StrokeColor: colorText},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: colorText, StrokeColor: colorText},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f%%", f)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// SortByReturn returns a copy of records ordered by current return, best
// first. Ties keep instrument order.
func SortByReturn(records []*models.PerformanceRecord) []*models.PerformanceRecord {
	out := append([]*models.PerformanceRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PctChange != out[j].PctChange {
			return out[i].PctChange > out[j].PctChange
		}
		return out[i].Instrument < out[j].Instrument
	})
	return out
}

// paddedRange widens [lo, hi] by a tenth so lines never touch the frame,
// and by at least one point either side when the range is flat.
func paddedRange(lo, hi float64) (float64, float64) {
	pad := (hi - lo) * 0.1
	if pad < 1 {
		pad = 1
	}
	return lo - pad, hi + pad
}
