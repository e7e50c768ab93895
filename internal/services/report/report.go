// Package report renders performance records as charts, markdown tables
// and a standalone HTML page.
package report

import (
	"bytes"
	"embed"
	"encoding/base64"
	"fmt"
	htmltemplate "html/template"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/bobmcallan/perfstrip/internal/models"
)

//go:embed templates/*
var templates embed.FS

var (
	summaryTmpl  = template.Must(template.ParseFS(templates, "templates/summary.md"))
	markdownTmpl = template.Must(template.ParseFS(templates, "templates/report.md"))
	pageTmpl     = htmltemplate.Must(htmltemplate.ParseFS(templates, "templates/page.html"))
)

type summaryRow struct {
	Instrument string
	AvgCost    string
	Current    string
	Units      string
	Change     string
	PnL        string
	EntryDate  string
}

// SummaryTable renders records as a markdown table, best return first,
// with a total row over the whole book.
func SummaryTable(records []*models.PerformanceRecord, currency string) string {
	var rows []summaryRow
	var pnl, cost float64
	for _, r := range SortByReturn(records) {
		rows = append(rows, summaryRow{
			Instrument: r.Instrument,
			AvgCost:    FormatMoney(r.WeightedAvgCost, currency),
			Current:    FormatMoney(r.CurrentPrice, currency),
			Units:      FormatUnits(r.CurrentUnits),
			Change:     FormatPct(r.PctChange),
			PnL:        FormatSignedMoney(r.UnrealizedPnL, currency),
			EntryDate:  r.EntryDate.Format("2006-01-02"),
		})
		pnl += r.UnrealizedPnL
		cost += r.CostBasis()
	}

	totalChange := "N/A"
	if cost > 0 {
		totalChange = FormatPct(pnl / cost * 100)
	}

	var b strings.Builder
	if err := summaryTmpl.Execute(&b, map[string]any{
		"Rows":        rows,
		"TotalChange": totalChange,
		"TotalPnL":    FormatSignedMoney(pnl, currency),
	}); err != nil {
		return fmt.Sprintf("error executing summary template: %v", err)
	}
	return b.String()
}

// Report is everything a rendered page shows.
type Report struct {
	Title          string
	RunID          string
	GeneratedAt    time.Time
	Currency       string
	Records        []*models.PerformanceRecord
	Excluded       map[string]string // instrument -> reason
	PerformancePNG []byte
	SummaryPNG     []byte
}

func dataURI(png []byte) string {
	if len(png) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// Markdown renders the report body. Images are inlined as data URIs.
func Markdown(rep *Report) (string, error) {
	title := rep.Title
	if title == "" {
		title = "Portfolio Performance"
	}

	var winners, losers []string
	for _, r := range SortByReturn(rep.Records) {
		label := fmt.Sprintf("%s (%s)", r.Instrument, FormatPct(r.PctChange))
		if r.PctChange >= 0 {
			winners = append(winners, label)
		} else {
			losers = append(losers, label)
		}
	}

	var excluded []string
	for code, reason := range rep.Excluded {
		excluded = append(excluded, code+": "+reason)
	}
	sort.Strings(excluded)

	var b strings.Builder
	err := markdownTmpl.Execute(&b, map[string]any{
		"Title":            title,
		"RunID":            rep.RunID,
		"GeneratedAt":      rep.GeneratedAt.Format("2006-01-02 15:04:05"),
		"PerformanceImage": dataURI(rep.PerformancePNG),
		"SummaryImage":     dataURI(rep.SummaryPNG),
		"Summary":          SummaryTable(rep.Records, rep.Currency),
		"Winners":          strings.Join(winners, ", "),
		"Losers":           strings.Join(losers, ", "),
		"Excluded":         excluded,
	})
	if err != nil {
		return "", fmt.Errorf("render report markdown: %w", err)
	}
	return b.String(), nil
}

// RenderHTML renders the report as a self-contained HTML page.
func RenderHTML(rep *Report) ([]byte, error) {
	md, err := Markdown(rep)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := converter.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	title := rep.Title
	if title == "" {
		title = "Portfolio Performance"
	}

	var page bytes.Buffer
	if err := pageTmpl.Execute(&page, map[string]any{
		"Title": title,
		"Strip": Strip(rep.Records),
		"Body":  htmltemplate.HTML(body.String()),
	}); err != nil {
		return nil, fmt.Errorf("render report page: %w", err)
	}
	return page.Bytes(), nil
}
