package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/bobmcallan/perfstrip/internal/app"
	"github.com/bobmcallan/perfstrip/internal/services/prices"
	"github.com/bobmcallan/perfstrip/internal/services/report"
)

// printMarkdown renders md for the terminal, falling back to the raw
// markdown when no renderer can be built.
func printMarkdown(w io.Writer, md string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		_, err = io.WriteString(w, md)
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func positionsMarkdown(positions []app.Position, currency string) string {
	var b strings.Builder
	b.WriteString("| Stock | Units | Avg Cost | Total Cost | Entry Date | Transactions |\n")
	b.WriteString("|:------|------:|---------:|-----------:|:-----------|-------------:|\n")
	for _, p := range positions {
		units := report.FormatUnits(p.Units)
		if p.Error != "" {
			units += " (" + p.Error + ")"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %d |\n",
			p.Instrument,
			units,
			report.FormatMoney(p.AverageCost, currency),
			report.FormatMoney(p.TotalCost, currency),
			p.EntryDate.Format("2006-01-02"),
			p.Transactions,
		)
	}
	return b.String()
}

func coverageMarkdown(coverage []prices.Coverage) string {
	var b strings.Builder
	b.WriteString("| Stock | Points | First | Last |\n")
	b.WriteString("|:------|-------:|:------|:-----|\n")
	for _, c := range coverage {
		if c.Points == 0 {
			fmt.Fprintf(&b, "| %s | 0 | - | - |\n", c.Code)
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", c.Code, c.Points, c.First.Format("2006-01-02"), c.Last.Format("2006-01-02"))
	}
	return b.String()
}
