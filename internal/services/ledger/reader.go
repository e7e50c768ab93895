package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

// ReadCSV reads ledger rows from a CSV with a header line. Header names are
// matched case- and whitespace-insensitively against cols. The category
// column is optional; all others are required.
func ReadCSV(r io.Reader, cols common.LedgerColumns) ([]models.LedgerRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("ledger is empty")
		}
		return nil, fmt.Errorf("failed to read ledger header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[headerKey(h)] = i
	}

	lookup := func(name string, required bool) (int, error) {
		i, ok := index[headerKey(name)]
		if !ok {
			if required {
				return -1, fmt.Errorf("ledger column %q not found", name)
			}
			return -1, nil
		}
		return i, nil
	}

	var idx struct{ date, inst, typ, units, price, cum, cat int }
	for _, f := range []struct {
		dst      *int
		name     string
		required bool
	}{
		{&idx.date, cols.Date, true},
		{&idx.inst, cols.Instrument, true},
		{&idx.typ, cols.Type, true},
		{&idx.units, cols.Units, true},
		{&idx.price, cols.UnitPrice, true},
		{&idx.cum, cols.CumulativeUnits, true},
		{&idx.cat, cols.Category, false},
	} {
		i, err := lookup(f.name, f.required)
		if err != nil {
			return nil, err
		}
		*f.dst = i
	}

	var rows []models.LedgerRow
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger line %d: %w", line, err)
		}
		rows = append(rows, models.LedgerRow{
			Line:            line,
			Date:            field(rec, idx.date),
			Instrument:      field(rec, idx.inst),
			Type:            field(rec, idx.typ),
			Units:           field(rec, idx.units),
			UnitPrice:       field(rec, idx.price),
			CumulativeUnits: field(rec, idx.cum),
			Category:        field(rec, idx.cat),
		})
	}
	return rows, nil
}

func headerKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimPrefix(s, "\ufeff"))), " ")
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
