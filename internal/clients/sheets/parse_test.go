package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetExport = `9988,,0388,,Notes
Date,Close,Date,Close,
2024/03/01,80.10,2024/03/01,290.0,x
2024/03/04,81.00,2024/03/04,NA,
2024/03/05,"1,081.50",,,
bad,1,2024/03/05,295.5,
`

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseSheetExport(t *testing.T) {
	series, err := ParseSheetExport(strings.NewReader(sheetExport), []string{"9988", "0388", "0700"})
	require.NoError(t, err)

	require.Len(t, series, 2)
	assert.NotContains(t, series, "0700")

	alibaba := series["9988"]
	require.Len(t, alibaba, 3)
	assert.Equal(t, date(2024, 3, 1), alibaba[0].Date)
	assert.Equal(t, 80.10, alibaba[0].Price)
	assert.Equal(t, 1081.50, alibaba[2].Price)

	hkex := series["0388"]
	require.Len(t, hkex, 2)
	assert.Equal(t, date(2024, 3, 5), hkex[1].Date)
	assert.Equal(t, 295.5, hkex[1].Price)
}

func TestParseSheetExport_DiscoversCodes(t *testing.T) {
	series, err := ParseSheetExport(strings.NewReader(sheetExport), nil)
	require.NoError(t, err)
	assert.Len(t, series, 2)
	assert.Contains(t, series, "9988")
	assert.Contains(t, series, "0388")
}

func TestParseWide(t *testing.T) {
	csv := "\ufeffDate,0700,3690\n2024/03/01,290.0,\n2024/03/04,291.2,100.5\n,1,1\n"
	series, err := ParseWide(strings.NewReader(csv), nil)
	require.NoError(t, err)

	require.Len(t, series["0700"], 2)
	require.Len(t, series["3690"], 1)
	assert.Equal(t, date(2024, 3, 4), series["3690"][0].Date)
}

func TestParseWide_NoDateColumn(t *testing.T) {
	_, err := ParseWide(strings.NewReader("Day,0700\n2024/03/01,1\n"), nil)
	assert.ErrorIs(t, err, ErrNoDateColumn)
}

func TestCSVFile_LoadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,0700\n2024-03-01,290\n"), 0644))

	series, err := CSVFile{Path: path}.LoadAll(context.Background(), []string{"0700"})
	require.NoError(t, err)
	assert.Len(t, series["0700"], 1)

	_, err = CSVFile{Path: filepath.Join(t.TempDir(), "missing.csv")}.LoadAll(context.Background(), nil)
	assert.Error(t, err)
}

func TestClient_LoadAll(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(sheetExport))
	}))
	defer srv.Close()

	client := NewClient("sheet-1", "", WithBaseURL(srv.URL))
	series, err := client.LoadAll(context.Background(), []string{"9988"})
	require.NoError(t, err)

	assert.Equal(t, "/spreadsheets/d/sheet-1/export", gotPath)
	assert.Equal(t, "format=csv&gid=0", gotQuery)
	assert.Len(t, series["9988"], 3)
}

func TestClient_LoadAll_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient("missing", "5", WithBaseURL(srv.URL)).LoadAll(context.Background(), nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
