package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/perfstrip/internal/app"
	"github.com/bobmcallan/perfstrip/internal/common"
)

const testLedger = `Date,Stock,Investment Category,Type,Transacted Units,Transacted Price (per unit),Cumulative Units
2024/01/02,9988,HK Stock,Buy,1000,$72.50,1000
2024/01/09,9988,HK Stock,Buy,1000,$80.10,2000
2024/01/10,0388,HK Stock,Buy,100,$250.00,100
`

const testPrices = `Date,9988,0388
2024/01/02,72.5,245
2024/01/09,80.1,248
2024/01/10,81,250
2024/01/11,85,260
`

func testFactory(t *testing.T) appFactory {
	t.Helper()
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "profolio.csv")
	pricePath := filepath.Join(dir, "stock_data.csv")
	require.NoError(t, os.WriteFile(ledgerPath, []byte(testLedger), 0644))
	require.NoError(t, os.WriteFile(pricePath, []byte(testPrices), 0644))

	return func(rc *RootConfig) (*app.App, error) {
		cfg := common.NewDefaultConfig()
		cfg.Ledger.Path = ledgerPath
		cfg.Prices.Source = common.PriceSourceCSV
		cfg.Prices.CSVPath = pricePath
		cfg.Output.Dir = filepath.Join(dir, "output")
		return app.NewAppWithConfig(cfg, common.NewSilentLogger())
	}
}

func execute(t *testing.T, factory appFactory, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), factory, args...)
}

func executeContext(t *testing.T, ctx context.Context, factory appFactory, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(factory)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := run(ctx, cmd, args, &errOut)
	return out.String(), err
}

func TestPositionsJSON(t *testing.T) {
	out, err := execute(t, testFactory(t), "positions", "--json", "--no-banner")
	require.NoError(t, err)

	var positions []app.Position
	require.NoError(t, json.Unmarshal([]byte(out), &positions))
	require.Len(t, positions, 2)
	assert.Equal(t, "0388", positions[0].Instrument)
	assert.InDelta(t, 76.30, positions[1].AverageCost, 1e-9)
}

func TestPositionsMarkdown(t *testing.T) {
	out, err := execute(t, testFactory(t), "positions", "--no-banner")
	require.NoError(t, err)
	assert.Contains(t, out, "9988")
	assert.Contains(t, out, "2,000")
}

func TestReportJSON(t *testing.T) {
	out, err := execute(t, testFactory(t), "report", "--json", "--no-render", "--no-banner")
	require.NoError(t, err)

	var result app.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Records, 2)
	assert.Contains(t, result.Outputs, app.RecordsFile)
}

func TestReportEveryRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	out, err := executeContext(t, ctx, testFactory(t), "report", "--every", "1h", "--json", "--no-render", "--no-banner")
	require.NoError(t, err)

	var result app.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Len(t, result.Records, 2)
}

func TestPricesCoverage(t *testing.T) {
	out, err := execute(t, testFactory(t), "prices", "--json", "--no-banner")
	require.NoError(t, err)
	assert.Contains(t, out, `"code": "9988"`)
	assert.Contains(t, out, `"points": 4`)
}

func TestFactoryError(t *testing.T) {
	failing := func(rc *RootConfig) (*app.App, error) { return nil, errors.New("bad config") }
	_, err := execute(t, failing, "positions")
	assert.EqualError(t, err, "bad config")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, testFactory(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "perfstrip ")
}

func TestPositionsMarkdownTable(t *testing.T) {
	md := positionsMarkdown([]app.Position{{Instrument: "0700", Units: 100, AverageCost: 300, TotalCost: 30000, Transactions: 1, Error: "oversold"}}, "USD")
	assert.Contains(t, md, "| 0700 | 100 (oversold) | $300.00 | $30,000.00 |")
}
