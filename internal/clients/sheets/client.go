// Package sheets loads closing prices from spreadsheet CSV exports: a
// published Google Sheet or a local wide CSV file.
package sheets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

const (
	DefaultBaseURL = "https://docs.google.com"
	DefaultTimeout = 30 * time.Second
)

// Client downloads the CSV export of one sheet tab
type Client struct {
	baseURL    string
	sheetID    string
	gid        string
	httpClient *http.Client
	logger     *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a client for the given spreadsheet id and tab gid
func NewClient(sheetID, gid string, opts ...ClientOption) *Client {
	if gid == "" {
		gid = "0"
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		sheetID:    sheetID,
		gid:        gid,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is returned when the export endpoint answers with a non-200 status
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sheet export error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// ExportURL is the CSV export address of the configured tab.
func (c *Client) ExportURL() string {
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv&gid=%s", c.baseURL, c.sheetID, c.gid)
}

// Download fetches the raw CSV export.
func (c *Client) Download(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ExportURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: "/spreadsheets/d/" + c.sheetID}
	}
	return body, nil
}

// LoadAll downloads the sheet and parses every requested code.
func (c *Client) LoadAll(ctx context.Context, codes []string) (map[string][]models.PricePoint, error) {
	body, err := c.Download(ctx)
	if err != nil {
		return nil, err
	}
	series, err := ParseSheetExport(bytes.NewReader(body), codes)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("sheet", c.sheetID).Int("instruments", len(series)).Msg("Sheet prices loaded")
	return series, nil
}

// CSVFile reads a local wide CSV (Date column plus one column per code).
type CSVFile struct {
	Path string
}

// LoadAll parses the file. The context is unused; reads are local.
func (f CSVFile) LoadAll(_ context.Context, codes []string) (map[string][]models.PricePoint, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open price csv %s: %w", f.Path, err)
	}
	defer file.Close()
	return ParseWide(file, codes)
}
