// Package fmp provides a daily close price client for Financial Modeling Prep
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/models"
)

const (
	DefaultBaseURL   = "https://financialmodelingprep.com/api/v3"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5
	DefaultSuffix    = ".HK"
)

// Client fetches historical closes from FMP
type Client struct {
	baseURL    string
	apiKey     string
	suffix     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
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

func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithSuffix(suffix string) ClientOption {
	return func(c *Client) {
		c.suffix = suffix
	}
}

// NewClient creates a new FMP client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		suffix:     DefaultSuffix,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:     common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a client from a [clients.fmp] section.
func NewClientFromConfig(apiKey string, cfg common.APIClientConfig, logger *common.Logger) *Client {
	opts := []ClientOption{
		WithLogger(logger),
		WithRateLimit(cfg.RateLimit),
		WithTimeout(cfg.GetTimeout()),
		WithSuffix(cfg.Suffix),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return NewClient(apiKey, opts...)
}

// APIError is returned for any non-200 response
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

type historicalResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date  string  `json:"date"`
		Close float64 `json:"close"`
	} `json:"historical"`
	ErrorMessage string `json:"Error Message"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("FMP API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Ticker returns the FMP symbol for an instrument code.
func (c *Client) Ticker(code string) string {
	return code + c.suffix
}

// GetDailyCloses retrieves daily closes in ascending date order. FMP returns
// newest first; the result is re-sorted.
func (c *Client) GetDailyCloses(ctx context.Context, code string, from, to time.Time) ([]models.PricePoint, error) {
	params := url.Values{}
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		params.Set("to", to.Format("2006-01-02"))
	}

	path := "/historical-price-full/" + c.Ticker(code)

	var body historicalResponse
	if err := c.get(ctx, path, params, &body); err != nil {
		return nil, err
	}
	if body.ErrorMessage != "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: body.ErrorMessage, Endpoint: path}
	}

	points := make([]models.PricePoint, 0, len(body.Historical))
	for _, h := range body.Historical {
		date, err := time.Parse("2006-01-02", h.Date)
		if err != nil || h.Close <= 0 {
			continue
		}
		points = append(points, models.PricePoint{Date: date, Price: h.Close})
	}
	models.SortPricePoints(points)

	c.logger.Debug().Str("ticker", c.Ticker(code)).Int("points", len(points)).Msg("FMP closes fetched")
	return points, nil
}
