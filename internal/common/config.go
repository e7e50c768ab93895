// Package common provides shared utilities for perfstrip
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for perfstrip
type Config struct {
	Environment string        `toml:"environment"`
	Ledger      LedgerConfig  `toml:"ledger"`
	Engine      EngineConfig  `toml:"engine"`
	Prices      PricesConfig  `toml:"prices"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Notify      NotifyConfig  `toml:"notify"`
	Output      OutputConfig  `toml:"output"`
	Logging     LoggingConfig `toml:"logging"`
}

// Instrument filter modes
const (
	FilterNumericCode = "numeric_code"
	FilterCategory    = "category"
)

// Holding rules decide which instruments count as currently held.
const (
	HoldingCumulative = "cumulative"
	HoldingReplay     = "replay"
)

// LedgerConfig describes the transaction ledger CSV and how rows are filtered.
type LedgerConfig struct {
	Path        string        `toml:"path"`
	Filter      string        `toml:"filter"`      // "numeric_code" or "category"
	CodeDigits  int           `toml:"code_digits"` // instrument codes must be exactly this many digits
	PadCodes    bool          `toml:"pad_codes"`   // restore leading zeros on shorter numeric codes
	Category    string        `toml:"category"`    // substring matched against the category column
	HoldingRule string        `toml:"holding_rule"`
	Exclude     []string      `toml:"exclude"`
	Columns     LedgerColumns `toml:"columns"`
}

// LedgerColumns maps ledger fields to CSV header names.
type LedgerColumns struct {
	Date            string `toml:"date"`
	Instrument      string `toml:"instrument"`
	Type            string `toml:"type"`
	Units           string `toml:"units"`
	UnitPrice       string `toml:"unit_price"`
	CumulativeUnits string `toml:"cumulative_units"`
	Category        string `toml:"category"`
}

// Oversell policies
const (
	SellPolicyAllow  = "allow"
	SellPolicyReject = "reject"
)

// EngineConfig tunes the performance reconstruction.
type EngineConfig struct {
	ClampMin   float64 `toml:"clamp_min"`
	ClampMax   float64 `toml:"clamp_max"`
	SellPolicy string  `toml:"sell_policy"` // "allow" or "reject"
	Workers    int     `toml:"workers"`
}

// Price sources
const (
	PriceSourceAPI   = "api"
	PriceSourceCSV   = "csv"
	PriceSourceSheet = "sheet"
)

// PricesConfig selects where closing prices come from.
type PricesConfig struct {
	Source        string `toml:"source"`   // "api", "csv" or "sheet"
	Provider      string `toml:"provider"` // "fmp" or "eodhd" when source is "api"
	StartDate     string `toml:"start_date"`
	RefreshWindow string `toml:"refresh_window"`
	CSVPath       string `toml:"csv_path"`
	SheetID       string `toml:"sheet_id"`
	SheetGID      string `toml:"sheet_gid"`
	Backfill      bool   `toml:"backfill"`
}

// GetStartDate parses StartDate, defaulting to 2021-01-01.
func (c *PricesConfig) GetStartDate() time.Time {
	t, err := time.Parse("2006-01-02", c.StartDate)
	if err != nil {
		return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// GetRefreshWindow parses RefreshWindow, defaulting to 48h.
func (c *PricesConfig) GetRefreshWindow() time.Duration {
	d, err := time.ParseDuration(c.RefreshWindow)
	if err != nil {
		return 48 * time.Hour
	}
	return d
}

// StorageConfig holds price cache configuration
type StorageConfig struct {
	Driver string `toml:"driver"` // "file" or "sqlite"
	Path   string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	FMP      APIClientConfig `toml:"fmp"`
	EODHD    APIClientConfig `toml:"eodhd"`
	Telegram APIClientConfig `toml:"telegram"`
}

// APIClientConfig holds configuration shared by the HTTP clients
type APIClientConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	Suffix    string `toml:"suffix"` // appended to instrument codes, e.g. ".HK"
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *APIClientConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// NotifyConfig holds delivery settings. Credentials live here and are handed
// to the delivery client when it is built.
type NotifyConfig struct {
	Enabled       bool             `toml:"enabled"`
	CaptionPrefix string           `toml:"caption_prefix"`
	Targets       []TelegramTarget `toml:"targets"`
}

// TelegramTarget is one bot/chat pair that receives the notification image.
type TelegramTarget struct {
	Name     string `toml:"name"`
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
}

// OutputConfig controls the rendered artefacts.
type OutputConfig struct {
	Dir         string `toml:"dir"`
	Currency    string `toml:"currency"`
	ChartWidth  int    `toml:"chart_width"`
	ChartHeight int    `toml:"chart_height"`
	HTML        bool   `toml:"html"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Ledger: LedgerConfig{
			Path:        "profolio.csv",
			Filter:      FilterNumericCode,
			CodeDigits:  4,
			PadCodes:    true,
			Category:    "HK Stock",
			HoldingRule: HoldingCumulative,
			Columns: LedgerColumns{
				Date:            "Date",
				Instrument:      "Stock",
				Type:            "Type",
				Units:           "Transacted Units",
				UnitPrice:       "Transacted Price (per unit)",
				CumulativeUnits: "Cumulative Units",
				Category:        "Investment Category",
			},
		},
		Engine: EngineConfig{
			ClampMin:   -100,
			ClampMax:   1000,
			SellPolicy: SellPolicyAllow,
			Workers:    4,
		},
		Prices: PricesConfig{
			Source:        PriceSourceAPI,
			Provider:      "fmp",
			StartDate:     "2021-01-01",
			RefreshWindow: "48h",
			CSVPath:       "stock_data.csv",
			SheetGID:      "0",
		},
		Storage: StorageConfig{
			Driver: "file",
			Path:   "data/prices",
		},
		Clients: ClientsConfig{
			FMP: APIClientConfig{
				BaseURL:   "https://financialmodelingprep.com/api/v3",
				Suffix:    ".HK",
				RateLimit: 5,
				Timeout:   "30s",
			},
			EODHD: APIClientConfig{
				BaseURL:   "https://eodhd.com/api",
				Suffix:    ".HK",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Telegram: APIClientConfig{
				BaseURL:   "https://api.telegram.org",
				RateLimit: 1,
				Timeout:   "30s",
			},
		},
		Notify: NotifyConfig{
			CaptionPrefix: "Portfolio Update",
		},
		Output: OutputConfig{
			Dir:         "output",
			Currency:    "HKD",
			ChartWidth:  1600,
			ChartHeight: 800,
			HTML:        true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console"},
			FilePath:   "./logs/perfstrip.log",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PERFSTRIP_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("PERFSTRIP_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("PERFSTRIP_LEDGER"); path != "" {
		config.Ledger.Path = path
	}

	if path := os.Getenv("PERFSTRIP_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "prices")
	}

	if dir := os.Getenv("PERFSTRIP_OUTPUT_DIR"); dir != "" {
		config.Output.Dir = dir
	}

	if src := os.Getenv("PERFSTRIP_PRICE_SOURCE"); src != "" {
		config.Prices.Source = strings.ToLower(src)
	}

	if key := os.Getenv("FMP_API_KEY"); key != "" {
		config.Clients.FMP.APIKey = key
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		config.Clients.EODHD.APIKey = key
	}

	token := os.Getenv("PERFSTRIP_TELEGRAM_TOKEN")
	chat := os.Getenv("PERFSTRIP_TELEGRAM_CHAT")
	if token != "" && chat != "" {
		config.Notify.Targets = append(config.Notify.Targets, TelegramTarget{
			Name:     "env",
			BotToken: token,
			ChatID:   chat,
		})
	}
}

// Validate normalises enum-like fields and rejects combinations the
// pipeline cannot run with.
func (c *Config) Validate() error {
	c.Ledger.Filter = strings.ToLower(strings.TrimSpace(c.Ledger.Filter))
	switch c.Ledger.Filter {
	case FilterNumericCode, FilterCategory:
	default:
		return fmt.Errorf("ledger.filter %q: must be %q or %q", c.Ledger.Filter, FilterNumericCode, FilterCategory)
	}

	c.Ledger.HoldingRule = strings.ToLower(strings.TrimSpace(c.Ledger.HoldingRule))
	switch c.Ledger.HoldingRule {
	case HoldingCumulative, HoldingReplay:
	default:
		return fmt.Errorf("ledger.holding_rule %q: must be %q or %q", c.Ledger.HoldingRule, HoldingCumulative, HoldingReplay)
	}

	if c.Ledger.CodeDigits <= 0 {
		return fmt.Errorf("ledger.code_digits must be positive, got %d", c.Ledger.CodeDigits)
	}

	if c.Engine.ClampMin >= c.Engine.ClampMax {
		return fmt.Errorf("engine.clamp_min (%g) must be below engine.clamp_max (%g)", c.Engine.ClampMin, c.Engine.ClampMax)
	}

	c.Engine.SellPolicy = strings.ToLower(strings.TrimSpace(c.Engine.SellPolicy))
	switch c.Engine.SellPolicy {
	case SellPolicyAllow, SellPolicyReject:
	default:
		return fmt.Errorf("engine.sell_policy %q: must be %q or %q", c.Engine.SellPolicy, SellPolicyAllow, SellPolicyReject)
	}

	if c.Engine.Workers <= 0 {
		c.Engine.Workers = 1
	}

	switch c.Prices.Source {
	case PriceSourceAPI:
		switch c.Prices.Provider {
		case "fmp", "eodhd":
		default:
			return fmt.Errorf("prices.provider %q: must be \"fmp\" or \"eodhd\"", c.Prices.Provider)
		}
	case PriceSourceCSV, PriceSourceSheet:
	default:
		return fmt.Errorf("prices.source %q: must be %q, %q or %q", c.Prices.Source, PriceSourceAPI, PriceSourceCSV, PriceSourceSheet)
	}

	switch c.Storage.Driver {
	case "file", "sqlite":
	default:
		return fmt.Errorf("storage.driver %q: must be \"file\" or \"sqlite\"", c.Storage.Driver)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from environment or fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"fmp_api_key":   {"FMP_API_KEY", "PERFSTRIP_FMP_API_KEY"},
		"eodhd_api_key": {"EODHD_API_KEY", "PERFSTRIP_EODHD_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}
