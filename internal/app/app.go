package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/perfstrip/internal/clients/eodhd"
	"github.com/bobmcallan/perfstrip/internal/clients/fmp"
	"github.com/bobmcallan/perfstrip/internal/clients/sheets"
	"github.com/bobmcallan/perfstrip/internal/clients/telegram"
	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/interfaces"
	"github.com/bobmcallan/perfstrip/internal/services/ledger"
	"github.com/bobmcallan/perfstrip/internal/services/notify"
	"github.com/bobmcallan/perfstrip/internal/services/performance"
	"github.com/bobmcallan/perfstrip/internal/services/prices"
	"github.com/bobmcallan/perfstrip/internal/storage"
)

// App holds all initialized services, clients and storage.
// It is the shared core behind every cmd/perfstrip subcommand.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Cache              interfaces.PriceCache
	PriceClient        interfaces.PriceClient
	LedgerService      *ledger.Service
	PriceService       *prices.Service
	PerformanceService *performance.Service
	NotifyService      *notify.Service
	StartupTime        time.Time

	now func() time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, PERFSTRIP_CONFIG,
// perfstrip.toml next to the binary, then config/perfstrip.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("PERFSTRIP_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "perfstrip.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/perfstrip.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes every service.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewAppWithConfig(config, common.NewLoggerFromConfig(config.Logging))
}

// NewAppWithConfig initializes services from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	if logger == nil {
		logger = common.NewSilentLogger()
	}

	src := prices.Sources{}
	var cache interfaces.PriceCache
	var client interfaces.PriceClient

	switch config.Prices.Source {
	case common.PriceSourceAPI:
		var err error
		cache, err = storage.NewPriceCache(logger, config.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize price cache: %w", err)
		}
		client = newPriceClient(config, logger)
		src.Cache = cache
		src.Client = client

	case common.PriceSourceSheet:
		src.Sheet = sheets.NewClient(config.Prices.SheetID, config.Prices.SheetGID, sheets.WithLogger(logger))
		src.Fallback = sheets.CSVFile{Path: config.Prices.CSVPath}

	case common.PriceSourceCSV:
		src.Fallback = sheets.CSVFile{Path: config.Prices.CSVPath}
	}

	var notifyService *notify.Service
	if len(config.Notify.Targets) > 0 {
		sender := telegram.NewClientFromConfig(config.Clients.Telegram, logger)
		notifyService = notify.NewService(sender, config.Notify.Targets, logger)
	}

	a := &App{
		Config:             config,
		Logger:             logger,
		Cache:              cache,
		PriceClient:        client,
		LedgerService:      ledger.NewService(config.Ledger, logger),
		PriceService:       prices.NewService(config.Prices, src, logger),
		PerformanceService: performance.NewServiceFromConfig(config.Engine, logger),
		NotifyService:      notifyService,
		StartupTime:        startupStart,
		now:                time.Now,
	}

	logger.Info().
		Str("source", config.Prices.Source).
		Int("targets", len(config.Notify.Targets)).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// newPriceClient builds the REST client for the configured provider. A
// missing API key is logged; requests then fail and cached data is used.
func newPriceClient(config *common.Config, logger *common.Logger) interfaces.PriceClient {
	switch config.Prices.Provider {
	case "eodhd":
		key, err := common.ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey)
		if err != nil {
			logger.Warn().Msg("EODHD API key not configured - only cached prices will be used")
		}
		return eodhd.NewClientFromConfig(key, config.Clients.EODHD, logger)
	default:
		key, err := common.ResolveAPIKey("fmp_api_key", config.Clients.FMP.APIKey)
		if err != nil {
			logger.Warn().Msg("FMP API key not configured - only cached prices will be used")
		}
		return fmp.NewClientFromConfig(key, config.Clients.FMP, logger)
	}
}

// SetClock replaces the time source for run timestamps and price refresh.
func (a *App) SetClock(now func() time.Time) {
	a.now = now
	a.PriceService.SetClock(now)
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Cache != nil {
		a.Cache.Close()
		a.Cache = nil
	}
}
