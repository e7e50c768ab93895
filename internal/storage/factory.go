// Package storage selects the price cache backend.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/perfstrip/internal/common"
	"github.com/bobmcallan/perfstrip/internal/interfaces"
	"github.com/bobmcallan/perfstrip/internal/storage/pricefs"
	"github.com/bobmcallan/perfstrip/internal/storage/sqlitecache"
)

// Driver constants.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"

	sqliteFile = "prices.db"
)

// NewPriceCache opens the cache named by cfg.Driver. Supported drivers:
// "file" (default) and "sqlite".
func NewPriceCache(logger *common.Logger, cfg common.StorageConfig) (interfaces.PriceCache, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		return pricefs.NewStore(logger, cfg.Path)

	case DriverSQLite:
		return sqlitecache.NewStore(logger, SQLitePath(cfg.Path))

	default:
		return nil, fmt.Errorf("unknown storage driver: %s (supported: file, sqlite)", driver)
	}
}

// SQLitePath treats path as a database file when it has a .db or .sqlite
// extension and as a directory otherwise.
func SQLitePath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return path
	}
	return filepath.Join(path, sqliteFile)
}
