package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the startup banner for a command run.
func PrintBanner(w io.Writer, config *Config, logger *Logger, command string) {
	version := GetVersion()
	commit := GetGitCommit()

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n\n", hr)
	fmt.Fprintf(w, "%s  PERFSTRIP  weighted-average performance%s\n\n", textColor, banner.ColorReset)

	kvPad := 14
	kvLines := [][2]string{
		{"Version", version},
		{"Commit", commit},
		{"Environment", config.Environment},
		{"Command", command},
		{"Ledger", config.Ledger.Path},
		{"Prices", priceSourceLabel(config)},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("environment", config.Environment).
		Str("command", command).
		Msg("Application started")
}

// PrintShutdownBanner writes a short closing line.
func PrintShutdownBanner(w io.Writer, logger *Logger) {
	hr := banner.ColorCyan + strings.Repeat("═", 30) + banner.ColorReset
	fmt.Fprintf(w, "\n%s\n%s  PERFSTRIP  DONE%s\n%s\n\n", hr, banner.ColorBold+banner.ColorWhite, banner.ColorReset, hr)
	logger.Info().Msg("Application finished")
}

func priceSourceLabel(config *Config) string {
	if config.Prices.Source == PriceSourceAPI {
		return config.Prices.Source + "/" + config.Prices.Provider + " (" + config.Storage.Driver + " cache)"
	}
	return config.Prices.Source
}
