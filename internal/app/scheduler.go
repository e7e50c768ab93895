package app

import (
	"context"
	"fmt"
	"time"
)

// Schedule runs the pipeline once immediately and then on every tick of
// interval until ctx is cancelled. Each outcome is handed to onResult; a
// failed run is logged and the schedule carries on.
func (a *App) Schedule(ctx context.Context, interval time.Duration, opts RunOptions, onResult func(*RunResult, error)) error {
	if interval <= 0 {
		return fmt.Errorf("schedule interval must be positive, got %s", interval)
	}

	runOnce := func() {
		start := time.Now()
		result, err := a.Run(ctx, opts)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduled run failed")
		} else {
			a.Logger.Info().
				Str("run_id", result.RunID).
				Int("records", len(result.Records)).
				Dur("elapsed", time.Since(start)).
				Msg("Scheduled run complete")
		}
		if onResult != nil {
			onResult(result, err)
		}
	}

	runOnce()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.Logger.Info().Dur("interval", interval).Msg("Scheduler started")
	for {
		select {
		case <-ctx.Done():
			a.Logger.Info().Msg("Scheduler stopped")
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}
