package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"policydash/internal/infrastructure"
)

// StartSweeper schedules Store.Sweep on a standard five-field cron schedule.
// The scheduler stops when ctx is cancelled.
func StartSweeper(ctx context.Context, store *Store, schedule string, loc *time.Location, logger *slog.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(schedule, func() {
		runCtx := infrastructure.EnsureTraceID(ctx)
		if removed := store.Sweep(); removed > 0 {
			logger.InfoContext(runCtx, "expired sessions swept",
				slog.Int("removed", removed),
				slog.Int("remaining", store.Size()))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule session sweep %q: %w", schedule, err)
	}

	c.Start()
	logger.Info("session sweeper started", slog.String("schedule", schedule))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		logger.Info("session sweeper stopped")
	}()
	return c, nil
}
