package gather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Watch runs g on the cron schedule spec until ctx is cancelled. A run that
// is still in progress when the next tick fires causes that tick to be
// skipped. Errors from individual runs are logged, not returned.
func Watch(ctx context.Context, spec string, g Gatherer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "watch", "gatherer", g.Name())

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	id, err := c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		log.Info("scheduled run starting")
		if err := g.Run(ctx); err != nil {
			log.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	log.Info("watching", "schedule", spec, "next", c.Entry(id).Schedule.Next(time.Now()))

	<-ctx.Done()
	log.Info("stopping scheduler")
	<-c.Stop().Done()
	return nil
}
