package pipeline

import (
	"context"
	"fmt"

	"funding_digest/internal/logger"

	"github.com/robfig/cron/v3"
)

// Schedule runs the pipeline on a standard five-field cron expression until ctx is cancelled.
// A run still in progress when the next tick fires causes that tick to be skipped.
func (p *Pipeline) Schedule(ctx context.Context, expr string) error {
	log := logger.Log.WithFields(logger.Fields{
		"service":  "scheduler",
		"schedule": expr,
	})

	c := cron.New(cron.WithChain(
		cron.Recover(cron.PrintfLogger(logger.Log)),
		cron.SkipIfStillRunning(cron.PrintfLogger(logger.Log)),
	))
	if _, err := c.AddFunc(expr, func() {
		log.Info("Starting scheduled run")
		if _, err := p.Run(ctx); err != nil {
			log.WithError(err).Error("Scheduled run failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	c.Start()
	log.Info("Scheduler started")

	<-ctx.Done()
	log.Info("Stopping scheduler by context")
	<-c.Stop().Done()
	return nil
}
