package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/swoet/decentralised-freelance-marketplace-sub002/internal/application"
)

// AutomationWorker periodically sweeps automated escrows and applies due
// milestone rules. The same evaluation also runs on demand through the HTTP
// process-automation endpoint; this loop covers escrows nobody is looking at.
type AutomationWorker struct {
	logger   *slog.Logger
	service  *application.Service
	interval time.Duration
}

func NewAutomationWorker(logger *slog.Logger, service *application.Service, interval time.Duration) *AutomationWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AutomationWorker{
		logger:   logger,
		service:  service,
		interval: interval,
	}
}

// Run executes the periodic automation sweep until context cancellation.
func (w *AutomationWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		processed, err := w.service.ProcessDueAutomation(ctx)
		if err != nil {
			w.logger.ErrorContext(ctx, "automation sweep failed",
				"module", "events.automation_worker",
				"layer", "adapter",
				"operation", "process_due_automation",
				"outcome", "failure",
				"error", err,
			)
		} else if processed > 0 {
			w.logger.InfoContext(ctx, "automation sweep completed",
				"module", "events.automation_worker",
				"layer", "adapter",
				"operation", "process_due_automation",
				"outcome", "success",
				"escrow_count", processed,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
