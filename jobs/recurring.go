package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/BUNNY-RANGU/gst-invoice-agent/internal/invoice"
)

// RecurringGenerator materializes invoices from due recurring profiles.
type RecurringGenerator interface {
	GenerateDueRecurring(ctx context.Context, asOf time.Time) ([]invoice.Invoice, error)
}

// RecurringJob turns due recurring profiles into invoices.
type RecurringJob struct {
	logger    *slog.Logger
	generator RecurringGenerator
}

// NewRecurringJob builds the recurring generation job.
func NewRecurringJob(logger *slog.Logger, generator RecurringGenerator) *RecurringJob {
	return &RecurringJob{logger: logger, generator: generator}
}

// Handle processes TaskTypeRecurringRun tasks.
func (j *RecurringJob) Handle(ctx context.Context, _ *asynq.Task) error {
	created, err := j.generator.GenerateDueRecurring(ctx, time.Time{})
	for _, inv := range created {
		j.logger.Info("recurring invoice issued", slog.String("number", inv.Number))
	}
	if err != nil {
		j.logger.Warn("recurring run finished with errors", slog.Any("error", err))
		return err
	}
	return nil
}
