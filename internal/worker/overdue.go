package worker

import (
	"context"
	"fmt"
	"time"

	"duesbook/pkg/logger"
	"duesbook/pkg/storage"

	"github.com/riverqueue/river"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const instrumentationName = "duesbook/internal/worker"

// OverdueSweepArgs is the periodic job refreshing the overdue gauge. It
// carries no arguments; the date is decided when the job runs.
type OverdueSweepArgs struct{}

// Kind returns the River job kind of the overdue sweep.
func (OverdueSweepArgs) Kind() string { return "overdue_sweep" }

// OverdueWorker counts payments that are overdue today and exports the
// count as a gauge. It only reads.
type OverdueWorker struct {
	river.WorkerDefaults[OverdueSweepArgs]

	payments storage.PaymentStorage
	today    func() time.Time
	gauge    metric.Int64Gauge
}

// NewOverdueWorker constructs an OverdueWorker.
func NewOverdueWorker(payments storage.PaymentStorage, today func() time.Time) *OverdueWorker {
	gauge, err := otel.Meter(instrumentationName).Int64Gauge("duesbook_overdue_payments",
		metric.WithDescription("Pending payments past their due date at the last sweep."))
	if err != nil {
		gauge = noop.Int64Gauge{}
	}

	return &OverdueWorker{
		payments: payments,
		today:    today,
		gauge:    gauge,
	}
}

// Timeout bounds a single sweep.
func (w *OverdueWorker) Timeout(*river.Job[OverdueSweepArgs]) time.Duration {
	return 30 * time.Second
}

// Work implements river.Worker.
func (w *OverdueWorker) Work(ctx context.Context, job *river.Job[OverdueSweepArgs]) error {
	asOf := w.today()
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID), zap.Time("asOf", asOf))

	count, err := w.payments.CountOverduePayments(ctx, asOf)
	if err != nil {
		logger.Error(ctx, "error counting overdue payments", zap.Error(err))

		return fmt.Errorf("could not count overdue payments: %w", err)
	}

	w.gauge.Record(ctx, count)
	logger.Info(ctx, "overdue payments counted", zap.Int64("count", count))

	return nil
}
