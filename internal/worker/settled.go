package worker

import (
	"context"
	"fmt"

	"duesbook/internal/billing"
	"duesbook/pkg/domain"
	"duesbook/pkg/logger"
	"duesbook/pkg/storage"

	"github.com/riverqueue/river"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// SettledWorker announces payments that were marked paid. It re-reads the
// payment and never writes to it.
type SettledWorker struct {
	river.WorkerDefaults[billing.SettledJobArgs]

	payments storage.PaymentStorage
	settled  metric.Int64Counter
}

// NewSettledWorker constructs a SettledWorker.
func NewSettledWorker(payments storage.PaymentStorage) *SettledWorker {
	settled, err := otel.Meter(instrumentationName).Int64Counter("duesbook_payments_settled",
		metric.WithDescription("Settled payments announced by the worker."))
	if err != nil {
		settled = noop.Int64Counter{}
	}

	return &SettledWorker{
		payments: payments,
		settled:  settled,
	}
}

// Work implements river.Worker. Jobs pointing at a missing or unpaid payment
// are cancelled; lookup errors are retried.
func (w *SettledWorker) Work(ctx context.Context, job *river.Job[billing.SettledJobArgs]) error {
	ctx = logger.WithFields(ctx, zap.Int64("jobID", job.ID), zap.String("paymentID", job.Args.PaymentID))

	id, err := domain.ParsePaymentID(job.Args.PaymentID)
	if err != nil {
		logger.Error(ctx, "settled job with malformed payment id", zap.Error(err))

		return river.JobCancel(fmt.Errorf("invalid payment id: %w", err)) //nolint: wrapcheck
	}

	payment, err := w.payments.PaymentByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "error loading settled payment", zap.Error(err))

		return fmt.Errorf("could not get payment: %w", err)
	}
	if payment == nil {
		return river.JobCancel(fmt.Errorf("payment %s no longer exists", id)) //nolint: wrapcheck
	}
	if !payment.IsPaid() {
		return river.JobCancel(fmt.Errorf("payment %s is not paid", id)) //nolint: wrapcheck
	}

	w.settled.Add(ctx, 1)
	logger.Info(ctx, "payment settled",
		zap.String("memberID", payment.MemberID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.Time("paidAt", payment.PaidAt))

	return nil
}
