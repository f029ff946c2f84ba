package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duesbook/internal/config"
	"duesbook/pkg/logger"
	"duesbook/pkg/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"go.uber.org/zap/exp/zapslog"
)

// Options configure the River client running billing jobs.
type Options struct {
	// MaxWorkers bounds concurrent jobs on the default queue.
	MaxWorkers int
	// OverdueSweepInterval is how often the overdue gauge is refreshed.
	// Zero disables the periodic job.
	OverdueSweepInterval time.Duration
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxWorkers:           cfg.Billing.Workers,
		OverdueSweepInterval: cfg.Billing.OverdueSweepInterval,
	}
}

// Start creates a River client with the billing workers registered and starts it.
// today decides the calendar date used by the overdue sweep.
func Start(ctx context.Context,
	dbPool *pgxpool.Pool,
	payments storage.PaymentStorage,
	today func() time.Time,
	options Options) (*river.Client[pgx.Tx], error) {
	riverClient, err := river.NewClient(riverpgxv5.New(dbPool), newConfig(ctx, payments, today, options))
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	if err := riverClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("could not start river queue client: %w", err)
	}

	return riverClient, nil
}

func newConfig(ctx context.Context,
	payments storage.PaymentStorage,
	today func() time.Time,
	options Options) *river.Config {
	workers := river.NewWorkers()
	river.AddWorker(workers, NewOverdueWorker(payments, today))
	river.AddWorker(workers, NewSettledWorker(payments))

	maxWorkers := options.MaxWorkers
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	var periodic []*river.PeriodicJob
	if options.OverdueSweepInterval > 0 {
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(options.OverdueSweepInterval),
			func() (river.JobArgs, *river.InsertOpts) {
				return OverdueSweepArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	return &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       slog.New(zapslog.NewHandler(logger.Get(ctx).Core())),
	}
}
