package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage enqueues background jobs. When called on a TxStorage the insert
// joins the transaction and the job only becomes visible on commit.
type JobStorage interface {
	// AddJob enqueues a job. It reports false when a unique job with the same
	// arguments already exists.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
