package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivertype"
)

// AddJob enqueues a River job. Inside a transaction the insert uses InsertTx
// so the job commits or rolls back together with the surrounding writes.
// Outside a transaction it is visible as soon as the insert returns.
func (p *PgSQL) AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error) {
	var (
		res *rivertype.JobInsertResult
		err error
	)
	switch db := p.DB.(type) {
	case *sql.Tx:
		res, err = insertJob(nil, func(c *river.Client[*sql.Tx]) (*rivertype.JobInsertResult, error) {
			return c.InsertTx(ctx, db, args, opts)
		})
	case *sql.DB:
		res, err = insertJob(db, func(c *river.Client[*sql.Tx]) (*rivertype.JobInsertResult, error) {
			return c.Insert(ctx, args, opts)
		})
	default:
		return false, fmt.Errorf("could not insert job: unsupported executor %T", p.DB)
	}
	if err != nil {
		return false, err
	}

	return !res.UniqueSkippedAsDuplicate, nil
}

// insertJob builds an insert-only client; a nil db is fine for InsertTx.
func insertJob(db *sql.DB,
	insert func(c *river.Client[*sql.Tx]) (*rivertype.JobInsertResult, error)) (*rivertype.JobInsertResult, error) {
	client, err := river.NewClient(riverdatabasesql.New(db), &river.Config{})
	if err != nil {
		return nil, fmt.Errorf("could not create river queue client: %w", err)
	}

	res, err := insert(client)
	if err != nil {
		return nil, fmt.Errorf("could not insert job: %w", err)
	}

	return res, nil
}
