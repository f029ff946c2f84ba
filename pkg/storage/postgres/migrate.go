package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"duesbook/pkg/storage"

	"github.com/pressly/goose/v3"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivermigrate"
)

// MigrationResult lists the versions applied by Migrate. Both are empty when
// the database was already up to date.
type MigrationResult struct {
	// Schema holds the goose versions of the application tables.
	Schema []int64
	// Queue holds the River versions of the job tables.
	Queue []int
}

// Migrate applies the goose migrations found at the root of migrations and
// then brings the River job tables to their latest version. It must not be
// called inside a transaction.
func (p *PgSQL) Migrate(ctx context.Context, migrations fs.FS) (*MigrationResult, error) {
	db, ok := p.DB.(*sql.DB)
	if !ok {
		return nil, storage.ErrAlreadyInTx
	}

	var res MigrationResult

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return nil, fmt.Errorf("could not create goose provider: %w", err)
	}
	applied, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not migrate pg schema: %w", err)
	}
	for _, r := range applied {
		res.Schema = append(res.Schema, r.Source.Version)
	}

	migrator, err := rivermigrate.New(riverdatabasesql.New(db), nil)
	if err != nil {
		return nil, fmt.Errorf("could not create river queue migrator: %w", err)
	}
	// a zero target version migrates all the way up
	queue, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return nil, fmt.Errorf("could not migrate river queue tables: %w", err)
	}
	for _, v := range queue.Versions {
		res.Queue = append(res.Queue, v.Version)
	}

	return &res, nil
}
