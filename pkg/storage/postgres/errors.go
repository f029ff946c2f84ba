package postgres

import (
	"errors"
	"fmt"

	"duesbook/pkg/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// classify translates constraint violations into storage sentinels while
// keeping the driver error in the chain.
func classify(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%s: %w: %w", msg, storage.ErrDuplicate, err)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%s: %w: %w", msg, storage.ErrMissingReference, err)
		}
	}

	return fmt.Errorf("%s: %w", msg, err)
}
