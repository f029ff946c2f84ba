package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"duesbook/internal/billing"
	"duesbook/pkg/storage"
	"duesbook/pkg/storage/postgres"

	"github.com/riverqueue/river"
	"github.com/shopspring/decimal"
	"github.com/riverqueue/river/riverdriver/riverdatabasesql"
	"github.com/riverqueue/river/rivertest"
	"github.com/stretchr/testify/require"
)

func settled(paymentID string) billing.SettledJobArgs {
	return billing.SettledJobArgs{PaymentID: paymentID, MemberID: "m-1", Amount: "10.00"}
}

func driver(pg *postgres.PgSQL) *riverdatabasesql.Driver {
	return riverdatabasesql.New(pg.DB.(*sql.DB))
}

func TestPgSQL_AddJob_CommitsWithTransaction(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	err := pg.WithTx(ctx, func(tx storage.AllStorage) error {
		inserted, err := tx.AddJob(ctx, settled("p-1"), nil)
		require.NoError(t, err)
		require.True(t, inserted)

		// visible inside the transaction only
		rivertest.RequireInsertedTx[*riverdatabasesql.Driver](ctx, t,
			tx.(*postgres.PgSQL).DB.(*sql.Tx), &billing.SettledJobArgs{}, nil)

		return nil
	})
	require.NoError(t, err)

	job := rivertest.RequireInserted[*riverdatabasesql.Driver](ctx, t, driver(pg), &billing.SettledJobArgs{}, nil)
	require.Equal(t, "p-1", job.Args.PaymentID)
	require.Equal(t, "payment_settled", job.Kind)
}

func TestPgSQL_AddJob_RolledBackWithTransaction(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	txStorage, err := pg.Begin(ctx)
	require.NoError(t, err)
	_, err = txStorage.AddJob(ctx, settled("p-2"), nil)
	require.NoError(t, err)
	require.NoError(t, txStorage.Rollback())

	rivertest.RequireNotInserted[*riverdatabasesql.Driver](ctx, t, driver(pg), &billing.SettledJobArgs{}, nil)
}

func TestPgSQL_AddJob_OutsideTransaction(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	inserted, err := pg.AddJob(ctx, settled("p-3"), &river.InsertOpts{Queue: river.QueueDefault})
	require.NoError(t, err)
	require.True(t, inserted)

	rivertest.RequireInserted[*riverdatabasesql.Driver](ctx, t, driver(pg), &billing.SettledJobArgs{},
		&rivertest.RequireInsertedOpts{Queue: river.QueueDefault})
}

func TestPgSQL_AddJob_OncePerPayment(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()

	inserted, err := pg.AddJob(ctx, settled("p-4"), nil)
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = pg.AddJob(ctx, settled("p-4"), nil)
	require.NoError(t, err)
	require.False(t, inserted, "same payment id is a duplicate")

	inserted, err = pg.AddJob(ctx, settled("p-5"), nil)
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestBilling_MarkPaidEnqueuesSettlementOnce(t *testing.T) {
	pg := setupTestDB(t)
	ctx := context.Background()
	member := createMember(t, pg, "payer@example.com")

	svc := billing.New(pg, billing.Options{
		Now: func() time.Time { return time.Date(2024, time.February, 1, 12, 0, 0, 0, time.UTC) },
	})
	p, err := svc.CreatePayment(ctx, member.ID, decimal.RequireFromString("12.50"), day(2024, time.January, 1))
	require.NoError(t, err)

	got, err := svc.Payment(ctx, p.ID, time.Time{})
	require.NoError(t, err)
	require.Equal(t, "overdue", string(got.Status))

	for range 3 {
		paid, err := svc.MarkPaid(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, "paid", string(paid.Status))
	}

	job := rivertest.RequireInserted[*riverdatabasesql.Driver](ctx, t, driver(pg), &billing.SettledJobArgs{}, nil)
	require.Equal(t, p.ID.String(), job.Args.PaymentID)
	require.Equal(t, "12.50", job.Args.Amount)

	var jobs int
	require.NoError(t, pg.DB.QueryRowContext(ctx, "SELECT count(*) FROM river_job").Scan(&jobs))
	require.Equal(t, 1, jobs)
}
