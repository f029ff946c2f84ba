package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"duesbook/pkg/domain"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

const (
	paymentsTable = "payments"
	dateLayout    = "2006-01-02"
)

func (p *PgSQL) StorePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	var row PgPayment
	row.FromDomain(payment)

	var result []PgPayment
	if err := p.Builder.Insert(paymentsTable).
		Rows(goqu.Record{
			"member_id": row.MemberID,
			"amount":    row.Amount,
			"due_date":  row.DueDate.Format(dateLayout),
			"status":    row.Status,
			"paid_at":   row.PaidAt,
		}).
		Returning(&PgPayment{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, classify(err, "could not store payment into pg")
	}
	if len(result) != 1 {
		return nil, fmt.Errorf("could not store payment into pg: %d rows returned", len(result))
	}

	return result[0].ToDomain()
}

// PaymentByID locks the row FOR UPDATE when called inside a transaction, so
// concurrent read-then-update sequences on one payment run one at a time.
func (p *PgSQL) PaymentByID(ctx context.Context, id domain.PaymentID) (*domain.Payment, error) {
	query := p.Builder.From(paymentsTable).
		Where(goqu.I("id").Eq(uuid.UUID(id)))
	if _, inTx := p.DB.(*sql.Tx); inTx {
		query = query.ForUpdate(exp.Wait)
	}

	var row PgPayment
	found, err := query.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch payment by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// MarkPaymentPaid flips the status to paid. paid_at and updated_at are only
// written on the first transition so repeated calls leave the row untouched.
func (p *PgSQL) MarkPaymentPaid(ctx context.Context, id domain.PaymentID, paidAt time.Time) (*domain.Payment, error) {
	var row PgPayment
	found, err := p.Builder.Update(paymentsTable).
		Set(goqu.Record{
			"status":     string(domain.PaymentStatusPaid),
			"paid_at":    goqu.Func("COALESCE", goqu.I("paid_at"), paidAt.UTC()),
			"updated_at": goqu.Case().When(goqu.I("paid_at").IsNull(), goqu.L("CURRENT_TIMESTAMP")).Else(goqu.I("updated_at")),
		}).
		Where(goqu.I("id").Eq(uuid.UUID(id))).
		Returning(&PgPayment{}).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not mark payment as paid in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// MemberPayments orders by due_date DESC, created_at DESC.
func (p *PgSQL) MemberPayments(ctx context.Context, memberID domain.MemberID) ([]domain.Payment, error) {
	var rows []PgPayment
	if err := p.Builder.From(paymentsTable).
		Where(goqu.I("member_id").Eq(uuid.UUID(memberID))).
		Order(goqu.I("due_date").Desc(), goqu.I("created_at").Desc()).
		Executor().ScanStructsContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("could not fetch member payments from pg: %w", err)
	}

	return pgPaymentsToDomain(rows)
}

func (p *PgSQL) CountOverduePayments(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := p.Builder.From(paymentsTable).
		Where(
			goqu.I("status").Eq(string(domain.PaymentStatusPending)),
			goqu.I("due_date").Lt(domain.DateOf(asOf).Format(dateLayout)),
		).
		CountContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not count overdue payments in pg: %w", err)
	}

	return count, nil
}
