package storage

import (
	"context"
	"time"

	"duesbook/pkg/domain"
)

// PaymentStorage persists payments. Only pending and paid are ever stored;
// overdue is derived by readers.
type PaymentStorage interface {
	// StorePayment inserts a payment and returns the stored row. A member id
	// that does not exist yields ErrMissingReference.
	StorePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error)
	// PaymentByID returns the payment with the given ID, or nil. Inside a
	// transaction the row stays locked until commit or rollback.
	PaymentByID(ctx context.Context, ID domain.PaymentID) (*domain.Payment, error)
	// MarkPaymentPaid sets the payment's status to paid. The paid_at of the
	// first call is kept. Returns the updated row, or nil when the payment
	// does not exist.
	MarkPaymentPaid(ctx context.Context, ID domain.PaymentID, paidAt time.Time) (*domain.Payment, error)
	// MemberPayments returns all payments of a member, newest due date first.
	MemberPayments(ctx context.Context, memberID domain.MemberID) ([]domain.Payment, error)
	// CountOverduePayments counts unpaid payments whose due date is strictly
	// before the calendar date of asOf.
	CountOverduePayments(ctx context.Context, asOf time.Time) (int64, error)
}
