package billing

import (
	"context"
	"time"

	"duesbook/pkg/domain"

	"github.com/shopspring/decimal"
)

// Service manages payment obligations of members. Read operations return
// payments whose Status is derived for the requested date, so overdue is
// reported but never stored.
//
//go:generate mockgen -package mockbilling -source=interface.go -destination=mock/mockbilling.go *
type Service interface {
	// CreatePayment records a pending payment for an existing member.
	CreatePayment(ctx context.Context,
		memberID domain.MemberID,
		amount decimal.Decimal,
		dueDate time.Time) (*domain.Payment, error)
	// MarkPaid marks a payment as paid. Calling it again is a no-op that
	// returns the already paid payment.
	MarkPaid(ctx context.Context, paymentID domain.PaymentID) (*domain.Payment, error)
	// Payment returns a payment with its status derived as of asOf. A zero
	// asOf means today.
	Payment(ctx context.Context, paymentID domain.PaymentID, asOf time.Time) (*domain.Payment, error)
	// MemberPayments returns a member's payments, newest due date first, with
	// statuses derived as of asOf. A zero asOf means today.
	MemberPayments(ctx context.Context, memberID domain.MemberID, asOf time.Time) ([]domain.Payment, error)
	// DeriveStatus reports the status of payment as of asOf.
	DeriveStatus(payment domain.Payment, asOf time.Time) domain.PaymentStatus
	// Today returns the current calendar date in the billing time zone.
	Today() time.Time
}
