package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentID uniquely identifies a payment obligation. It is assigned by the store.
type PaymentID uuid.UUID

// String returns the canonical textual form of the id.
func (id PaymentID) String() string { return uuid.UUID(id).String() }

// MarshalText encodes the id in its canonical textual form, so JSON and
// other text encodings see a string rather than a byte array.
func (id PaymentID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *PaymentID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b) //nolint: wrapcheck
}

// ParsePaymentID parses the textual form of a payment id.
func ParsePaymentID(s string) (PaymentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return PaymentID{}, err //nolint: wrapcheck
	}

	return PaymentID(id), nil
}

// PaymentStatus is the state of a payment obligation. Only pending and paid
// are ever stored; overdue is derived at read time.
type PaymentStatus string

const (
	// PaymentStatusPending is the state every payment is created in.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusPaid is terminal.
	PaymentStatusPaid PaymentStatus = "paid"
	// PaymentStatusOverdue is derived when a pending payment is past its due date.
	PaymentStatusOverdue PaymentStatus = "overdue"
)

// Payment is a billing obligation owed by a member.
type Payment struct {
	// ID is assigned by the store.
	ID PaymentID `json:"id"`
	// MemberID references the member owing the payment. It is a lookup, the
	// payment does not own the member.
	MemberID MemberID `json:"memberId"`

	// Amount is the declared positive amount.
	Amount decimal.Decimal `json:"amount"`
	// DueDate is a calendar date held as midnight UTC.
	DueDate time.Time `json:"dueDate"`
	// Status is the stored status: pending or paid.
	Status PaymentStatus `json:"status"`
	// PaidAt is set by the first MarkPaid; zero while pending.
	PaidAt time.Time `json:"paidAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPayment builds a pending payment for a member. dueDate is truncated to
// its calendar date.
func NewPayment(memberID MemberID, amount decimal.Decimal, dueDate time.Time) Payment {
	return Payment{
		MemberID: memberID,
		Amount:   amount,
		DueDate:  DateOf(dueDate),
		Status:   PaymentStatusPending,
	}
}

// IsPaid reports whether the payment has been explicitly marked paid.
func (p Payment) IsPaid() bool { return p.Status == PaymentStatusPaid }

// MarkPaid returns a copy of p in the paid state. Marking an already paid
// payment returns it unchanged so the original PaidAt is kept.
func (p Payment) MarkPaid(at time.Time) Payment {
	if p.IsPaid() {
		return p
	}

	p.Status = PaymentStatusPaid
	p.PaidAt = at.UTC()

	return p
}

// DeriveStatus computes the status of p as seen on asOf. Paid wins over any
// date; otherwise a payment whose due date lies strictly before asOf's
// calendar date is overdue.
func DeriveStatus(p Payment, asOf time.Time) PaymentStatus {
	if p.IsPaid() {
		return PaymentStatusPaid
	}
	if DateOf(asOf).After(DateOf(p.DueDate)) {
		return PaymentStatusOverdue
	}

	return PaymentStatusPending
}

// DateOf returns the calendar date of t, in t's own location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
