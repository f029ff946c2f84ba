package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"duesbook/pkg/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PgMember struct {
	ID uuid.UUID `db:"id" goqu:"skipinsert"`

	Name           string `db:"name"`
	Email          string `db:"email"`
	CredentialHash string `db:"credential_hash"`
	Status         string `db:"status"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
}

func (p *PgMember) ToDomain() *domain.Member {
	return &domain.Member{
		ID:             domain.MemberID(p.ID),
		Name:           p.Name,
		Email:          p.Email,
		CredentialHash: p.CredentialHash,
		Status:         domain.MemberStatus(p.Status),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt.Time,
	}
}

func (p *PgMember) FromDomain(member domain.Member) {
	status := member.Status
	if status == "" {
		status = domain.MemberStatusActive
	}

	*p = PgMember{
		ID:             uuid.UUID(member.ID),
		Name:           member.Name,
		Email:          member.Email,
		CredentialHash: member.CredentialHash,
		Status:         string(status),
	}
}

// PgPayment keeps the amount in its textual NUMERIC form so no precision is
// lost between the driver and decimal.Decimal.
type PgPayment struct {
	ID       uuid.UUID `db:"id"        goqu:"skipinsert"`
	MemberID uuid.UUID `db:"member_id"`

	Amount  string       `db:"amount"`
	DueDate time.Time    `db:"due_date"`
	Status  string       `db:"status"`
	PaidAt  sql.NullTime `db:"paid_at"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
}

func (p *PgPayment) ToDomain() (*domain.Payment, error) {
	amount, err := decimal.NewFromString(p.Amount)
	if err != nil {
		return nil, fmt.Errorf("could not parse payment amount %q: %w", p.Amount, err)
	}

	return &domain.Payment{
		ID:        domain.PaymentID(p.ID),
		MemberID:  domain.MemberID(p.MemberID),
		Amount:    amount,
		DueDate:   domain.DateOf(p.DueDate),
		Status:    domain.PaymentStatus(p.Status),
		PaidAt:    p.PaidAt.Time,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt.Time,
	}, nil
}

func (p *PgPayment) FromDomain(payment domain.Payment) {
	status := payment.Status
	if status == "" {
		status = domain.PaymentStatusPending
	}

	*p = PgPayment{
		ID:       uuid.UUID(payment.ID),
		MemberID: uuid.UUID(payment.MemberID),
		Amount:   payment.Amount.StringFixed(2),
		DueDate:  domain.DateOf(payment.DueDate),
		Status:   string(status),
		PaidAt: sql.NullTime{
			Time:  payment.PaidAt,
			Valid: !payment.PaidAt.IsZero(),
		},
	}
}

func pgPaymentsToDomain(payments []PgPayment) ([]domain.Payment, error) {
	out := make([]domain.Payment, 0, len(payments))
	for _, payment := range payments {
		d, err := payment.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}
