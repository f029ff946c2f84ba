package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"duesbook/pkg/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPending(due time.Time) domain.Payment {
	return domain.NewPayment(domain.MemberID(uuid.New()), decimal.RequireFromString("49.90"), due)
}

func TestNewPayment(t *testing.T) {
	memberID := domain.MemberID(uuid.New())
	due := time.Date(2024, time.March, 5, 17, 30, 0, 0, time.UTC)

	p := domain.NewPayment(memberID, decimal.RequireFromString("10"), due)
	require.Equal(t, domain.PaymentStatusPending, p.Status)
	require.Equal(t, memberID, p.MemberID)
	require.Equal(t, date(2024, time.March, 5), p.DueDate)
	require.True(t, p.PaidAt.IsZero())
}

func TestDeriveStatus_PendingAndOverdue(t *testing.T) {
	p := newPending(date(2024, time.January, 1))

	require.Equal(t, domain.PaymentStatusOverdue, domain.DeriveStatus(p, date(2024, time.February, 1)))
	require.Equal(t, domain.PaymentStatusPending, domain.DeriveStatus(p, date(2023, time.December, 1)))
}

func TestDeriveStatus_DueDateItselfIsPending(t *testing.T) {
	p := newPending(date(2024, time.January, 1))

	lateThatDay := time.Date(2024, time.January, 1, 23, 59, 59, 0, time.UTC)
	require.Equal(t, domain.PaymentStatusPending, domain.DeriveStatus(p, lateThatDay))
	require.Equal(t, domain.PaymentStatusOverdue, domain.DeriveStatus(p, date(2024, time.January, 2)))
}

func TestDeriveStatus_UsesCalendarDateOfAsOfLocation(t *testing.T) {
	p := newPending(date(2024, time.January, 1))
	tokyo := time.FixedZone("JST", 9*60*60)

	// 2024-01-01 20:00 UTC is already 2024-01-02 in Tokyo
	asOf := time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC).In(tokyo)
	require.Equal(t, domain.PaymentStatusOverdue, domain.DeriveStatus(p, asOf))
}

func TestDeriveStatus_PaidIgnoresDates(t *testing.T) {
	p := newPending(date(2024, time.January, 1)).MarkPaid(time.Now())

	for _, asOf := range []time.Time{
		date(2020, time.January, 1),
		date(2024, time.January, 1),
		date(2030, time.January, 1),
	} {
		require.Equal(t, domain.PaymentStatusPaid, domain.DeriveStatus(p, asOf))
	}
}

func TestMarkPaid_ReturnsNewValue(t *testing.T) {
	orig := newPending(date(2024, time.January, 1))
	at := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

	paid := orig.MarkPaid(at)
	require.Equal(t, domain.PaymentStatusPending, orig.Status, "original must not be mutated")
	require.True(t, orig.PaidAt.IsZero())
	require.Equal(t, domain.PaymentStatusPaid, paid.Status)
	require.Equal(t, at, paid.PaidAt)
}

func TestMarkPaid_Idempotent(t *testing.T) {
	first := time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)
	paid := newPending(date(2024, time.January, 1)).MarkPaid(first)

	again := paid.MarkPaid(first.Add(48 * time.Hour))
	require.Equal(t, paid, again)
	require.Equal(t, first, again.PaidAt)
}

func TestParseIDs(t *testing.T) {
	raw := uuid.New()

	mid, err := domain.ParseMemberID(raw.String())
	require.NoError(t, err)
	require.Equal(t, raw.String(), mid.String())
	require.False(t, mid.IsZero())

	pid, err := domain.ParsePaymentID(raw.String())
	require.NoError(t, err)
	require.Equal(t, raw.String(), pid.String())

	_, err = domain.ParseMemberID("nope")
	require.Error(t, err)
	_, err = domain.ParsePaymentID("nope")
	require.Error(t, err)
}

func TestNewMember(t *testing.T) {
	m := domain.NewMember("Ada", "ada@example.com", "$argon2id$...")
	require.Equal(t, domain.MemberStatusActive, m.Status)
	require.True(t, m.IsActive())
	require.True(t, m.ID.IsZero())
}

func TestIDs_EncodeAsText(t *testing.T) {
	p := newPending(date(2024, time.January, 1))
	p.ID = domain.PaymentID(uuid.New())

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	require.Equal(t, p.ID.String(), fields["id"])
	require.Equal(t, p.MemberID.String(), fields["memberId"])

	var back domain.Payment
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, p.ID, back.ID)
	require.Equal(t, p.MemberID, back.MemberID)

	var m domain.MemberID
	require.Error(t, m.UnmarshalText([]byte("not-a-uuid")))
}
