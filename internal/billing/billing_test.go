package billing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"duesbook/internal/billing"
	"duesbook/pkg/domain"
	"duesbook/pkg/storage"
	mockstorage "duesbook/pkg/storage/mock"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	fixedNow = time.Date(2024, time.February, 1, 9, 30, 0, 0, time.UTC)
	memberID = domain.MemberID(uuid.MustParse("7f1d2c1e-5a43-4a8e-9d35-0c6f6f3b9a10"))
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestBilling(t *testing.T) (*gomock.Controller, *mockstorage.MockStorage, billing.Service) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mockstorage.NewMockStorage(ctrl)
	s := billing.New(st, billing.Options{
		Location:              time.UTC,
		Now:                   func() time.Time { return fixedNow },
		SettledJobMaxAttempts: 3,
	})

	return ctrl, st, s
}

// helper to wire Storage.WithTx to execute callback with a MockAllStorage.
func expectWithTx(
	t *testing.T,
	ctrl *gomock.Controller,
	m *mockstorage.MockStorage,
	fn func(tx *mockstorage.MockAllStorage)) {
	t.Helper()

	m.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cb func(storage.AllStorage) error) error {
			tx := mockstorage.NewMockAllStorage(ctrl)
			if fn != nil {
				fn(tx)
			}

			return cb(tx)
		},
	)
}

func existingMember() *domain.Member {
	m := domain.NewMember("Ada", "ada@example.com", "$argon2id$stub")
	m.ID = memberID

	return &m
}

func storedPayment(due time.Time) domain.Payment {
	p := domain.NewPayment(memberID, decimal.RequireFromString("49.90"), due)
	p.ID = domain.PaymentID(uuid.New())

	return p
}

func TestBilling_CreatePayment_Success(t *testing.T) {
	ctrl, st, s := newTestBilling(t)

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().MemberByID(gomock.Any(), memberID).Return(existingMember(), nil)
		tx.EXPECT().StorePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p domain.Payment) (*domain.Payment, error) {
				require.Equal(t, domain.PaymentStatusPending, p.Status)
				require.Equal(t, date(2024, time.March, 1), p.DueDate)
				p.ID = domain.PaymentID(uuid.New())

				return &p, nil
			},
		)
	})

	p, err := s.CreatePayment(context.Background(), memberID, decimal.RequireFromString("49.90"),
		time.Date(2024, time.March, 1, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, p.Status)
	require.Equal(t, memberID, p.MemberID)
	require.True(t, decimal.RequireFromString("49.90").Equal(p.Amount))
}

func TestBilling_CreatePayment_InvalidAmount(t *testing.T) {
	for _, amount := range []string{"0", "-1", "-0.01", "10.001", "10000000000"} {
		t.Run(amount, func(t *testing.T) {
			// no storage expectations: nothing may be persisted
			_, _, s := newTestBilling(t)

			_, err := s.CreatePayment(context.Background(), memberID, decimal.RequireFromString(amount), date(2024, time.March, 1))
			require.ErrorIs(t, err, domain.ErrInvalidAmount)
		})
	}
}

func TestBilling_CreatePayment_MissingDueDate(t *testing.T) {
	_, _, s := newTestBilling(t)

	_, err := s.CreatePayment(context.Background(), memberID, decimal.NewFromInt(10), time.Time{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBilling_CreatePayment_MemberNotFound(t *testing.T) {
	ctrl, st, s := newTestBilling(t)

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().MemberByID(gomock.Any(), memberID).Return(nil, nil)
		// StorePayment must not be called
	})

	_, err := s.CreatePayment(context.Background(), memberID, decimal.NewFromInt(10), date(2024, time.March, 1))
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestBilling_CreatePayment_MemberVanishedConcurrently(t *testing.T) {
	ctrl, st, s := newTestBilling(t)

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().MemberByID(gomock.Any(), memberID).Return(existingMember(), nil)
		tx.EXPECT().StorePayment(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("could not store payment into pg: %w", storage.ErrMissingReference))
	})

	_, err := s.CreatePayment(context.Background(), memberID, decimal.NewFromInt(10), date(2024, time.March, 1))
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestBilling_CreatePayment_StoreFailure(t *testing.T) {
	ctrl, st, s := newTestBilling(t)
	boom := errors.New("disk full")

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().MemberByID(gomock.Any(), memberID).Return(existingMember(), nil)
		tx.EXPECT().StorePayment(gomock.Any(), gomock.Any()).Return(nil, boom)
	})

	_, err := s.CreatePayment(context.Background(), memberID, decimal.NewFromInt(10), date(2024, time.March, 1))
	require.ErrorIs(t, err, domain.ErrStoreFailure)
	require.ErrorIs(t, err, boom)
}

func TestBilling_MarkPaid_FirstTransitionEnqueuesJob(t *testing.T) {
	ctrl, st, s := newTestBilling(t)
	p := storedPayment(date(2024, time.January, 1))

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().PaymentByID(gomock.Any(), p.ID).Return(&p, nil)
		tx.EXPECT().MarkPaymentPaid(gomock.Any(), p.ID, fixedNow).DoAndReturn(
			func(_ context.Context, _ domain.PaymentID, at time.Time) (*domain.Payment, error) {
				paid := p.MarkPaid(at)

				return &paid, nil
			},
		)
		tx.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).DoAndReturn(
			func(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (bool, error) {
				settled, ok := args.(billing.SettledJobArgs)
				require.True(t, ok)
				require.Equal(t, p.ID.String(), settled.PaymentID)
				require.Equal(t, memberID.String(), settled.MemberID)
				require.Equal(t, "49.90", settled.Amount)
				require.Equal(t, 3, settled.InsertOpts().MaxAttempts)
				require.True(t, settled.InsertOpts().UniqueOpts.ByArgs)

				return true, nil
			},
		)
	})

	paid, err := s.MarkPaid(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, paid.Status)
	require.Equal(t, fixedNow, paid.PaidAt)
	require.Equal(t, domain.PaymentStatusPending, p.Status, "caller's value is not mutated")
}

func TestBilling_MarkPaid_Idempotent(t *testing.T) {
	ctrl, st, s := newTestBilling(t)
	firstPaidAt := date(2024, time.January, 5)
	p := storedPayment(date(2024, time.January, 1)).MarkPaid(firstPaidAt)

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().PaymentByID(gomock.Any(), p.ID).Return(&p, nil)
		// no update, no job
	})

	again, err := s.MarkPaid(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, again.Status)
	require.Equal(t, firstPaidAt, again.PaidAt)
}

func TestBilling_MarkPaid_NotFound(t *testing.T) {
	ctrl, st, s := newTestBilling(t)
	id := domain.PaymentID(uuid.New())

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().PaymentByID(gomock.Any(), id).Return(nil, nil)
	})

	_, err := s.MarkPaid(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func TestBilling_MarkPaid_JobFailureRollsBack(t *testing.T) {
	ctrl, st, s := newTestBilling(t)
	p := storedPayment(date(2024, time.January, 1))

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().PaymentByID(gomock.Any(), p.ID).Return(&p, nil)
		tx.EXPECT().MarkPaymentPaid(gomock.Any(), p.ID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ domain.PaymentID, at time.Time) (*domain.Payment, error) {
				paid := p.MarkPaid(at)

				return &paid, nil
			},
		)
		tx.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).Return(false, errors.New("queue table missing"))
	})

	_, err := s.MarkPaid(context.Background(), p.ID)
	require.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestBilling_Payment_DerivesStatus(t *testing.T) {
	_, st, s := newTestBilling(t)
	p := storedPayment(date(2024, time.January, 1))
	st.EXPECT().PaymentByID(gomock.Any(), p.ID).Return(&p, nil).Times(3)

	// today (fixedNow) is 2024-02-01
	got, err := s.Payment(context.Background(), p.ID, time.Time{})
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusOverdue, got.Status)

	got, err = s.Payment(context.Background(), p.ID, date(2023, time.December, 1))
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, got.Status)

	got, err = s.Payment(context.Background(), p.ID, date(2024, time.January, 1))
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, got.Status, "due today is not overdue")
}

func TestBilling_Payment_NotFoundAndStoreFailure(t *testing.T) {
	_, st, s := newTestBilling(t)
	missing := domain.PaymentID(uuid.New())
	broken := domain.PaymentID(uuid.New())
	st.EXPECT().PaymentByID(gomock.Any(), missing).Return(nil, nil)
	st.EXPECT().PaymentByID(gomock.Any(), broken).Return(nil, errors.New("boom"))

	_, err := s.Payment(context.Background(), missing, time.Time{})
	require.ErrorIs(t, err, domain.ErrPaymentNotFound)

	_, err = s.Payment(context.Background(), broken, time.Time{})
	require.ErrorIs(t, err, domain.ErrStoreFailure)
}

func TestBilling_MemberPayments(t *testing.T) {
	_, st, s := newTestBilling(t)

	paid := storedPayment(date(2023, time.December, 1)).MarkPaid(date(2023, time.December, 2))
	list := []domain.Payment{
		storedPayment(date(2024, time.March, 1)),
		storedPayment(date(2024, time.January, 1)),
		paid,
	}
	st.EXPECT().MemberByID(gomock.Any(), memberID).Return(existingMember(), nil)
	st.EXPECT().MemberPayments(gomock.Any(), memberID).Return(list, nil)

	got, err := s.MemberPayments(context.Background(), memberID, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, domain.PaymentStatusPending, got[0].Status)
	require.Equal(t, domain.PaymentStatusOverdue, got[1].Status)
	require.Equal(t, domain.PaymentStatusPaid, got[2].Status)
}

func TestBilling_MemberPayments_UnknownMember(t *testing.T) {
	_, st, s := newTestBilling(t)
	st.EXPECT().MemberByID(gomock.Any(), memberID).Return(nil, nil)

	_, err := s.MemberPayments(context.Background(), memberID, time.Time{})
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
}

func TestBilling_TodayUsesLocation(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-01-31 20:00 UTC is already February 1st in Tokyo
	s := billing.New(mockstorage.NewMockStorage(ctrl), billing.Options{
		Location: tokyo,
		Now:      func() time.Time { return time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC) },
	})

	require.Equal(t, date(2024, time.February, 1), s.Today())

	p := storedPayment(date(2024, time.January, 31))
	require.Equal(t, domain.PaymentStatusOverdue, s.DeriveStatus(p, s.Today()))
}

func TestBilling_DeriveStatus_PaidIsTerminal(t *testing.T) {
	_, _, s := newTestBilling(t)
	p := storedPayment(date(2024, time.January, 1)).MarkPaid(fixedNow)

	for _, asOf := range []time.Time{date(2000, time.January, 1), date(2024, time.January, 2), date(2100, time.January, 1)} {
		require.Equal(t, domain.PaymentStatusPaid, s.DeriveStatus(p, asOf))
	}
}
