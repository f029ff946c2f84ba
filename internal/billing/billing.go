package billing

import (
	"context"
	"errors"
	"time"

	"duesbook/internal/config"
	"duesbook/pkg/domain"
	"duesbook/pkg/logger"
	"duesbook/pkg/serrors"
	"duesbook/pkg/storage"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "duesbook/internal/billing"

// maxAmount is the first value that no longer fits NUMERIC(12,2).
var maxAmount = decimal.New(1, 10) //nolint: gochecknoglobals

// Options configure the payment lifecycle.
type Options struct {
	// Location is the time zone whose calendar decides what "today" is.
	Location *time.Location
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// SettledJobMaxAttempts bounds retries of the payment-settled job.
	SettledJobMaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) (Options, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Options{}, err
	}

	return Options{
		Location:              loc,
		Now:                   time.Now,
		SettledJobMaxAttempts: cfg.Billing.SettledJobMaxAttempts,
	}, nil
}

type billing struct {
	options Options
	storage storage.Storage

	tracer  trace.Tracer
	created metric.Int64Counter
	paid    metric.Int64Counter
}

// CreatePayment implements Service.
func (s *billing) CreatePayment(ctx context.Context,
	memberID domain.MemberID,
	amount decimal.Decimal,
	dueDate time.Time) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "billing.CreatePayment",
		trace.WithAttributes(attribute.String("member.id", memberID.String())))
	defer span.End()

	if err := checkAmount(amount); err != nil {
		recordError(span, err)

		return nil, err
	}
	if dueDate.IsZero() {
		err := serrors.With(domain.ErrInvalidInput, "due date is required")
		recordError(span, err)

		return nil, err
	}

	var payment *domain.Payment
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		member, err := tx.MemberByID(ctx, memberID)
		if err != nil {
			return domain.AsStoreFailure(err, "could not look up member")
		}
		if member == nil {
			return serrors.With(domain.ErrMemberNotFound, "member not found")
		}

		payment, err = tx.StorePayment(ctx, domain.NewPayment(memberID, amount, dueDate))
		if errors.Is(err, storage.ErrMissingReference) {
			return serrors.Wrap(domain.ErrMemberNotFound, err, "member not found")
		}
		if err != nil {
			return domain.AsStoreFailure(err, "could not store payment")
		}

		return nil
	}); err != nil {
		err = domain.AsStoreFailure(err, "could not create payment")
		recordError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String("payment.id", payment.ID.String()))
	s.created.Add(ctx, 1)
	logger.Info(ctx, "payment created",
		zap.String("payment_id", payment.ID.String()),
		zap.String("member_id", memberID.String()),
		zap.Time("due_date", payment.DueDate))

	return payment, nil
}

// MarkPaid implements Service.
func (s *billing) MarkPaid(ctx context.Context, paymentID domain.PaymentID) (*domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "billing.MarkPaid",
		trace.WithAttributes(attribute.String("payment.id", paymentID.String())))
	defer span.End()

	var (
		payment    *domain.Payment
		transition bool
	)
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		current, err := tx.PaymentByID(ctx, paymentID)
		if err != nil {
			return domain.AsStoreFailure(err, "could not look up payment")
		}
		if current == nil {
			return serrors.With(domain.ErrPaymentNotFound, "payment not found")
		}
		if current.IsPaid() {
			payment = current

			return nil
		}

		next := current.MarkPaid(s.options.Now())
		payment, err = tx.MarkPaymentPaid(ctx, paymentID, next.PaidAt)
		if err != nil {
			return domain.AsStoreFailure(err, "could not mark payment as paid")
		}
		if payment == nil {
			return serrors.With(domain.ErrPaymentNotFound, "payment not found")
		}

		if _, err := tx.AddJob(ctx, SettledJobArgs{
			PaymentID:   payment.ID.String(),
			MemberID:    payment.MemberID.String(),
			Amount:      payment.Amount.StringFixed(2),
			maxAttempts: s.options.SettledJobMaxAttempts,
		}, nil); err != nil {
			return domain.AsStoreFailure(err, "could not enqueue settlement job")
		}
		transition = true

		return nil
	}); err != nil {
		err = domain.AsStoreFailure(err, "could not mark payment as paid")
		recordError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.Bool("payment.transitioned", transition))
	if transition {
		s.paid.Add(ctx, 1)
		logger.Info(ctx, "payment marked as paid", zap.String("payment_id", paymentID.String()))
	} else {
		logger.Debug(ctx, "payment already paid", zap.String("payment_id", paymentID.String()))
	}

	return payment, nil
}

// Payment implements Service.
func (s *billing) Payment(ctx context.Context, paymentID domain.PaymentID, asOf time.Time) (*domain.Payment, error) {
	p, err := s.storage.PaymentByID(ctx, paymentID)
	if err != nil {
		return nil, domain.AsStoreFailure(err, "could not get payment")
	}
	if p == nil {
		return nil, serrors.With(domain.ErrPaymentNotFound, "payment not found")
	}

	p.Status = s.DeriveStatus(*p, s.asOf(asOf))

	return p, nil
}

// MemberPayments implements Service.
func (s *billing) MemberPayments(ctx context.Context,
	memberID domain.MemberID,
	asOf time.Time) ([]domain.Payment, error) {
	member, err := s.storage.MemberByID(ctx, memberID)
	if err != nil {
		return nil, domain.AsStoreFailure(err, "could not look up member")
	}
	if member == nil {
		return nil, serrors.With(domain.ErrMemberNotFound, "member not found")
	}

	payments, err := s.storage.MemberPayments(ctx, memberID)
	if err != nil {
		return nil, domain.AsStoreFailure(err, "could not get member payments")
	}

	asOf = s.asOf(asOf)
	for i := range payments {
		payments[i].Status = s.DeriveStatus(payments[i], asOf)
	}

	return payments, nil
}

// DeriveStatus implements Service.
func (s *billing) DeriveStatus(payment domain.Payment, asOf time.Time) domain.PaymentStatus {
	return domain.DeriveStatus(payment, asOf)
}

// Today implements Service.
func (s *billing) Today() time.Time {
	return domain.DateOf(s.options.Now().In(s.options.Location))
}

// asOf keeps an explicit date as given and falls back to today.
func (s *billing) asOf(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.Today()
	}

	return asOf
}

func checkAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return serrors.With(domain.ErrInvalidAmount, "amount must be greater than zero")
	case !amount.Equal(amount.Truncate(2)):
		return serrors.With(domain.ErrInvalidAmount, "amount must have at most two decimal places")
	case amount.GreaterThanOrEqual(maxAmount):
		return serrors.With(domain.ErrInvalidAmount, "amount is too large")
	}

	return nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// New creates a billing Service backed by the provided storage.
func New(storage storage.Storage, options Options) Service {
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	meter := otel.Meter(instrumentationName)
	created, err := meter.Int64Counter("duesbook_payments_created",
		metric.WithDescription("Payments recorded."))
	if err != nil {
		created = noop.Int64Counter{}
	}
	paid, err := meter.Int64Counter("duesbook_payments_marked_paid",
		metric.WithDescription("Payments transitioned to paid."))
	if err != nil {
		paid = noop.Int64Counter{}
	}

	return &billing{
		options: options,
		storage: storage,
		tracer:  otel.Tracer(instrumentationName),
		created: created,
		paid:    paid,
	}
}
