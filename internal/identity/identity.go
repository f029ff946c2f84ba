package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"duesbook/internal/config"
	"duesbook/pkg/credential"
	"duesbook/pkg/domain"
	"duesbook/pkg/logger"
	"duesbook/pkg/serrors"
	"duesbook/pkg/storage"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "duesbook/internal/identity"

// Options configure registration and verification.
type Options struct {
	// Policy is the minimum strength a secret must meet at registration.
	Policy credential.Policy
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Policy: credential.Policy{
			MinLength:      cfg.Credential.MinLength,
			MaxLength:      cfg.Credential.MaxLength,
			RejectVeryWeak: cfg.Credential.RejectVeryWeak,
		},
	}
}

type registration struct {
	Name  string `validate:"required,max=200"`
	Email string `validate:"required,max=254,email"`
}

type identity struct {
	options  Options
	storage  storage.Storage
	hasher   credential.Hasher
	validate *validator.Validate

	tracer     trace.Tracer
	registered metric.Int64Counter
	verified   metric.Int64Counter

	// decoyHash is verified against when an email is unknown so the response
	// time does not reveal whether the member exists.
	decoyMu   sync.Mutex
	decoyHash string
}

// RegisterMember implements Service.
func (s *identity) RegisterMember(ctx context.Context, name, email, secret string) (*domain.Member, error) {
	ctx, span := s.tracer.Start(ctx, "identity.RegisterMember")
	defer span.End()

	member, err := s.register(ctx, name, email, secret)
	if err != nil {
		recordError(span, err)
		s.registered.Add(ctx, 1, metric.WithAttributes(outcome(err)))

		return nil, err
	}

	span.SetAttributes(attribute.String("member.id", member.ID.String()))
	s.registered.Add(ctx, 1, metric.WithAttributes(outcome(nil)))
	logger.Info(ctx, "member registered", zap.String("member_id", member.ID.String()))

	return member, nil
}

func (s *identity) register(ctx context.Context, name, email, secret string) (*domain.Member, error) {
	input := registration{
		Name:  NormalizeName(name),
		Email: NormalizeEmail(email),
	}
	if err := s.validate.StructCtx(ctx, input); err != nil {
		return nil, invalidInput(err)
	}
	if err := s.options.Policy.Check(secret); err != nil {
		return nil, err
	}

	// hash before opening the transaction
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		if serrors.KindOf(err) != nil {
			return nil, err
		}

		return nil, fmt.Errorf("could not hash credential: %w", err)
	}

	var member *domain.Member
	if err := s.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		existing, err := tx.MemberByEmail(ctx, input.Email)
		if err != nil {
			return domain.AsStoreFailure(err, "could not look up member by email")
		}
		if existing != nil {
			return serrors.With(domain.ErrDuplicateMember, "a member with this email already exists")
		}

		member, err = tx.StoreMember(ctx, domain.NewMember(input.Name, input.Email, hash))
		if errors.Is(err, storage.ErrDuplicate) {
			return serrors.Wrap(domain.ErrDuplicateMember, err, "a member with this email already exists")
		}
		if err != nil {
			return domain.AsStoreFailure(err, "could not store member")
		}

		return nil
	}); err != nil {
		return nil, domain.AsStoreFailure(err, "could not register member")
	}

	return member, nil
}

// Member implements Service.
func (s *identity) Member(ctx context.Context, id domain.MemberID) (*domain.Member, error) {
	m, err := s.storage.MemberByID(ctx, id)
	if err != nil {
		return nil, domain.AsStoreFailure(err, "could not get member")
	}
	if m == nil {
		return nil, serrors.With(domain.ErrMemberNotFound, "member not found")
	}

	return m, nil
}

// VerifyCredentials implements Service.
func (s *identity) VerifyCredentials(ctx context.Context, email, secret string) (*domain.Member, error) {
	ctx, span := s.tracer.Start(ctx, "identity.VerifyCredentials")
	defer span.End()

	member, err := s.verify(ctx, NormalizeEmail(email), secret)
	s.verified.Add(ctx, 1, metric.WithAttributes(outcome(err)))
	if err != nil {
		recordError(span, err)

		return nil, err
	}
	span.SetAttributes(attribute.String("member.id", member.ID.String()))

	return member, nil
}

func (s *identity) verify(ctx context.Context, email, secret string) (*domain.Member, error) {
	mismatch := serrors.With(domain.ErrInvalidCredential, "invalid email or password")
	if email == "" || strings.TrimSpace(secret) == "" {
		return nil, mismatch
	}

	m, err := s.storage.MemberByEmail(ctx, email)
	if err != nil {
		return nil, domain.AsStoreFailure(err, "could not look up member by email")
	}
	if m == nil {
		_, _ = s.hasher.Verify(secret, s.decoy(ctx))

		return nil, mismatch
	}

	ok, err := s.hasher.Verify(secret, m.CredentialHash)
	if err != nil {
		logger.Error(ctx, "stored credential hash is unreadable",
			zap.String("member_id", m.ID.String()), zap.Error(err))

		return nil, mismatch
	}
	if !ok {
		return nil, mismatch
	}
	if !m.IsActive() {
		logger.Info(ctx, "credential check for inactive member", zap.String("member_id", m.ID.String()))

		return nil, mismatch
	}

	return m, nil
}

// fallbackDecoy is a well-formed hash of nothing in particular, used until
// a decoy made with the configured cost is available.
const fallbackDecoy = "$argon2id$v=19$m=65536,t=3,p=2$c29tZXNhbHRzb21lc2FsdA$dW5rbm93bi1tZW1iZXItZGVjb3kta2V5LTAwMDAwMDA"

// decoy returns a hash made with the configured cost. A failed attempt is
// retried on the next call.
func (s *identity) decoy(ctx context.Context) string {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()

	if s.decoyHash == "" {
		h, err := s.hasher.Hash("decoy secret for unknown members")
		if err != nil {
			logger.Warn(ctx, "could not create decoy hash", zap.Error(err))

			return fallbackDecoy
		}
		s.decoyHash = h
	}

	return s.decoyHash
}

func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := strings.ToLower(verrs[0].Field())
		switch verrs[0].Tag() {
		case "required":
			return serrors.Wrap(domain.ErrInvalidInput, err, "%s is required", field)
		case "email":
			return serrors.Wrap(domain.ErrInvalidInput, err, "%s is not a valid email address", field)
		case "max":
			return serrors.Wrap(domain.ErrInvalidInput, err, "%s must be at most %s characters", field, verrs[0].Param())
		}

		return serrors.Wrap(domain.ErrInvalidInput, err, "%s is invalid", field)
	}

	return serrors.Wrap(domain.ErrInvalidInput, err, "invalid input")
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func outcome(err error) attribute.KeyValue {
	if err == nil {
		return attribute.String("outcome", "ok")
	}
	if k := serrors.KindOf(err); k != nil {
		return attribute.String("outcome", k.Error())
	}

	return attribute.String("outcome", "error")
}

// New creates an identity Service backed by the provided storage and hasher.
func New(storage storage.Storage, hasher credential.Hasher, options Options) Service {
	meter := otel.Meter(instrumentationName)

	registered, err := meter.Int64Counter("duesbook_member_registrations",
		metric.WithDescription("Member registration attempts by outcome."))
	if err != nil {
		registered = noop.Int64Counter{}
	}
	verified, err := meter.Int64Counter("duesbook_credential_verifications",
		metric.WithDescription("Credential verification attempts by outcome."))
	if err != nil {
		verified = noop.Int64Counter{}
	}

	return &identity{
		options:    options,
		storage:    storage,
		hasher:     hasher,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		tracer:     otel.Tracer(instrumentationName),
		registered: registered,
		verified:   verified,
	}
}
