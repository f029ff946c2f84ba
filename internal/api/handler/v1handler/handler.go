// Package v1handler implements the JSON endpoints of the v1 API on top of
// the identity and billing services.
package v1handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"duesbook/internal/billing"
	"duesbook/internal/config"
	"duesbook/internal/identity"
	"duesbook/pkg/controller"
	"duesbook/pkg/domain"
	"duesbook/pkg/logger"
	"duesbook/pkg/serrors"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// DateLayout is the wire format of calendar dates.
const DateLayout = time.DateOnly

// Deps holds the services the handlers call.
type Deps struct {
	Identity identity.Service
	Billing  billing.Service
}

// Options configure the v1 routes.
type Options struct {
	// RegistrationRate limits registrations and credential checks per client
	// per second. Zero disables limiting.
	RegistrationRate float64
	// RegistrationBurst is the burst allowed on top of RegistrationRate.
	RegistrationBurst int
	// TrustProxy keys the limit on forwarding headers instead of the
	// connection's address.
	TrustProxy bool
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		RegistrationRate:  cfg.HTTP.RegistrationRate,
		RegistrationBurst: cfg.HTTP.RegistrationBurst,
		TrustProxy:        cfg.HTTP.TrustProxy,
	}
}

// Handler serves the v1 API.
type Handler struct {
	deps     Deps
	validate *validator.Validate
}

// New returns a Handler calling deps.
func New(deps Deps) *Handler {
	return &Handler{
		deps:     deps,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Routes returns the v1 router. Mount it under /v1.
func (h *Handler) Routes(opts Options) http.Handler {
	r := chi.NewRouter()
	limited := r.With(controller.WithRateLimit(opts.RegistrationRate, opts.RegistrationBurst, opts.TrustProxy))

	limited.Post("/members", h.RegisterMember)
	limited.Post("/credentials/verify", h.VerifyCredentials)

	r.Get("/members/{memberID}", h.GetMember)
	r.Post("/members/{memberID}/payments", h.CreatePayment)
	r.Get("/members/{memberID}/payments", h.ListMemberPayments)
	r.Get("/payments/{paymentID}", h.GetPayment)
	r.Post("/payments/{paymentID}/paid", h.MarkPaid)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		controller.WriteError(w, r, http.StatusNotFound, serrors.ErrNotFound.Error(), "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		controller.WriteError(w, r, http.StatusMethodNotAllowed, serrors.ErrBadRequest.Error(), "method not allowed")
	})

	return r
}

// statusOf maps an error kind to an HTTP status.
func statusOf(kind serrors.Kind) int {
	switch kind {
	case domain.ErrInvalidInput, domain.ErrInvalidCredential, serrors.ErrBadRequest:
		return http.StatusBadRequest
	case domain.ErrInvalidAmount:
		return http.StatusUnprocessableEntity
	case domain.ErrDuplicateMember, serrors.ErrConflict:
		return http.StatusConflict
	case domain.ErrMemberNotFound, domain.ErrPaymentNotFound, serrors.ErrNotFound:
		return http.StatusNotFound
	case serrors.ErrUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrStoreFailure, serrors.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewError writes err as an ErrorBody. Store failures and errors without a
// kind are logged and answered with a generic message.
func (h *Handler) NewError(w http.ResponseWriter, r *http.Request, err error) {
	kind := serrors.KindOf(err)
	if kind == nil {
		kind = serrors.ErrInternal
	}
	status := statusOf(kind)

	msg := serrors.MessageOf(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error(r.Context(), "request failed", zap.Error(err))
		msg = "internal error"
		if status == http.StatusServiceUnavailable {
			msg = "storage is unavailable"
		}
	case msg == "":
		msg = kind.Error()
	}

	controller.WriteError(w, r, status, kind.Error(), msg)
}

// decode reads a JSON body into dst and validates it.
func (h *Handler) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return serrors.Wrap(domain.ErrInvalidInput, err, "malformed request body")
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return serrors.With(domain.ErrInvalidInput, "invalid field %s: %s", verrs[0].Field(), verrs[0].Tag())
		}

		return serrors.Wrap(domain.ErrInvalidInput, err, "invalid request body")
	}

	return nil
}

// asOfParam reads the optional asOf query parameter. Absent means today.
func asOfParam(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("asOf")
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, serrors.Wrap(domain.ErrInvalidInput, err, "asOf must be a date formatted as %s", DateLayout)
	}

	return t, nil
}

func memberIDParam(r *http.Request) (domain.MemberID, error) {
	id, err := domain.ParseMemberID(chi.URLParam(r, "memberID"))
	if err != nil {
		return domain.MemberID{}, serrors.Wrap(domain.ErrInvalidInput, err, "malformed member id")
	}

	return id, nil
}

func paymentIDParam(r *http.Request) (domain.PaymentID, error) {
	id, err := domain.ParsePaymentID(chi.URLParam(r, "paymentID"))
	if err != nil {
		return domain.PaymentID{}, serrors.Wrap(domain.ErrInvalidInput, err, "malformed payment id")
	}

	return id, nil
}
