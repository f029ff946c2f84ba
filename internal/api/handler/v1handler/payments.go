package v1handler

import (
	"net/http"
	"time"

	"duesbook/pkg/controller"
	"duesbook/pkg/domain"
	"duesbook/pkg/serrors"

	"github.com/shopspring/decimal"
)

// PaymentView is the public representation of a payment. Status is derived
// for the requested date.
type PaymentView struct {
	ID        string     `json:"id"`
	MemberID  string     `json:"memberId"`
	Amount    string     `json:"amount"`
	DueDate   string     `json:"dueDate"`
	Status    string     `json:"status"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PaymentList wraps a member's payments.
type PaymentList struct {
	Items []PaymentView `json:"items"`
}

// DomainPaymentToView converts a domain payment.
func DomainPaymentToView(p *domain.Payment) PaymentView {
	v := PaymentView{
		ID:        p.ID.String(),
		MemberID:  p.MemberID.String(),
		Amount:    p.Amount.StringFixed(2),
		DueDate:   p.DueDate.Format(DateLayout),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
	if !p.PaidAt.IsZero() {
		paidAt := p.PaidAt
		v.PaidAt = &paidAt
	}

	return v
}

type createPaymentRequest struct {
	Amount  string `json:"amount"  validate:"required,numeric"`
	DueDate string `json:"dueDate" validate:"required,datetime=2006-01-02"`
}

// CreatePayment handles POST /members/{memberID}/payments.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	var req createPaymentRequest
	if err := h.decode(r, &req); err != nil {
		h.NewError(w, r, err)

		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.NewError(w, r, serrors.Wrap(domain.ErrInvalidAmount, err, "amount is not a decimal number"))

		return
	}
	dueDate, err := time.Parse(DateLayout, req.DueDate)
	if err != nil {
		h.NewError(w, r, serrors.Wrap(domain.ErrInvalidInput, err, "dueDate must be formatted as %s", DateLayout))

		return
	}

	p, err := h.deps.Billing.CreatePayment(r.Context(), memberID, amount, dueDate)
	if err != nil {
		h.NewError(w, r, err)

		return
	}
	p.Status = h.deps.Billing.DeriveStatus(*p, h.deps.Billing.Today())

	w.Header().Set("Location", "/v1/payments/"+p.ID.String())
	controller.WriteJSON(w, r, http.StatusCreated, DomainPaymentToView(p))
}

// ListMemberPayments handles GET /members/{memberID}/payments.
func (h *Handler) ListMemberPayments(w http.ResponseWriter, r *http.Request) {
	memberID, err := memberIDParam(r)
	if err != nil {
		h.NewError(w, r, err)

		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	payments, err := h.deps.Billing.MemberPayments(r.Context(), memberID, asOf)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	items := make([]PaymentView, 0, len(payments))
	for i := range payments {
		items = append(items, DomainPaymentToView(&payments[i]))
	}

	controller.WriteJSON(w, r, http.StatusOK, PaymentList{Items: items})
}

// GetPayment handles GET /payments/{paymentID}.
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := paymentIDParam(r)
	if err != nil {
		h.NewError(w, r, err)

		return
	}
	asOf, err := asOfParam(r)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	p, err := h.deps.Billing.Payment(r.Context(), id, asOf)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	controller.WriteJSON(w, r, http.StatusOK, DomainPaymentToView(p))
}

// MarkPaid handles POST /payments/{paymentID}/paid. Repeating the call
// returns the already paid payment.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := paymentIDParam(r)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	p, err := h.deps.Billing.MarkPaid(r.Context(), id)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	controller.WriteJSON(w, r, http.StatusOK, DomainPaymentToView(p))
}
