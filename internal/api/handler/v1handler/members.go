package v1handler

import (
	"errors"
	"net/http"
	"time"

	"duesbook/pkg/controller"
	"duesbook/pkg/domain"
)

// MemberView is the public representation of a member. It never carries
// the credential hash.
type MemberView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// DomainMemberToView converts a domain member.
func DomainMemberToView(m *domain.Member) MemberView {
	return MemberView{
		ID:        m.ID.String(),
		Name:      m.Name,
		Email:     m.Email,
		Status:    string(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

type registerMemberRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyCredentialsRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterMember handles POST /members.
func (h *Handler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	var req registerMemberRequest
	if err := h.decode(r, &req); err != nil {
		h.NewError(w, r, err)

		return
	}

	m, err := h.deps.Identity.RegisterMember(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	w.Header().Set("Location", "/v1/members/"+m.ID.String())
	controller.WriteJSON(w, r, http.StatusCreated, DomainMemberToView(m))
}

// GetMember handles GET /members/{memberID}.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := memberIDParam(r)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	m, err := h.deps.Identity.Member(r.Context(), id)
	if err != nil {
		h.NewError(w, r, err)

		return
	}

	controller.WriteJSON(w, r, http.StatusOK, DomainMemberToView(m))
}

// VerifyCredentials handles POST /credentials/verify. Any credential
// mismatch is a 401 with the same body.
func (h *Handler) VerifyCredentials(w http.ResponseWriter, r *http.Request) {
	var req verifyCredentialsRequest
	if err := h.decode(r, &req); err != nil {
		h.NewError(w, r, err)

		return
	}

	m, err := h.deps.Identity.VerifyCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredential) {
			controller.WriteError(w, r, http.StatusUnauthorized,
				domain.ErrInvalidCredential.Error(), "invalid email or password")

			return
		}
		h.NewError(w, r, err)

		return
	}

	controller.WriteJSON(w, r, http.StatusOK, DomainMemberToView(m))
}
