package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemberID uniquely identifies a member. It is assigned by the store.
type MemberID uuid.UUID

// String returns the canonical textual form of the id.
func (id MemberID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the id has not been assigned yet.
func (id MemberID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText encodes the id in its canonical textual form, so JSON and
// other text encodings see a string rather than a byte array.
func (id MemberID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *MemberID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b) //nolint: wrapcheck
}

// ParseMemberID parses the textual form of a member id.
func ParseMemberID(s string) (MemberID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MemberID{}, err //nolint: wrapcheck
	}

	return MemberID(id), nil
}

// MemberStatus is the account state of a member.
type MemberStatus string

const (
	// MemberStatusActive is the state every member is created in.
	MemberStatusActive MemberStatus = "active"
	// MemberStatusInactive marks a member whose account has been switched off.
	MemberStatusInactive MemberStatus = "inactive"
)

// Member is a registered person with credentials and an account status.
type Member struct {
	// ID is assigned by the store and immutable afterwards.
	ID MemberID `json:"id"`

	// Name is the display name of the member.
	Name string `json:"name"`
	// Email is stored normalized (trimmed, lower-cased) and unique per store.
	Email string `json:"email"`
	// CredentialHash is the one-way encoded form of the member secret.
	// It must never leave the process.
	CredentialHash string `json:"-"`

	// Status is the account state; active at creation.
	Status MemberStatus `json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewMember builds a member record ready to be persisted. The id and
// timestamps are left for the store to assign.
func NewMember(name, email, credentialHash string) Member {
	return Member{
		Name:           name,
		Email:          email,
		CredentialHash: credentialHash,
		Status:         MemberStatusActive,
	}
}

// IsActive reports whether the member account is active.
func (m Member) IsActive() bool { return m.Status == MemberStatusActive }
