package identity

import (
	"context"

	"duesbook/pkg/domain"
)

// Service registers members and checks their credentials.
//
//go:generate mockgen -package mockidentity -source=interface.go -destination=mock/mockidentity.go *
type Service interface {
	// RegisterMember validates the input, hashes secret and stores an active
	// member. The email is normalized before the uniqueness check.
	RegisterMember(ctx context.Context, name, email, secret string) (*domain.Member, error)
	// Member returns the member with the given ID or domain.ErrMemberNotFound.
	Member(ctx context.Context, id domain.MemberID) (*domain.Member, error)
	// VerifyCredentials returns the active member owning email when secret
	// matches. Every mismatch fails with domain.ErrInvalidCredential.
	VerifyCredentials(ctx context.Context, email, secret string) (*domain.Member, error)
}
