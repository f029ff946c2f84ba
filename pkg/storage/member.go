package storage

import (
	"context"

	"duesbook/pkg/domain"
)

// MemberStorage persists members. Emails are compared case-insensitively.
type MemberStorage interface {
	// StoreMember inserts a member and returns the stored row including the
	// generated ID and timestamps. A taken email yields ErrDuplicate.
	StoreMember(ctx context.Context, member domain.Member) (*domain.Member, error)
	// MemberByEmail returns the member registered with email, or nil.
	MemberByEmail(ctx context.Context, email string) (*domain.Member, error)
	// MemberByID returns the member with the given ID, or nil.
	MemberByID(ctx context.Context, ID domain.MemberID) (*domain.Member, error)
}
