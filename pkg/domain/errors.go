package domain

import "duesbook/pkg/serrors"

// Business error kinds surfaced by the identity and billing services. They
// are serrors kinds so callers match them with errors.Is.
var (
	ErrInvalidInput      = serrors.NewKind("INVALID_INPUT")
	ErrInvalidCredential = serrors.NewKind("INVALID_CREDENTIAL")
	ErrDuplicateMember   = serrors.NewKind("DUPLICATE_MEMBER")
	ErrMemberNotFound    = serrors.NewKind("MEMBER_NOT_FOUND")
	ErrPaymentNotFound   = serrors.NewKind("PAYMENT_NOT_FOUND")
	ErrInvalidAmount     = serrors.NewKind("INVALID_AMOUNT")
	// ErrStoreFailure wraps any error reported by the persistence layer.
	ErrStoreFailure = serrors.NewKind("STORE_FAILURE")
)

// AsStoreFailure wraps err as ErrStoreFailure unless it already carries a
// kind, in which case it is returned unchanged. Services use it on errors
// coming back from storage or a storage transaction.
func AsStoreFailure(err error, msgFmt string, args ...any) error {
	if err == nil {
		return nil
	}
	if serrors.KindOf(err) != nil {
		return err
	}

	return serrors.Wrap(ErrStoreFailure, err, msgFmt, args...)
}
