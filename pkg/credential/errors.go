package credential

import "errors"

var (
	// ErrBlankSecret is returned when a secret is empty or whitespace only.
	ErrBlankSecret = errors.New("secret is blank")
	// ErrSecretTooShort is returned when a secret is under the policy floor.
	ErrSecretTooShort = errors.New("secret too short")
	// ErrSecretTooLong is returned when a secret exceeds the policy ceiling.
	ErrSecretTooLong = errors.New("secret too long")
	// ErrWeakSecret is returned for trivially guessable secrets.
	ErrWeakSecret = errors.New("secret too weak")
	// ErrInvalidHash is returned for malformed or unsupported encoded hashes.
	ErrInvalidHash = errors.New("invalid credential hash")
)
