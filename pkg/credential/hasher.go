package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"duesbook/pkg/domain"
	"duesbook/pkg/serrors"

	"golang.org/x/crypto/argon2"
)

const argon2Version = argon2.Version

// Salt and key length bounds, in bytes, of hashes this package makes and
// accepts.
const (
	MinSaltLength = 8
	MaxSaltLength = 64
	MinKeyLength  = 16
	MaxKeyLength  = 64
)

// Hasher transforms secrets into storable hashes and verifies secrets
// against them.
//
//go:generate mockgen -package mockcredential -source=hasher.go -destination=mock/mockcredential.go *
type Hasher interface {
	// Hash returns the encoded hash of secret. Blank secrets fail with
	// domain.ErrInvalidCredential.
	Hash(secret string) (string, error)
	// Verify reports whether secret produced encodedHash. A malformed hash
	// yields ErrInvalidHash.
	Verify(secret, encodedHash string) (bool, error)
}

// Params controls the Argon2id cost. MemoryKiB is in KiB as argon2.IDKey expects.
type Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams is a baseline suitable for interactive registration.
func DefaultParams() Params {
	return Params{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2id implements Hasher.
type Argon2id struct {
	params Params
}

var _ Hasher = (*Argon2id)(nil)

// NewArgon2id returns a hasher using params. Zero fields fall back to
// DefaultParams; salt and key lengths are clamped to the ranges Verify
// accepts.
func NewArgon2id(params Params) *Argon2id {
	def := DefaultParams()
	if params.MemoryKiB == 0 {
		params.MemoryKiB = def.MemoryKiB
	}
	if params.Iterations == 0 {
		params.Iterations = def.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = def.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = def.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = def.KeyLength
	}
	params.SaltLength = min(max(params.SaltLength, MinSaltLength), MaxSaltLength)
	params.KeyLength = min(max(params.KeyLength, MinKeyLength), MaxKeyLength)

	return &Argon2id{params: params}
}

// Hash implements Hasher.
func (a *Argon2id) Hash(secret string) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", serrors.Wrap(domain.ErrInvalidCredential, ErrBlankSecret, "invalid credential")
	}

	salt := make([]byte, a.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("could not read salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt,
		a.params.Iterations,
		a.params.MemoryKiB,
		a.params.Parallelism,
		a.params.KeyLength)

	b64 := base64.RawStdEncoding

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		a.params.MemoryKiB,
		a.params.Iterations,
		a.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key)), nil
}

// Verify implements Hasher.
func (a *Argon2id) Verify(secret, encodedHash string) (bool, error) {
	params, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}
	if !withinBounds(params, a.params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey([]byte(secret), salt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		params.KeyLength)

	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

// withinBounds accepts hashes made with older, cheaper settings but refuses
// ones far more expensive than the configured cost.
func withinBounds(got, limits Params) bool {
	switch {
	case got.MemoryKiB > limits.MemoryKiB*2:
		return false
	case got.Iterations > limits.Iterations*2:
		return false
	case uint32(got.Parallelism) > uint32(limits.Parallelism)*2:
		return false
	case got.SaltLength < MinSaltLength || got.SaltLength > MaxSaltLength:
		return false
	case got.KeyLength < MinKeyLength || got.KeyLength > MaxKeyLength:
		return false
	}

	return true
}

func decode(encoded string) (Params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var mem, iter, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iter, &par); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || iter == 0 || par == 0 || par > 255 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}

	return Params{
		MemoryKiB:   mem,
		Iterations:  iter,
		Parallelism: uint8(par),       //nolint: gosec
		SaltLength:  uint32(len(salt)), //nolint: gosec
		KeyLength:   uint32(len(key)),  //nolint: gosec
	}, salt, key, nil
}
