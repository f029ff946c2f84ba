package credential

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"duesbook/pkg/domain"
	"duesbook/pkg/serrors"
)

// Policy is the minimum-strength rule a secret must pass before it is hashed.
// Lengths count runes, not bytes.
type Policy struct {
	MinLength int
	MaxLength int
	// RejectVeryWeak refuses repeated characters, short digit-only secrets
	// and a handful of notorious passwords.
	RejectVeryWeak bool
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MinLength: 12,
		MaxLength: 256,
	}
}

// Check validates secret against the policy. Failures carry
// domain.ErrInvalidCredential and one of the package sentinels as cause.
func (p Policy) Check(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return serrors.Wrap(domain.ErrInvalidCredential, ErrBlankSecret, "invalid credential")
	}

	n := utf8.RuneCountInString(secret)
	if n < p.MinLength {
		return serrors.Wrap(domain.ErrInvalidCredential, ErrSecretTooShort,
			"password must be at least %d characters", p.MinLength)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		return serrors.Wrap(domain.ErrInvalidCredential, ErrSecretTooLong,
			"password must be at most %d characters", p.MaxLength)
	}
	if p.RejectVeryWeak && looksVeryWeak(secret) {
		return serrors.Wrap(domain.ErrInvalidCredential, ErrWeakSecret, "password is too easy to guess")
	}

	return nil
}

func looksVeryWeak(secret string) bool {
	s := strings.TrimSpace(secret)

	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	onlyDigits := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
	if onlyDigits && utf8.RuneCountInString(s) < 12 {
		return true
	}

	switch strings.ToLower(s) {
	case "password", "password123", "123456", "123456789", "qwerty", "qwerty123", "11111111",
		"letmein", "iloveyou", "welcome123":
		return true
	}

	return false
}
