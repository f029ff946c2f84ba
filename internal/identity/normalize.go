package identity

import "strings"

// NormalizeEmail trims surrounding whitespace and lower-cases the address so
// that uniqueness does not depend on how a member typed it.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeName trims the name and collapses inner runs of whitespace.
func NormalizeName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
