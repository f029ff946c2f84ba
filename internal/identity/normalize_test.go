package identity_test

import (
	"testing"

	"duesbook/internal/identity"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"ada@example.com":       "ada@example.com",
		"  Ada@Example.COM\t":   "ada@example.com",
		"":                      "",
		"MiXeD.Case+tag@X.org ": "mixed.case+tag@x.org",
	}
	for in, want := range cases {
		require.Equal(t, want, identity.NormalizeEmail(in), in)
	}
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "Ada Lovelace", identity.NormalizeName("  Ada \t  Lovelace \n"))
	require.Equal(t, "", identity.NormalizeName("   "))
}
