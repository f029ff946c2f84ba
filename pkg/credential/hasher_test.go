package credential_test

import (
	"strings"
	"testing"

	"duesbook/pkg/credential"
	"duesbook/pkg/domain"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// cheap parameters keep property tests fast; the encoding is the same.
func testHasher() *credential.Argon2id {
	return credential.NewArgon2id(credential.Params{
		MemoryKiB:   1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func TestHash_Format(t *testing.T) {
	h := testHasher()

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"), encoded)
	require.Len(t, strings.Split(encoded, "$"), 6)
	require.NotContains(t, encoded, "correct horse battery staple")
}

func TestHash_BlankSecret(t *testing.T) {
	h := testHasher()

	for _, secret := range []string{"", "   ", "\t\n"} {
		_, err := h.Hash(secret)
		require.ErrorIs(t, err, domain.ErrInvalidCredential)
		require.ErrorIs(t, err, credential.ErrBlankSecret)
	}
}

func TestHash_Salted(t *testing.T) {
	h := testHasher()

	a, err := h.Hash("same secret value")
	require.NoError(t, err)
	b, err := h.Hash("same secret value")
	require.NoError(t, err)
	require.NotEqual(t, a, b, "independent hashes of one secret should differ by salt")

	for _, encoded := range []string{a, b} {
		ok, err := h.Verify("same secret value", encoded)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestVerify_InvalidHash(t *testing.T) {
	h := testHasher()

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5",
		"$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
	} {
		ok, err := h.Verify("whatever", encoded)
		require.ErrorIs(t, err, credential.ErrInvalidHash, encoded)
		require.False(t, ok)
	}
}

func TestVerify_RefusesExpensiveHash(t *testing.T) {
	expensive := credential.NewArgon2id(credential.Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1})
	encoded, err := expensive.Hash("some long secret")
	require.NoError(t, err)

	ok, err := testHasher().Verify("some long secret", encoded)
	require.ErrorIs(t, err, credential.ErrInvalidHash)
	require.False(t, ok)
}

func TestVerify_AcceptsCheaperHash(t *testing.T) {
	encoded, err := testHasher().Hash("some long secret")
	require.NoError(t, err)

	stronger := credential.NewArgon2id(credential.Params{MemoryKiB: 4 * 1024, Iterations: 2, Parallelism: 1})
	ok, err := stronger.Verify("some long secret", encoded)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHashVerify_Property(t *testing.T) {
	h := testHasher()

	rapid.Check(t, func(t *rapid.T) {
		secret := rapid.StringMatching(`[ -~]{1,64}`).Filter(func(s string) bool {
			return strings.TrimSpace(s) != ""
		}).Draw(t, "secret")
		other := rapid.StringMatching(`[ -~]{1,64}`).Filter(func(s string) bool {
			return s != secret
		}).Draw(t, "other")

		encoded, err := h.Hash(secret)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		if encoded == secret {
			t.Fatalf("hash equals secret")
		}

		ok, err := h.Verify(secret, encoded)
		if err != nil || !ok {
			t.Fatalf("verify of original secret failed: ok=%v err=%v", ok, err)
		}

		ok, err = h.Verify(other, encoded)
		if err != nil {
			t.Fatalf("verify other: %v", err)
		}
		if ok {
			t.Fatalf("verify matched a different secret %q", other)
		}
	})
}

func TestNewArgon2id_Defaults(t *testing.T) {
	h := credential.NewArgon2id(credential.Params{})
	encoded, err := h.Hash("a reasonably long secret")
	require.NoError(t, err)
	require.Contains(t, encoded, "$m=65536,t=3,p=2$")
}

func TestNewArgon2id_ClampsLengthsToVerifiableRange(t *testing.T) {
	for name, p := range map[string]credential.Params{
		"short salt": {SaltLength: 4, KeyLength: 32},
		"long salt":  {SaltLength: 200, KeyLength: 32},
		"short key":  {SaltLength: 16, KeyLength: 8},
		"long key":   {SaltLength: 16, KeyLength: 200},
	} {
		t.Run(name, func(t *testing.T) {
			p.MemoryKiB, p.Iterations, p.Parallelism = 1024, 1, 1
			h := credential.NewArgon2id(p)

			encoded, err := h.Hash("a secret that must verify")
			require.NoError(t, err)

			ok, err := h.Verify("a secret that must verify", encoded)
			require.NoError(t, err)
			require.True(t, ok)
		})
	}
}
