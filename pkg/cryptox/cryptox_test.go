package cryptox_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/sessiond/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

// cheap keeps the suite fast; the encoding is what matters here.
var cheap = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

func TestPasswordHasher(t *testing.T) {
	h := &cryptox.PasswordHasher{Params: cheap, Pepper: "pepper"}

	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"empty password", ""},
		{"unicode password", "пароль🔒密码"},
		{"long password", strings.Repeat("a", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))
			require.Len(t, strings.Split(encoded, "$"), 6)

			require.True(t, h.Verify(tt.password, encoded))
			require.False(t, h.Verify(tt.password+"x", encoded))
		})
	}

	t.Run("salts differ", func(t *testing.T) {
		a, err := h.Hash("same")
		require.NoError(t, err)
		b, err := h.Hash("same")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("pepper is part of the secret", func(t *testing.T) {
		encoded, err := h.Hash("secret")
		require.NoError(t, err)

		other := &cryptox.PasswordHasher{Params: cheap, Pepper: "different"}
		require.False(t, other.Verify("secret", encoded))
	})

	t.Run("verify uses parameters from the hash", func(t *testing.T) {
		encoded, err := h.Hash("secret")
		require.NoError(t, err)

		stronger := &cryptox.PasswordHasher{Params: cryptox.DefaultParams, Pepper: "pepper"}
		require.True(t, stronger.Verify("secret", encoded))
	})
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h := &cryptox.PasswordHasher{Params: cheap}

	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	} {
		require.False(t, h.Verify("anything", encoded), "hash %q", encoded)
	}
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pepper")

	first, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := cryptox.LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)

	none, err := cryptox.LoadOrCreatePepper("")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGenerateToken(t *testing.T) {
	tok, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.Len(t, tok, 43)

	other, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)

	_, err = cryptox.GenerateToken(0)
	require.Error(t, err)
}

func TestFingerprintToken(t *testing.T) {
	a := cryptox.FingerprintToken("token-value")
	require.Len(t, a, 43)
	require.Equal(t, a, cryptox.FingerprintToken("token-value"))
	require.NotEqual(t, a, cryptox.FingerprintToken("token-valuf"))
}
