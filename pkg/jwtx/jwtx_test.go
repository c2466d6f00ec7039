package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessiond/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var secret = []byte(strings.Repeat("s", jwtx.MinSecretLength))

func newClaims(aud string, ttl time.Duration, now time.Time) jwtx.Claims {
	return jwtx.NewAccessClaims(jwtx.AccessClaims{
		TokenID:  "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
		Subject:  "user-1",
		DeviceID: "device-1",
		Role:     "user",
		Email:    "u1@example.com",
	}, "sessiond", aud, ttl, now)
}

func TestSignerRejectsWeakSecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestSignAndVerify(t *testing.T) {
	signer, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	verifier := jwtx.NewVerifierHS256(secret, "sessiond", []string{"web", "mobile"}, 0)

	t.Run("round trip", func(t *testing.T) {
		tok, err := signer.Sign(newClaims("mobile", time.Minute, time.Now()))
		require.NoError(t, err)

		claims, err := verifier.Verify(tok)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, "device-1", claims.SID)
		require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", claims.ID)
		require.Equal(t, jwt.ClaimStrings{"mobile"}, claims.Audience)
	})

	t.Run("unknown audience", func(t *testing.T) {
		tok, err := signer.Sign(newClaims("extension", time.Minute, time.Now()))
		require.NoError(t, err)

		_, err = verifier.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("expired", func(t *testing.T) {
		tok, err := signer.Sign(newClaims("web", time.Minute, time.Now().Add(-time.Hour)))
		require.NoError(t, err)

		_, err = verifier.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("leeway tolerates skew", func(t *testing.T) {
		tok, err := signer.Sign(newClaims("web", time.Minute, time.Now().Add(-90*time.Second)))
		require.NoError(t, err)

		lenient := jwtx.NewVerifierHS256(secret, "sessiond", []string{"web"}, time.Minute)
		_, err = lenient.Verify(tok)
		require.NoError(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok, err := signer.Sign(newClaims("web", time.Minute, time.Now()))
		require.NoError(t, err)

		other := jwtx.NewVerifierHS256(secret, "someone-else", nil, 0)
		_, err = other.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok, err := signer.Sign(newClaims("web", time.Minute, time.Now()))
		require.NoError(t, err)

		other := jwtx.NewVerifierHS256([]byte(strings.Repeat("x", 32)), "sessiond", nil, 0)
		_, err = other.Verify(tok)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("none algorithm is refused", func(t *testing.T) {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, newClaims("web", time.Minute, time.Now())).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.Verify(tok)
		require.Error(t, err)
	})
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Audience: []string{"web"}}}

	require.NoError(t, c.ValidateAudience(nil))
	require.NoError(t, c.ValidateAudience([]string{"mobile", "web"}))
	require.ErrorIs(t, c.ValidateAudience([]string{"mobile"}), jwtx.ErrAudience)
}
