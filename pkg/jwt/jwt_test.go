package jwt_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taintedport/taintedport/pkg/jwt"
)

type accessClaims struct {
	jwt.StandardClaims
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

func b64url(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("with valid signing key", func(t *testing.T) {
		service, err := jwt.New([]byte("secret"))
		require.NoError(t, err)
		require.NotNil(t, service)
	})

	t.Run("with empty signing key", func(t *testing.T) {
		service, err := jwt.New(nil)
		require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
		require.Nil(t, service)
	})

	t.Run("with empty string key", func(t *testing.T) {
		service, err := jwt.NewFromString("")
		require.ErrorIs(t, err, jwt.ErrMissingSigningKey)
		require.Nil(t, service)
	})
}

func TestGenerateParse_RoundTrip(t *testing.T) {
	t.Parallel()
	service, err := jwt.NewFromString("secret")
	require.NoError(t, err)

	now := time.Now().Unix()
	original := accessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			Issuer:    "taintedport",
			IssuedAt:  now,
			ExpiresAt: now + 604800,
		},
		Email:   "alice@example.com",
		IsAdmin: true,
	}

	token, err := service.Generate(original)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3)

	var parsed accessClaims
	require.NoError(t, service.Parse(token, &parsed))
	assert.Equal(t, original, parsed)
}

func TestGenerate_NilClaims(t *testing.T) {
	t.Parallel()
	service, err := jwt.NewFromString("secret")
	require.NoError(t, err)

	token, err := service.Generate(nil)
	require.ErrorIs(t, err, jwt.ErrMissingClaims)
	assert.Empty(t, token)
}

func TestParse_Rejections(t *testing.T) {
	t.Parallel()
	service, err := jwt.NewFromString("secret")
	require.NoError(t, err)

	valid, err := service.Generate(accessClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	t.Run("malformed shape", func(t *testing.T) {
		var c accessClaims
		assert.ErrorIs(t, service.Parse("garbage", &c), jwt.ErrInvalidToken)
		assert.ErrorIs(t, service.Parse("a.b", &c), jwt.ErrInvalidToken)
		assert.ErrorIs(t, service.Parse("a.b.c.d", &c), jwt.ErrInvalidToken)
	})

	t.Run("empty segment", func(t *testing.T) {
		var c accessClaims
		assert.ErrorIs(t, service.Parse(parts[0]+"."+parts[1]+".", &c), jwt.ErrInvalidToken)
		assert.ErrorIs(t, service.Parse("."+parts[1]+"."+parts[2], &c), jwt.ErrInvalidToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		sig := parts[2]
		// Flip characters at several positions; every mutation must reject.
		for _, i := range []int{0, len(sig) / 2, len(sig) - 1} {
			mutated := []byte(sig)
			if mutated[i] == 'A' {
				mutated[i] = 'B'
			} else {
				mutated[i] = 'A'
			}
			var c accessClaims
			err := service.Parse(parts[0]+"."+parts[1]+"."+string(mutated), &c)
			assert.ErrorIs(t, err, jwt.ErrInvalidSignature, "position %d", i)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		forged := b64url(`{"sub":"user-1","is_admin":true}`)
		var c accessClaims
		err := service.Parse(parts[0]+"."+forged+"."+parts[2], &c)
		assert.ErrorIs(t, err, jwt.ErrInvalidSignature)
	})

	t.Run("none algorithm", func(t *testing.T) {
		header := b64url(`{"typ":"JWT","alg":"none"}`)
		payload := b64url(`{"sub":"user-1","is_admin":true}`)
		var c accessClaims
		err := service.Parse(header+"."+payload+".", &c)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)

		// Even with a non-empty third segment the algorithm is refused.
		err = service.Parse(header+"."+payload+".sig", &c)
		assert.ErrorIs(t, err, jwt.ErrUnexpectedSigningMethod)
	})

	t.Run("foreign algorithm", func(t *testing.T) {
		header := b64url(`{"typ":"JWT","alg":"HS512"}`)
		var c accessClaims
		err := service.Parse(header+"."+parts[1]+"."+parts[2], &c)
		assert.ErrorIs(t, err, jwt.ErrUnexpectedSigningMethod)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other, err := jwt.NewFromString("another-secret")
		require.NoError(t, err)
		var c accessClaims
		assert.ErrorIs(t, other.Parse(valid, &c), jwt.ErrInvalidSignature)
	})
}

func TestParse_TemporalClaims(t *testing.T) {
	t.Parallel()
	service, err := jwt.NewFromString("secret")
	require.NoError(t, err)

	t.Run("accepted just before expiry", func(t *testing.T) {
		token, err := service.Generate(jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Unix() + 2,
		})
		require.NoError(t, err)

		var c jwt.StandardClaims
		assert.NoError(t, service.Parse(token, &c))
	})

	t.Run("rejected at expiry", func(t *testing.T) {
		token, err := service.Generate(jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Unix(),
		})
		require.NoError(t, err)

		var c jwt.StandardClaims
		assert.ErrorIs(t, service.Parse(token, &c), jwt.ErrExpiredToken)
	})

	t.Run("rejected after expiry", func(t *testing.T) {
		token, err := service.Generate(jwt.StandardClaims{
			Subject:   "user-1",
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
		})
		require.NoError(t, err)

		var c jwt.StandardClaims
		assert.ErrorIs(t, service.Parse(token, &c), jwt.ErrExpiredToken)
	})

	t.Run("rejected when issued in the future", func(t *testing.T) {
		token, err := service.Generate(jwt.StandardClaims{
			Subject:   "user-1",
			IssuedAt:  time.Now().Add(time.Hour).Unix(),
			ExpiresAt: time.Now().Add(2 * time.Hour).Unix(),
		})
		require.NoError(t, err)

		var c jwt.StandardClaims
		assert.ErrorIs(t, service.Parse(token, &c), jwt.ErrInvalidToken)
	})
}

func TestParse_InsecureVerification(t *testing.T) {
	t.Parallel()
	service, err := jwt.NewFromString("secret", jwt.WithInsecureVerification(nil))
	require.NoError(t, err)

	t.Run("accepts unsigned none token", func(t *testing.T) {
		header := b64url(`{"typ":"JWT","alg":"none"}`)
		payload := b64url(`{"sub":"user-1","is_admin":true}`)

		var c accessClaims
		require.NoError(t, service.Parse(header+"."+payload+".", &c))
		assert.Equal(t, "user-1", c.Subject)
		assert.True(t, c.IsAdmin)
	})

	t.Run("accepts mismatched signature", func(t *testing.T) {
		token, err := service.Generate(accessClaims{
			StandardClaims: jwt.StandardClaims{
				Subject:   "user-1",
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
		})
		require.NoError(t, err)
		parts := strings.Split(token, ".")
		forged := b64url(`{"sub":"user-1","is_admin":true,"exp":` +
			"9999999999" + `}`)

		var c accessClaims
		require.NoError(t, service.Parse(parts[0]+"."+forged+"."+parts[2], &c))
		assert.True(t, c.IsAdmin)
	})

	t.Run("still rejects expired tokens", func(t *testing.T) {
		header := b64url(`{"typ":"JWT","alg":"none"}`)
		payload := b64url(`{"sub":"user-1","exp":1}`)

		var c accessClaims
		assert.ErrorIs(t, service.Parse(header+"."+payload+".", &c), jwt.ErrExpiredToken)
	})
}
