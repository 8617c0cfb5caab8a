// FILE: src/internal/mcp/auth_test.go
package mcp

import (
	"testing"
	"time"

	"pgmoneta-mcp/src/internal/config"
	"pgmoneta-mcp/src/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, method jwt.SigningMethod, key []byte, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestNewAuthenticator_Disabled(t *testing.T) {
	for _, cfg := range []*config.AuthConfig{nil, {Type: ""}, {Type: "none"}} {
		a, err := NewAuthenticator(cfg, newTestLogger())
		require.NoError(t, err)
		assert.Nil(t, a)

		p, err := a.Authenticate("")
		require.NoError(t, err)
		assert.Equal(t, "none", p.Method)
	}
}

func TestNewAuthenticator_Unsupported(t *testing.T) {
	_, err := NewAuthenticator(&config.AuthConfig{Type: "basic"}, newTestLogger())
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestAuthenticator_StaticTokens(t *testing.T) {
	a, err := NewAuthenticator(&config.AuthConfig{
		Type:       "bearer",
		BearerAuth: &config.BearerAuthConfig{Tokens: []string{"first", "second"}},
	}, newTestLogger())
	require.NoError(t, err)

	p, err := a.Authenticate("Bearer second")
	require.NoError(t, err)
	assert.Equal(t, "bearer", p.Method)

	_, err = a.Authenticate("")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = a.Authenticate("Basic Zmlyc3Q=")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = a.Authenticate("Bearer third")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticator_JWT(t *testing.T) {
	a, err := NewAuthenticator(&config.AuthConfig{
		Type: "bearer",
		BearerAuth: &config.BearerAuthConfig{JWT: &config.JWTConfig{
			SigningKey: testSigningKey,
			Issuer:     "pgmoneta-ops",
			Audience:   "pgmoneta-mcp",
		}},
	}, newTestLogger())
	require.NoError(t, err)

	valid := jwt.RegisteredClaims{
		Subject:   "agent-7",
		Issuer:    "pgmoneta-ops",
		Audience:  jwt.ClaimStrings{"pgmoneta-mcp"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	t.Run("Valid", func(t *testing.T) {
		p, err := a.Authenticate("Bearer " + signToken(t, jwt.SigningMethodHS256, []byte(testSigningKey), valid))
		require.NoError(t, err)
		assert.Equal(t, "jwt", p.Method)
		assert.Equal(t, "agent-7", p.Subject)
	})

	testCases := []struct {
		name   string
		method jwt.SigningMethod
		key    string
		mutate func(*jwt.RegisteredClaims)
	}{
		{"Expired", jwt.SigningMethodHS256, testSigningKey, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		}},
		{"NoExpiry", jwt.SigningMethodHS256, testSigningKey, func(c *jwt.RegisteredClaims) {
			c.ExpiresAt = nil
		}},
		{"WrongIssuer", jwt.SigningMethodHS256, testSigningKey, func(c *jwt.RegisteredClaims) {
			c.Issuer = "someone-else"
		}},
		{"WrongAudience", jwt.SigningMethodHS256, testSigningKey, func(c *jwt.RegisteredClaims) {
			c.Audience = jwt.ClaimStrings{"other-service"}
		}},
		{"WrongKey", jwt.SigningMethodHS256, "another-key-another-key-another!", func(*jwt.RegisteredClaims) {}},
		{"HS512", jwt.SigningMethodHS512, "another-key-another-key-another!", func(*jwt.RegisteredClaims) {}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			claims := valid
			tc.mutate(&claims)
			_, err := a.Authenticate("Bearer " + signToken(t, tc.method, []byte(tc.key), claims))
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	t.Run("Garbage", func(t *testing.T) {
		_, err := a.Authenticate("Bearer not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
