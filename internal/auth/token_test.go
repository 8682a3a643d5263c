package auth

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("api-side-secret"))
	require.NoError(t, err)
	return token
}

func TestDecode_ReadsClaimsWithoutKey(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	token := signedToken(t, &Claims{
		Username:       "somchai",
		StandardClaims: jwt.StandardClaims{ExpiresAt: exp},
	})

	claims, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, "somchai", claims.Username)
	assert.Equal(t, exp, claims.ExpiresAt)
}

func TestDecode_Malformed(t *testing.T) {
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := Decode(token)
		assert.ErrorIs(t, err, ErrMalformedToken, "token %q", token)
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		claims  jwt.StandardClaims
		expired bool
	}{
		{"past expiry", jwt.StandardClaims{ExpiresAt: now.Add(-time.Second).Unix()}, true},
		{"future expiry", jwt.StandardClaims{ExpiresAt: now.Add(time.Minute).Unix()}, false},
		{"no expiry", jwt.StandardClaims{Subject: "somchai"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expired, err := IsExpired(signedToken(t, tt.claims), now)
			require.NoError(t, err)
			assert.Equal(t, tt.expired, expired)
		})
	}
}

func TestExpiresAt(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	expiry, ok, err := ExpiresAt(signedToken(t, jwt.StandardClaims{ExpiresAt: exp.Unix()}))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, expiry.Equal(exp))
}
