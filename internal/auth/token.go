package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ErrMalformedToken is returned when a token cannot be decoded as a JWT.
var ErrMalformedToken = errors.New("malformed token")

// Claims are the parts of the remote API's token the frontend reads.
// The signature is the API's business; the frontend never holds the key.
type Claims struct {
	Username string `json:"username"`
	jwt.StandardClaims
}

// Decode reads the claims of a token without verifying its signature.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	parser := &jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// ExpiresAt returns the token's embedded expiry. ok is false when the
// token carries no exp claim.
func ExpiresAt(token string) (expiry time.Time, ok bool, err error) {
	claims, err := Decode(token)
	if err != nil {
		return time.Time{}, false, err
	}
	if claims.ExpiresAt == 0 {
		return time.Time{}, false, nil
	}
	return time.Unix(claims.ExpiresAt, 0), true, nil
}

// IsExpired reports whether the token's expiry lies before now. A token
// without exp never expires here; a malformed token is an error.
func IsExpired(token string, now time.Time) (bool, error) {
	expiry, ok, err := ExpiresAt(token)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return expiry.Before(now), nil
}
