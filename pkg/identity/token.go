// Package identity maps edge credentials to principals.
//
// The decision core itself never parses tokens; hosts that front it with
// token authentication use this package to turn a verified JWT subject into
// the opaque Principal the components compare.
package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arkavo-labs/accord/pkg/principal"
)

const issuer = "accord/identity"

// Claims are the registered claims plus nothing: the subject is the
// principal and that is all the core needs.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed principal tokens.
type TokenManager struct {
	secret []byte
}

// NewTokenManager creates a manager with the given signing secret.
func NewTokenManager(secret []byte) *TokenManager {
	return &TokenManager{secret: secret}
}

// Issue creates a signed token for the principal.
func (tm *TokenManager) Issue(p principal.Principal, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify parses and validates a token and returns the subject principal.
func (tm *TokenManager) Verify(tokenString string) (principal.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return principal.Zero, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return principal.Zero, jwt.ErrTokenInvalidClaims
	}
	return principal.Principal(claims.Subject), nil
}
