// Package gateway implements the authenticating reverse proxy that
// fronts the MoniFlow services.
package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Auth errors carry the exact detail strings clients key on.
var (
	ErrAuthMissing   = errors.New("Authorization header missing")
	ErrAuthMalformed = errors.New("Invalid Authorization header")
	ErrTokenExpired  = errors.New("Access token expired")
	ErrTokenInvalid  = errors.New("Invalid access token")
)

// Verifier validates bearer tokens against the shared signing secret.
type Verifier struct {
	secret    []byte
	algorithm string
}

// NewVerifier creates a verifier for the given HMAC secret and algorithm
// name (e.g. "HS256").
func NewVerifier(secret, algorithm string) *Verifier {
	return &Verifier{secret: []byte(secret), algorithm: algorithm}
}

// Verify parses and validates the token, returning its claims. Expiry is
// reported distinctly from every other validation failure.
func (v *Verifier) Verify(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{v.algorithm}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrAuthMissing
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrAuthMalformed
	}
	return parts[1], nil
}

// Subject pulls the sub claim as a string.
func Subject(claims jwt.MapClaims) string {
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}

// String renders claims for debug logging without the signature noise.
func claimsSummary(claims jwt.MapClaims) string {
	if sub := Subject(claims); sub != "" {
		return fmt.Sprintf("sub=%s", sub)
	}
	return "no subject"
}
