package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IsExpired reports whether the credential's expiry claim is at or
// before now. Decoding is unverified: the client holds no signing key
// and only needs the embedded expiry. Any credential that cannot be
// decoded, or that carries no expiry claim, counts as expired, so a
// corrupted stored token can never crash session initialization.
func IsExpired(credential string, now time.Time) bool {
	if credential == "" {
		return true
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(credential, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.Time.After(now)
}
