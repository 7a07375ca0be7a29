package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/xarlytos/fitplanner/internal/clock"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTokenExpired = errors.New("auth token expired")

// JWTToken is a TokenSource for the session JWT issued by the Backend Service at login.
// The signature is not checked here, that is the backend's job; only the expiry is read,
// so an expired session fails before a request goes out.
type JWTToken struct {
	raw    string
	clock  clock.Clock
	parser *jwt.Parser
}

func NewJWTToken(raw string, clk clock.Clock) *JWTToken {
	return &JWTToken{
		raw:    raw,
		clock:  clk,
		parser: jwt.NewParser(),
	}
}

func (t *JWTToken) Token() (string, error) {
	if t.raw == "" {
		return "", ErrNoToken
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := t.parser.ParseUnverified(t.raw, claims); err != nil {
		return "", fmt.Errorf("parse jwt: %w", err)
	}

	expiresAt, err := claims.GetExpirationTime()
	if err != nil {
		return "", fmt.Errorf("read jwt expiry: %w", err)
	}
	// tokens without exp never expire on the client side
	if expiresAt != nil && !t.clock.Now().Before(expiresAt.Time) {
		return "", fmt.Errorf("%w at %s", ErrTokenExpired, expiresAt.Time.Format(time.RFC3339))
	}

	return t.raw, nil
}
