package application

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCodec converts between a user identifier and the opaque session token
// carried by the session cookie. Decode reports invalid, expired, or tampered
// tokens as absent rather than returning an error: a bad token and a missing
// token are the same outcome for identity resolution.
type TokenCodec interface {
	Encode(userID string, now time.Time) (string, error)
	Decode(token string, now time.Time) (userID string, ok bool)
}

// JWTCodec signs session tokens as HS256 JWTs. The token is the session: no
// server-side session table exists, so expiry is absolute from issuance and
// tokens cannot be revoked individually.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTCodec constructs a codec with the signing secret and token lifetime.
func NewJWTCodec(secret []byte, ttl time.Duration) *JWTCodec {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &JWTCodec{secret: secret, ttl: ttl}
}

// TTL returns the configured token lifetime.
func (c *JWTCodec) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Encode issues a signed token bound to userID, expiring TTL after now.
func (c *JWTCodec) Encode(userID string, now time.Time) (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", fmt.Errorf("token codec not configured")
	}
	if userID == "" {
		return "", fmt.Errorf("empty user id")
	}

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode extracts the user identifier from a token. Any parse, signature, or
// expiry failure yields ok == false.
func (c *JWTCodec) Decode(token string, now time.Time) (string, bool) {
	if c == nil || len(c.secret) == 0 || token == "" {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", false
	}

	return claims.Subject, true
}
