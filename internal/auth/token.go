package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sistema-orcamento/orcamento/internal/shared"
)

// DefaultTokenTTL is how long an issued credential stays valid.
const DefaultTokenTTL = 8 * time.Hour

// Claims is the signed credential payload.
type Claims struct {
	UserID int64       `json:"user_id"`
	Role   shared.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the request identity carried by the claims.
func (c *Claims) Identity() shared.Identity {
	return shared.Identity{UserID: c.UserID, Role: c.Role}
}

// TokenIssuer signs and verifies HS256 credentials.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer builds an issuer. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("auth: jwt secret must be provided")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a credential for user and returns it with its expiry.
func (t *TokenIssuer) Issue(user User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature and expiry. Any failure is reported as shared.ErrUnauthorized.
func (t *TokenIssuer) Parse(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	tok, err := parser.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: invalid or expired token", shared.ErrUnauthorized)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: malformed claims", shared.ErrUnauthorized)
	}
	return claims, nil
}
