// Package auth issues and verifies bearer tokens and gates routes by role.
//
// AUTHENTICATION FLOW:
//  1. A user logs in (email/password or GitHub) and receives a signed JWT
//  2. The client sends it back as "Authorization: Bearer <token>"
//  3. RequireAuth validates it and stores a Principal in the request context
//  4. RequireRole rejects principals that lack the route's role
//  5. Handlers pass the Principal explicitly into the service layer
//
// TOKEN PAYLOAD:
//
//	{"sub":"dev@example.com","uid":"<user id>","roles":["DEVELOPER"],
//	 "iss":"devmarket","iat":...,"exp":...}
//
// The signature is HMAC-SHA256 with a server-side secret, so verification
// needs no database lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/devmarket/internal/model"
)

const issuer = "devmarket"

// DefaultTokenTTL applies when the configured TTL is zero.
const DefaultTokenTTL = 24 * time.Hour

// TokenService handles JWT creation and validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. "sub" carries the email; uid and roles are
// private claims.
type claims struct {
	UserID string   `json:"uid,omitempty"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

// Generate signs a token for p using the service's TTL.
func (s *TokenService) Generate(p Principal) (string, error) {
	return s.GenerateWithDuration(p, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use a
// negative duration to produce expired tokens.
func (s *TokenService) GenerateWithDuration(p Principal, d time.Duration) (string, error) {
	if p.Email == "" {
		return "", errors.New("auth: principal has no email")
	}

	now := time.Now()
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		roles[i] = string(r)
	}

	c := claims{
		UserID: p.UserID,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the principal it
// encodes.
//
// The library checks the signature, expiry (required) and issuer. Passing
// jwt.WithValidMethods rejects "alg":"none" and RSA/HMAC confusion.
func (s *TokenService) Validate(tokenStr string) (Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("auth: token expired")
		}
		return Principal{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Principal{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Principal{}, fmt.Errorf("auth: token has no subject")
	}

	p := Principal{UserID: c.UserID, Email: c.Subject}
	for _, r := range c.Roles {
		p.Roles = append(p.Roles, model.Role(r))
	}
	return p, nil
}
