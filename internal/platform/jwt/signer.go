// Package jwtmw signs and verifies HS256 tokens and provides the Gin
// middleware that authenticates protected routes.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

// EnvKeyJWTSecret is the environment variable holding the signing secret.
const EnvKeyJWTSecret = "JWT_SECRET"

// Claims are the claims carried by access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenType entity.TokenKind `json:"token_type"`
}

// Signer implements usecase.TokenSigner with HMAC-SHA256.
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithIssuer sets the iss claim and requires it on parse.
func WithIssuer(issuer string) Option {
	return func(s *Signer) { s.issuer = issuer }
}

// WithClock replaces time.Now for signing and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

// NewSigner creates a Signer. The secret must not be empty.
func NewSigner(secret string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	s := &Signer{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Sign creates a signed token of the given kind for subjectID.
// Every token gets a random jti so two tokens minted in the same second differ.
func (s *Signer) Sign(subjectID string, kind entity.TokenKind, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: kind,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature, expiry and type of token and returns its subject.
// The signature is checked before the claims, so ErrTokenExpired is only
// returned for tokens this signer actually issued.
func (s *Signer) Parse(tokenStr string, kind entity.TokenKind) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	expired := errors.Is(err, jwt.ErrTokenExpired)
	if err != nil && !expired {
		return "", domain.ErrTokenInvalid
	}
	if claims.TokenType != kind || claims.Subject == "" {
		return "", domain.ErrTokenInvalid
	}
	if expired {
		return "", domain.ErrTokenExpired
	}
	return claims.Subject, nil
}
