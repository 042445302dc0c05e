// Package security hashes passwords and issues bearer tokens whose subject is
// the user's email.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskboard/internal/apperr"
)

// DefaultTokenTTL applies when neither the caller nor the manager set one.
const DefaultTokenTTL = 15 * time.Minute

// TokenType is returned alongside issued tokens.
const TokenType = "bearer"

// TokenManager signs and verifies HMAC JWTs.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewTokenManager builds a manager for the given secret and HMAC algorithm
// (HS256, HS384 or HS512). A zero ttl falls back to DefaultTokenTTL.
func NewTokenManager(secret, algorithm string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		method: method,
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{method.Alg()}), jwt.WithExpirationRequired()),
		now:    time.Now,
	}, nil
}

// TTL is the lifetime used by Issue when no explicit expiry is given.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for subject. expiresIn of zero uses the manager TTL;
// a negative value produces an already expired token.
func (m *TokenManager) Issue(subject string, expiresIn time.Duration) (string, error) {
	if expiresIn == 0 {
		expiresIn = m.ttl
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the subject.
func (m *TokenManager) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := m.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", apperr.Wrap(apperr.KindUnauthenticated, err, "Token has expired.")
	case err != nil:
		return "", apperr.Wrap(apperr.KindUnauthenticated, err, "Invalid token.")
	}
	if claims.Subject == "" {
		return "", apperr.Unauthenticated("Invalid token.")
	}
	return claims.Subject, nil
}
