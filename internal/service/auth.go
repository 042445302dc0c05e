package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/security"
)

// AuthService handles credentials and bearer tokens.
type AuthService struct {
	repo   AuthRepository
	tokens *security.TokenManager
	logger *slog.Logger
}

// NewAuthService builds an AuthService issuing tokens with tokens.
func NewAuthService(repo AuthRepository, tokens *security.TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, logger: logger}
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords produce the same error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return models.User{}, err
	}
	if err != nil || !security.VerifyPassword(u.Password, password) {
		return models.User{}, apperr.Unauthenticated("Invalid credentials")
	}
	return u, nil
}

// Login authenticates and issues a token with the configured lifetime.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Token, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return models.Token{}, err
	}
	tok, err := s.IssueToken(u.Email, 0)
	if err != nil {
		return models.Token{}, err
	}
	return models.Token{AccessToken: tok, TokenType: security.TokenType}, nil
}

// IssueToken signs a token for email. A zero expiresIn uses the configured
// lifetime and a negative one yields an already expired token.
func (s *AuthService) IssueToken(email string, expiresIn time.Duration) (string, error) {
	return s.tokens.Issue(normalizeEmail(email), expiresIn)
}

// Identify verifies a bearer token and returns the email it was issued for.
func (s *AuthService) Identify(token string) (string, error) {
	return s.tokens.Verify(token)
}

// Register creates an account. The email must not be registered yet.
func (s *AuthService) Register(ctx context.Context, in models.UserCreate) (models.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.User{}, apperr.Validation("A valid email is required.")
	}
	if in.Password == "" {
		return models.User{}, apperr.Validation("Password must not be empty.")
	}
	if len(in.Password) > security.MaxPasswordBytes {
		return models.User{}, apperr.Validation("Password must be at most %d bytes.", security.MaxPasswordBytes)
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return models.User{}, apperr.DuplicateEmail(email)
	case !apperr.Is(err, apperr.KindNotFound):
		return models.User{}, err
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.repo.CreateUser(ctx, models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  hash,
		IsActive:  true,
	})
	if err != nil {
		return models.User{}, err
	}
	s.logger.Info("user registered", slog.Int64("user_id", u.ID))
	return u, nil
}
