package service

import (
	"context"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

// UserService exposes account lookups.
type UserService struct {
	repo UserRepository
}

// NewUserService builds a UserService over repo.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Me returns the account for email, rejecting disabled accounts.
func (s *UserService) Me(ctx context.Context, email string) (models.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return models.User{}, err
	}
	if !u.IsActive {
		return models.User{}, apperr.InactiveAccount("User is inactive.")
	}
	return u, nil
}

// List returns one page of users with the overall count.
func (s *UserService) List(ctx context.Context, offset, limit int) (models.Page[models.User], error) {
	users, err := s.repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	if users == nil {
		users = []models.User{}
	}
	return models.Page[models.User]{Items: users, Total: total, Offset: offset, Limit: limit}, nil
}
