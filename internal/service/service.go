// Package service enforces ownership and authorization rules for users,
// boards and tasks on top of the repository interfaces.
package service

import (
	"context"
	"log/slog"
	"strings"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/security"
)

// Services bundles the application services sharing one store.
type Services struct {
	Auth   *AuthService
	Users  *UserService
	Boards *BoardService
	Tasks  *TaskService
}

// New wires every service to store.
func New(store Store, tokens *security.TokenManager, logger *slog.Logger) *Services {
	if logger == nil {
		logger = slog.Default()
	}
	return &Services{
		Auth:   NewAuthService(store, tokens, logger),
		Users:  NewUserService(store),
		Boards: NewBoardService(store, store, logger),
		Tasks:  NewTaskService(store, store, store, logger),
	}
}

// resolveCaller maps the token subject to an active user.
func resolveCaller(ctx context.Context, users interface {
	GetUserByEmail(context.Context, string) (models.User, error)
}, email string) (models.User, error) {
	u, err := users.GetUserByEmail(ctx, normalizeEmail(email))
	if apperr.Is(err, apperr.KindNotFound) {
		return models.User{}, apperr.Unauthenticated("Could not validate credentials")
	}
	if err != nil {
		return models.User{}, err
	}
	if !u.IsActive {
		return models.User{}, apperr.InactiveAccount("User is inactive.")
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
