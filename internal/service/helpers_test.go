package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/security"
	"taskboard/internal/storage/memory"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	svc   *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := security.NewTokenManager("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{ctx: context.Background(), store: store, svc: New(store, tokens, logger)}
}

func (f *fixture) register(t *testing.T, email string) models.User {
	t.Helper()
	u, err := f.svc.Auth.Register(f.ctx, models.UserCreate{Email: email, Password: "pw-" + email})
	require.NoError(t, err)
	return u
}

func (f *fixture) registerN(t *testing.T, n int, prefix string) []models.User {
	t.Helper()
	users := make([]models.User, n)
	for i := range users {
		users[i] = f.register(t, fmt.Sprintf("%s%d@example.com", prefix, i))
	}
	return users
}

func (f *fixture) board(t *testing.T, email, name string) models.Board {
	t.Helper()
	b, err := f.svc.Boards.Create(f.ctx, models.BoardCreate{Name: name}, email)
	require.NoError(t, err)
	return b
}

func (f *fixture) task(t *testing.T, boardID int64, email, title string) models.Task {
	t.Helper()
	task, err := f.svc.Tasks.Create(f.ctx, boardID, models.TaskCreate{Title: title}, email)
	require.NoError(t, err)
	return task
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

func ptr[T any](v T) *T {
	return &v
}
