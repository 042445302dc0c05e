package service

import (
	"context"

	"taskboard/internal/models"
)

// Repositories return *apperr.Error with KindNotFound for missing rows.

// AuthRepository reads and creates credentials.
type AuthRepository interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// CreateUser fails with KindDuplicateEmail when the email is taken.
	CreateUser(ctx context.Context, u models.User) (models.User, error)
}

// UserRepository reads user accounts.
type UserRepository interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// BoardRepository persists boards and collaborator links.
type BoardRepository interface {
	ListBoardsByAdmin(ctx context.Context, adminID int64, offset, limit int) ([]models.Board, error)
	CountBoardsByAdmin(ctx context.Context, adminID int64) (int, error)
	GetBoard(ctx context.Context, id int64) (models.Board, error)
	CreateBoard(ctx context.Context, b models.Board) (models.Board, error)
	UpdateBoard(ctx context.Context, id int64, name string) (models.Board, error)
	// DeleteBoard removes the board, its tasks and its collaborator links.
	DeleteBoard(ctx context.Context, id int64) error

	ListCollaborators(ctx context.Context, boardID int64) ([]models.User, error)
	IsCollaborator(ctx context.Context, boardID, userID int64) (bool, error)
	// AddCollaborator counts and inserts atomically. It fails with
	// KindCapacityExceeded when the board already has limit collaborators
	// and KindConflict when the link exists.
	AddCollaborator(ctx context.Context, boardID, userID int64, limit int) error
	// RemoveCollaborator deletes the link and clears the user's task
	// assignments on the board. KindNotFound when no link exists.
	RemoveCollaborator(ctx context.Context, boardID, userID int64) error
}

// TaskRepository persists tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	GetTask(ctx context.Context, id int64) (models.Task, error)
	ListTasks(ctx context.Context, boardID int64) ([]models.Task, error)
	UpdateTask(ctx context.Context, id int64, changes models.TaskChanges) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	// AssignTask sets the assignee atomically with the membership check. It
	// fails with KindForbidden when userID is neither the board admin nor a
	// collaborator.
	AssignTask(ctx context.Context, id, userID int64) (models.Task, error)
	UnassignTask(ctx context.Context, id int64) (models.Task, error)
}

// Store is satisfied by a single backend implementing every repository.
type Store interface {
	AuthRepository
	UserRepository
	BoardRepository
	TaskRepository
}
