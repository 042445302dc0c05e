package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const maxBoardNameLen = 100

// BoardService manages boards owned by the calling user.
type BoardService struct {
	boards BoardRepository
	users  UserRepository
	tasks  TaskRepository
	logger *slog.Logger
}

// NewBoardService reads tasks from store for board details.
func NewBoardService(store interface {
	BoardRepository
	TaskRepository
}, users UserRepository, logger *slog.Logger) *BoardService {
	return &BoardService{boards: store, tasks: store, users: users, logger: logger}
}

// List returns the boards administered by the caller.
func (s *BoardService) List(ctx context.Context, email string, offset, limit int) (models.Page[models.Board], error) {
	caller, err := resolveCaller(ctx, s.users, email)
	if err != nil {
		return models.Page[models.Board]{}, err
	}
	boards, err := s.boards.ListBoardsByAdmin(ctx, caller.ID, offset, limit)
	if err != nil {
		return models.Page[models.Board]{}, err
	}
	total, err := s.boards.CountBoardsByAdmin(ctx, caller.ID)
	if err != nil {
		return models.Page[models.Board]{}, err
	}
	if boards == nil {
		boards = []models.Board{}
	}
	return models.Page[models.Board]{Items: boards, Total: total, Offset: offset, Limit: limit}, nil
}

// Get returns a board with its tasks narrowed by the optional status and
// priority filters. Boards the caller does not administer are reported as
// missing.
func (s *BoardService) Get(ctx context.Context, boardID int64, email, status, priority string) (models.BoardDetail, error) {
	filter, err := parseTaskFilter(status, priority)
	if err != nil {
		return models.BoardDetail{}, err
	}
	caller, err := resolveCaller(ctx, s.users, email)
	if err != nil {
		return models.BoardDetail{}, err
	}
	board, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return models.BoardDetail{}, err
	}
	if board.AdminID != caller.ID {
		return models.BoardDetail{}, boardNotFound(boardID)
	}

	all, err := s.tasks.ListTasks(ctx, boardID)
	if err != nil {
		return models.BoardDetail{}, err
	}
	tasks := make([]models.Task, 0, len(all))
	for _, t := range all {
		if filter.Match(t) {
			tasks = append(tasks, t)
		}
	}
	collaborators, err := s.boards.ListCollaborators(ctx, boardID)
	if err != nil {
		return models.BoardDetail{}, err
	}
	if collaborators == nil {
		collaborators = []models.User{}
	}
	return models.BoardDetail{
		Board:                board,
		Tasks:                tasks,
		Collaborators:        collaborators,
		CompletionPercentage: models.CompletionPercentage(all),
	}, nil
}

// Create stores a new board administered by the caller.
func (s *BoardService) Create(ctx context.Context, in models.BoardCreate, email string) (models.Board, error) {
	name, err := validBoardName(in.Name)
	if err != nil {
		return models.Board{}, err
	}
	caller, err := resolveCaller(ctx, s.users, email)
	if err != nil {
		return models.Board{}, err
	}
	board, err := s.boards.CreateBoard(ctx, models.Board{Name: name, AdminID: caller.ID})
	if err != nil {
		return models.Board{}, err
	}
	s.logger.Info("board created", slog.Int64("board_id", board.ID), slog.Int64("admin_id", caller.ID))
	return board, nil
}

// Update applies the provided fields. Only the admin may update.
func (s *BoardService) Update(ctx context.Context, boardID int64, in models.BoardUpdate, email string) (models.Board, error) {
	board, _, err := s.adminBoard(ctx, boardID, email, "update")
	if err != nil {
		return models.Board{}, err
	}
	if in.Name == nil {
		return board, nil
	}
	name, err := validBoardName(*in.Name)
	if err != nil {
		return models.Board{}, err
	}
	return s.boards.UpdateBoard(ctx, boardID, name)
}

// Delete removes the board with its tasks and collaborator links.
func (s *BoardService) Delete(ctx context.Context, boardID int64, email string) error {
	if _, _, err := s.adminBoard(ctx, boardID, email, "delete"); err != nil {
		return err
	}
	if err := s.boards.DeleteBoard(ctx, boardID); err != nil {
		return err
	}
	s.logger.Info("board deleted", slog.Int64("board_id", boardID))
	return nil
}

// AddCollaborator grants userID access to the board.
func (s *BoardService) AddCollaborator(ctx context.Context, boardID, userID int64, email string) error {
	_, caller, err := s.adminBoard(ctx, boardID, email, "manage collaborators of")
	if err != nil {
		return err
	}
	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if target.ID == caller.ID {
		return apperr.Validation("The board admin cannot be added as a collaborator.")
	}
	exists, err := s.boards.IsCollaborator(ctx, boardID, target.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperr.Conflict("User %d is already a collaborator of board %d.", target.ID, boardID)
	}
	// The repository re-checks both conditions inside its transaction.
	if err := s.boards.AddCollaborator(ctx, boardID, target.ID, models.MaxCollaborators); err != nil {
		return err
	}
	s.logger.Info("collaborator added", slog.Int64("board_id", boardID), slog.Int64("user_id", target.ID))
	return nil
}

// RemoveCollaborator revokes userID's access to the board.
func (s *BoardService) RemoveCollaborator(ctx context.Context, boardID, userID int64, email string) error {
	if _, _, err := s.adminBoard(ctx, boardID, email, "manage collaborators of"); err != nil {
		return err
	}
	if err := s.boards.RemoveCollaborator(ctx, boardID, userID); err != nil {
		return err
	}
	s.logger.Info("collaborator removed", slog.Int64("board_id", boardID), slog.Int64("user_id", userID))
	return nil
}

// adminBoard loads the board and the caller and checks that the caller is
// its admin.
func (s *BoardService) adminBoard(ctx context.Context, boardID int64, email, action string) (models.Board, models.User, error) {
	caller, err := resolveCaller(ctx, s.users, email)
	if err != nil {
		return models.Board{}, models.User{}, err
	}
	board, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return models.Board{}, models.User{}, err
	}
	if board.AdminID != caller.ID {
		return models.Board{}, models.User{}, apperr.Forbidden("User does not have permission to %s this board.", action)
	}
	return board, caller, nil
}

func boardNotFound(id int64) error {
	return apperr.NotFound("Board with ID %d not found.", id)
}

func validBoardName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.Validation("Board name must not be empty.")
	}
	if utf8.RuneCountInString(name) > maxBoardNameLen {
		return "", apperr.Validation("Board name must be at most %d characters.", maxBoardNameLen)
	}
	return name, nil
}

func parseTaskFilter(status, priority string) (models.TaskFilter, error) {
	var f models.TaskFilter
	if status != "" {
		st, ok := models.ParseTaskStatus(status)
		if !ok {
			return f, apperr.Validation("Invalid status: %s", status)
		}
		f.Status = st
	}
	if priority != "" {
		p, ok := models.ParseTaskPriority(priority)
		if !ok {
			return f, apperr.Validation("Invalid priority: %s", priority)
		}
		f.Priority = p
	}
	return f, nil
}
