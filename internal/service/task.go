package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const (
	maxTaskTitleLen       = 100
	maxTaskDescriptionLen = 500
)

// TaskService manages tasks. Every operation is reserved to the admin of the
// task's board; collaborators may only be assignees.
type TaskService struct {
	tasks  TaskRepository
	boards BoardRepository
	users  UserRepository
	logger *slog.Logger
}

// NewTaskService builds a TaskService over the given repositories.
func NewTaskService(tasks TaskRepository, boards BoardRepository, users UserRepository, logger *slog.Logger) *TaskService {
	return &TaskService{tasks: tasks, boards: boards, users: users, logger: logger}
}

// Create adds a task to boardID.
func (s *TaskService) Create(ctx context.Context, boardID int64, in models.TaskCreate, email string) (models.Task, error) {
	caller, err := resolveCaller(ctx, s.users, email)
	if err != nil {
		return models.Task{}, err
	}
	board, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return models.Task{}, err
	}
	if board.AdminID != caller.ID {
		return models.Task{}, apperr.Forbidden("User does not have permission to create tasks in this board.")
	}

	task := models.Task{
		BoardID:     boardID,
		Status:      models.StatusTodo,
		Priority:    models.PriorityMedium,
		Description: strings.TrimSpace(in.Description),
	}
	if task.Title, err = validTaskTitle(in.Title); err != nil {
		return models.Task{}, err
	}
	if err := validTaskDescription(task.Description); err != nil {
		return models.Task{}, err
	}
	if in.Status != "" {
		st, ok := models.ParseTaskStatus(in.Status)
		if !ok {
			return models.Task{}, apperr.Validation("Invalid status: %s", in.Status)
		}
		task.Status = st
	}
	if in.Priority != "" {
		p, ok := models.ParseTaskPriority(in.Priority)
		if !ok {
			return models.Task{}, apperr.Validation("Invalid priority: %s", in.Priority)
		}
		task.Priority = p
	}

	created, err := s.tasks.CreateTask(ctx, task)
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Info("task created", slog.Int64("task_id", created.ID), slog.Int64("board_id", boardID))
	return created, nil
}

// Get returns the task if the caller administers its board.
func (s *TaskService) Get(ctx context.Context, taskID int64, email string) (models.Task, error) {
	task, _, err := s.adminTask(ctx, taskID, email, "access")
	return task, err
}

// Update applies the provided fields.
func (s *TaskService) Update(ctx context.Context, taskID int64, in models.TaskUpdate, email string) (models.Task, error) {
	changes, err := taskChanges(in)
	if err != nil {
		return models.Task{}, err
	}
	if _, _, err := s.adminTask(ctx, taskID, email, "update"); err != nil {
		return models.Task{}, err
	}
	return s.tasks.UpdateTask(ctx, taskID, changes)
}

// Delete removes the task.
func (s *TaskService) Delete(ctx context.Context, taskID int64, email string) error {
	if _, _, err := s.adminTask(ctx, taskID, email, "delete"); err != nil {
		return err
	}
	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	s.logger.Info("task deleted", slog.Int64("task_id", taskID))
	return nil
}

// Assign gives the task to userID, who must be the board admin or one of its
// collaborators.
func (s *TaskService) Assign(ctx context.Context, taskID, userID int64, email string) (models.Task, error) {
	if _, _, err := s.adminTask(ctx, taskID, email, "assign tasks in"); err != nil {
		return models.Task{}, err
	}
	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return models.Task{}, err
	}
	task, err := s.tasks.AssignTask(ctx, taskID, target.ID)
	if err != nil {
		return models.Task{}, err
	}
	s.logger.Info("task assigned", slog.Int64("task_id", taskID), slog.Int64("user_id", target.ID))
	return task, nil
}

// Unassign clears the task's assignee.
func (s *TaskService) Unassign(ctx context.Context, taskID int64, email string) (models.Task, error) {
	task, _, err := s.adminTask(ctx, taskID, email, "unassign tasks in")
	if err != nil {
		return models.Task{}, err
	}
	if task.AssignedUserID == nil {
		return models.Task{}, apperr.Validation("Task is not assigned to any user.")
	}
	return s.tasks.UnassignTask(ctx, taskID)
}

func (s *TaskService) adminTask(ctx context.Context, taskID int64, email, action string) (models.Task, models.Board, error) {
	caller, err := resolveCaller(ctx, s.users, email)
	if err != nil {
		return models.Task{}, models.Board{}, err
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, models.Board{}, err
	}
	board, err := s.boards.GetBoard(ctx, task.BoardID)
	if err != nil {
		return models.Task{}, models.Board{}, err
	}
	if board.AdminID != caller.ID {
		return models.Task{}, models.Board{}, apperr.Forbidden("User does not have permission to %s this task.", action)
	}
	return task, board, nil
}

func taskChanges(in models.TaskUpdate) (models.TaskChanges, error) {
	var c models.TaskChanges
	if in.Title != nil {
		title, err := validTaskTitle(*in.Title)
		if err != nil {
			return c, err
		}
		c.Title = &title
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if err := validTaskDescription(desc); err != nil {
			return c, err
		}
		c.Description = &desc
	}
	if in.Status != nil {
		st, ok := models.ParseTaskStatus(*in.Status)
		if !ok {
			return c, apperr.Validation("Invalid status: %s", *in.Status)
		}
		c.Status = &st
	}
	if in.Priority != nil {
		p, ok := models.ParseTaskPriority(*in.Priority)
		if !ok {
			return c, apperr.Validation("Invalid priority: %s", *in.Priority)
		}
		c.Priority = &p
	}
	return c, nil
}

func validTaskTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperr.Validation("Task title must not be empty.")
	}
	if utf8.RuneCountInString(title) > maxTaskTitleLen {
		return "", apperr.Validation("Task title must be at most %d characters.", maxTaskTitleLen)
	}
	return title, nil
}

func validTaskDescription(desc string) error {
	if utf8.RuneCountInString(desc) > maxTaskDescriptionLen {
		return apperr.Validation("Task description must be at most %d characters.", maxTaskDescriptionLen)
	}
	return nil
}
