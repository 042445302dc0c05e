package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

const taskColumns = `id, board_id, title, description, status, priority, assigned_user_id, created_at, updated_at`

// ListTasks returns tasks for the given board ordered by id.
func (s *Store) ListTasks(ctx context.Context, boardID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := s.db.SelectContext(ctx, &tasks, `SELECT `+taskColumns+` FROM tasks WHERE board_id = ? ORDER BY id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask inserts a new task for a board.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(board_id, title, description, status, priority, assigned_user_id) VALUES(?, ?, ?, ?, ?, ?)`,
		t.BoardID, t.Title, t.Description, t.Status, t.Priority, t.AssignedUserID)
	if isForeignKeyViolation(err) {
		return models.Task{}, apperr.NotFound("Board with ID %d not found.", t.BoardID)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var t models.Task
	err := s.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, apperr.NotFound("Task with ID %d not found.", id)
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies the non-nil changes.
func (s *Store) UpdateTask(ctx context.Context, id int64, c models.TaskChanges) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	if c.Title != nil {
		current.Title = *c.Title
	}
	if c.Description != nil {
		current.Description = *c.Description
	}
	if c.Status != nil {
		current.Status = *c.Status
	}
	if c.Priority != nil {
		current.Priority = *c.Priority
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current.Title, current.Description, current.Status, current.Priority, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectAffected(res, apperr.NotFound("Task with ID %d not found.", id))
}

// AssignTask makes userID the assignee when they administer or collaborate
// on the task's board. The membership check and the update share one
// transaction so a concurrent RemoveCollaborator cannot interleave.
func (s *Store) AssignTask(ctx context.Context, id, userID int64) (models.Task, error) {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var owner struct {
			BoardID int64 `db:"board_id"`
			AdminID int64 `db:"admin_id"`
		}
		err := tx.GetContext(ctx, &owner, `SELECT t.board_id, b.admin_id FROM tasks t JOIN boards b ON b.id = t.board_id WHERE t.id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("Task with ID %d not found.", id)
		}
		if err != nil {
			return fmt.Errorf("load task board: %w", err)
		}

		if userID != owner.AdminID {
			member, err := isCollaborator(ctx, tx, owner.BoardID, userID)
			if err != nil {
				return err
			}
			if !member {
				return apperr.Forbidden("User %d is neither the admin nor a collaborator of this board.", userID)
			}
		}

		_, err = tx.ExecContext(ctx, `UPDATE tasks SET assigned_user_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, userID, id)
		if isForeignKeyViolation(err) {
			return apperr.NotFound("User with ID %d not found.", userID)
		}
		if err != nil {
			return fmt.Errorf("assign task: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UnassignTask clears the task's assignee.
func (s *Store) UnassignTask(ctx context.Context, id int64) (models.Task, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE tasks SET assigned_user_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("unassign task: %w", err)
	}
	if err := expectAffected(res, apperr.NotFound("Task with ID %d not found.", id)); err != nil {
		return models.Task{}, err
	}
	return s.GetTask(ctx, id)
}
