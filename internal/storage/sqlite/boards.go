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

const boardColumns = `id, name, admin_id, created_at, updated_at`

// ListBoardsByAdmin returns boards administered by adminID ordered by creation.
func (s *Store) ListBoardsByAdmin(ctx context.Context, adminID int64, offset, limit int) ([]models.Board, error) {
	var boards []models.Board
	err := s.db.SelectContext(ctx, &boards, `SELECT `+boardColumns+` FROM boards WHERE admin_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		adminID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// CountBoardsByAdmin counts boards administered by adminID.
func (s *Store) CountBoardsByAdmin(ctx context.Context, adminID int64) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM boards WHERE admin_id = ?`, adminID); err != nil {
		return 0, fmt.Errorf("count boards: %w", err)
	}
	return n, nil
}

// GetBoard fetches a single board by id.
func (s *Store) GetBoard(ctx context.Context, id int64) (models.Board, error) {
	var b models.Board
	err := s.db.GetContext(ctx, &b, `SELECT `+boardColumns+` FROM boards WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Board{}, apperr.NotFound("Board with ID %d not found.", id)
	}
	if err != nil {
		return models.Board{}, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// CreateBoard persists a new board.
func (s *Store) CreateBoard(ctx context.Context, b models.Board) (models.Board, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO boards(name, admin_id) VALUES(?, ?)`, b.Name, b.AdminID)
	if isForeignKeyViolation(err) {
		return models.Board{}, apperr.NotFound("User with ID %d not found.", b.AdminID)
	}
	if err != nil {
		return models.Board{}, fmt.Errorf("insert board: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Board{}, fmt.Errorf("board id: %w", err)
	}
	return s.GetBoard(ctx, id)
}

// UpdateBoard renames a board.
func (s *Store) UpdateBoard(ctx context.Context, id int64, name string) (models.Board, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE boards SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		return models.Board{}, fmt.Errorf("update board: %w", err)
	}
	if err := expectAffected(res, apperr.NotFound("Board with ID %d not found.", id)); err != nil {
		return models.Board{}, err
	}
	return s.GetBoard(ctx, id)
}

// DeleteBoard removes a board; tasks and collaborator links cascade.
func (s *Store) DeleteBoard(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	return expectAffected(res, apperr.NotFound("Board with ID %d not found.", id))
}

// ListCollaborators returns the users linked to boardID.
func (s *Store) ListCollaborators(ctx context.Context, boardID int64) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users, `SELECT u.id, u.first_name, u.last_name, u.email, u.password, u.is_active, u.created_at, u.updated_at
        FROM users u JOIN user_board_links l ON l.user_id = u.id
        WHERE l.board_id = ? ORDER BY u.id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("list collaborators: %w", err)
	}
	return users, nil
}

// IsCollaborator reports whether a link exists.
func (s *Store) IsCollaborator(ctx context.Context, boardID, userID int64) (bool, error) {
	return isCollaborator(ctx, s.db, boardID, userID)
}

func isCollaborator(ctx context.Context, q sqlx.QueryerContext, boardID, userID int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, `SELECT EXISTS(SELECT 1 FROM user_board_links WHERE board_id = ? AND user_id = ?)`, boardID, userID)
	if err != nil {
		return false, fmt.Errorf("check collaborator: %w", err)
	}
	return exists, nil
}

// AddCollaborator checks capacity and inserts the link in one transaction.
func (s *Store) AddCollaborator(ctx context.Context, boardID, userID int64, limit int) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		exists, err := isCollaborator(ctx, tx, boardID, userID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("User %d is already a collaborator of board %d.", userID, boardID)
		}

		var count int
		if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM user_board_links WHERE board_id = ?`, boardID); err != nil {
			return fmt.Errorf("count collaborators: %w", err)
		}
		if count >= limit {
			return apperr.CapacityExceeded("Board %d already has the maximum of %d collaborators.", boardID, limit)
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO user_board_links(user_id, board_id) VALUES(?, ?)`, userID, boardID)
		switch {
		case isUniqueViolation(err):
			return apperr.Wrap(apperr.KindConflict, err, "User %d is already a collaborator of board %d.", userID, boardID)
		case isForeignKeyViolation(err):
			return apperr.Wrap(apperr.KindNotFound, err, "Board %d or user %d not found.", boardID, userID)
		case err != nil:
			return fmt.Errorf("insert collaborator: %w", err)
		}
		return nil
	})
}

// RemoveCollaborator deletes the link and unassigns the user's tasks on the
// board.
func (s *Store) RemoveCollaborator(ctx context.Context, boardID, userID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM user_board_links WHERE board_id = ? AND user_id = ?`, boardID, userID)
		if err != nil {
			return fmt.Errorf("delete collaborator: %w", err)
		}
		if err := expectAffected(res, apperr.NotFound("User %d is not a collaborator of board %d.", userID, boardID)); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET assigned_user_id = NULL, updated_at = CURRENT_TIMESTAMP
            WHERE board_id = ? AND assigned_user_id = ?`, boardID, userID)
		if err != nil {
			return fmt.Errorf("unassign collaborator tasks: %w", err)
		}
		return nil
	})
}
