// Package memory is an in-process implementation of the repositories with
// the same error behavior as the SQLite store. It backs service and router
// tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
)

type link struct {
	boardID int64
	userID  int64
}

// Store keeps every entity in maps guarded by a single mutex.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64

	users  map[int64]models.User
	boards map[int64]models.Board
	tasks  map[int64]models.Task
	links  map[link]time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		now:    func() time.Time { return time.Now().UTC() },
		users:  map[int64]models.User{},
		boards: map[int64]models.Board{},
		tasks:  map[int64]models.Task{},
		links:  map[link]time.Time{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// SetUserActive enables or disables an account. No route exposes it; it
// exists for operators and tests.
func (s *Store) SetUserActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("User with ID %d not found.", id)
	}
	u.IsActive = active
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, apperr.NotFound("User with email %s not found.", email)
}

// CreateUser stores u, rejecting an email that is already taken.
func (s *Store) CreateUser(_ context.Context, u models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.User{}, apperr.DuplicateEmail(u.Email)
		}
	}
	u.ID = s.id()
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

// GetUser fetches a single user by id.
func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, apperr.NotFound("User with ID %d not found.", id)
	}
	return u, nil
}

// ListUsers returns users ordered by id.
func (s *Store) ListUsers(_ context.Context, offset, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, offset, limit), nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

// ListBoardsByAdmin returns boards administered by adminID ordered by id.
func (s *Store) ListBoardsByAdmin(_ context.Context, adminID int64, offset, limit int) ([]models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(s.adminBoards(adminID), offset, limit), nil
}

// CountBoardsByAdmin counts boards administered by adminID.
func (s *Store) CountBoardsByAdmin(_ context.Context, adminID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.adminBoards(adminID)), nil
}

func (s *Store) adminBoards(adminID int64) []models.Board {
	var out []models.Board
	for _, b := range s.boards {
		if b.AdminID == adminID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetBoard fetches a single board by id.
func (s *Store) GetBoard(_ context.Context, id int64) (models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	if !ok {
		return models.Board{}, apperr.NotFound("Board with ID %d not found.", id)
	}
	return b, nil
}

// CreateBoard stores a board owned by an existing user.
func (s *Store) CreateBoard(_ context.Context, b models.Board) (models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[b.AdminID]; !ok {
		return models.Board{}, apperr.NotFound("User with ID %d not found.", b.AdminID)
	}
	b.ID = s.id()
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	s.boards[b.ID] = b
	return b, nil
}

// UpdateBoard renames a board.
func (s *Store) UpdateBoard(_ context.Context, id int64, name string) (models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boards[id]
	if !ok {
		return models.Board{}, apperr.NotFound("Board with ID %d not found.", id)
	}
	b.Name = name
	b.UpdatedAt = s.now()
	s.boards[id] = b
	return b, nil
}

// DeleteBoard removes a board with its tasks and collaborator links.
func (s *Store) DeleteBoard(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[id]; !ok {
		return apperr.NotFound("Board with ID %d not found.", id)
	}
	delete(s.boards, id)
	for tid, t := range s.tasks {
		if t.BoardID == id {
			delete(s.tasks, tid)
		}
	}
	for l := range s.links {
		if l.boardID == id {
			delete(s.links, l)
		}
	}
	return nil
}

// ListCollaborators returns the users linked to boardID.
func (s *Store) ListCollaborators(_ context.Context, boardID int64) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for l := range s.links {
		if l.boardID == boardID {
			out = append(out, s.users[l.userID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// IsCollaborator reports whether a link exists.
func (s *Store) IsCollaborator(_ context.Context, boardID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.links[link{boardID: boardID, userID: userID}]
	return ok, nil
}

// AddCollaborator links userID to the board unless it is full or linked already.
func (s *Store) AddCollaborator(_ context.Context, boardID, userID int64, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[boardID]; !ok {
		return apperr.NotFound("Board with ID %d not found.", boardID)
	}
	if _, ok := s.users[userID]; !ok {
		return apperr.NotFound("User with ID %d not found.", userID)
	}
	key := link{boardID: boardID, userID: userID}
	if _, ok := s.links[key]; ok {
		return apperr.Conflict("User %d is already a collaborator of board %d.", userID, boardID)
	}
	count := 0
	for l := range s.links {
		if l.boardID == boardID {
			count++
		}
	}
	if count >= limit {
		return apperr.CapacityExceeded("Board %d already has the maximum of %d collaborators.", boardID, limit)
	}
	s.links[key] = s.now()
	return nil
}

// RemoveCollaborator deletes the link and unassigns the user's tasks on the board.
func (s *Store) RemoveCollaborator(_ context.Context, boardID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := link{boardID: boardID, userID: userID}
	if _, ok := s.links[key]; !ok {
		return apperr.NotFound("User %d is not a collaborator of board %d.", userID, boardID)
	}
	delete(s.links, key)
	for id, t := range s.tasks {
		if t.BoardID == boardID && t.AssignedUserID != nil && *t.AssignedUserID == userID {
			t.AssignedUserID = nil
			t.UpdatedAt = s.now()
			s.tasks[id] = t
		}
	}
	return nil
}

// CreateTask stores a task on an existing board.
func (s *Store) CreateTask(_ context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[t.BoardID]; !ok {
		return models.Task{}, apperr.NotFound("Board with ID %d not found.", t.BoardID)
	}
	t.ID = s.id()
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.tasks[t.ID] = t
	return t, nil
}

// GetTask fetches a single task by id.
func (s *Store) GetTask(_ context.Context, id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, apperr.NotFound("Task with ID %d not found.", id)
	}
	return t, nil
}

// ListTasks returns the board's tasks ordered by id.
func (s *Store) ListTasks(_ context.Context, boardID int64) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Task
	for _, t := range s.tasks {
		if t.BoardID == boardID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateTask applies the non-nil fields of c.
func (s *Store) UpdateTask(_ context.Context, id int64, c models.TaskChanges) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, apperr.NotFound("Task with ID %d not found.", id)
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return t, nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return apperr.NotFound("Task with ID %d not found.", id)
	}
	delete(s.tasks, id)
	return nil
}

// AssignTask sets the assignee if they administer or collaborate on the board.
func (s *Store) AssignTask(_ context.Context, id, userID int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, apperr.NotFound("Task with ID %d not found.", id)
	}
	if _, ok := s.users[userID]; !ok {
		return models.Task{}, apperr.NotFound("User with ID %d not found.", userID)
	}
	b := s.boards[t.BoardID]
	if _, member := s.links[link{boardID: b.ID, userID: userID}]; b.AdminID != userID && !member {
		return models.Task{}, apperr.Forbidden("User %d is neither the admin nor a collaborator of this board.", userID)
	}
	t.AssignedUserID = &userID
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return t, nil
}

// UnassignTask clears the task's assignee.
func (s *Store) UnassignTask(_ context.Context, id int64) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return models.Task{}, apperr.NotFound("Task with ID %d not found.", id)
	}
	t.AssignedUserID = nil
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return t, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
