package models

import (
	"strings"
	"time"
)

// MaxCollaborators caps the number of collaborators per board.
const MaxCollaborators = 10

// User is a registered account. Password holds the bcrypt hash.
type User struct {
	ID        int64     `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Board groups tasks under a single admin.
type Board struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	AdminID   int64     `json:"admin_id" db:"admin_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// BoardDetail is a board with its (optionally filtered) tasks.
type BoardDetail struct {
	Board
	Tasks                []Task  `json:"tasks"`
	Collaborators        []User  `json:"collaborators"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// Task is a card on a board.
type Task struct {
	ID             int64        `json:"id" db:"id"`
	BoardID        int64        `json:"board_id" db:"board_id"`
	Title          string       `json:"title" db:"title"`
	Description    string       `json:"description" db:"description"`
	Status         TaskStatus   `json:"status" db:"status"`
	Priority       TaskPriority `json:"priority" db:"priority"`
	AssignedUserID *int64       `json:"assigned_user_id" db:"assigned_user_id"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// TaskStatus is the board column of a task. Any transition is allowed.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

// ParseTaskStatus accepts status names case-insensitively.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	switch s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusTodo, StatusInProgress, StatusDone:
		return s, true
	}
	return "", false
}

// ParseTaskPriority accepts priority names case-insensitively.
func ParseTaskPriority(raw string) (TaskPriority, bool) {
	switch p := TaskPriority(strings.ToUpper(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return "", false
}

// TaskFilter narrows the tasks returned with a board. Empty fields match all.
type TaskFilter struct {
	Status   TaskStatus
	Priority TaskPriority
}

// Match reports whether t passes the filter.
func (f TaskFilter) Match(t Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	return true
}

// CompletionPercentage is the share of DONE tasks, 0 to 100.
func CompletionPercentage(tasks []Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == StatusDone {
			done++
		}
	}
	return float64(done) * 100 / float64(len(tasks))
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
