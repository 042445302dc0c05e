package models

// UserCreate is the registration payload.
type UserCreate struct {
	FirstName string `json:"first_name" binding:"max=50"`
	LastName  string `json:"last_name" binding:"max=50"`
	Email     string `json:"email" binding:"required,email,max=100"`
	Password  string `json:"password" binding:"required,min=1,max=72"`
}

// BoardCreate is the payload for new boards.
type BoardCreate struct {
	Name string `json:"name"`
}

// BoardUpdate changes only the provided fields.
type BoardUpdate struct {
	Name *string `json:"name"`
}

// TaskCreate is the payload for new tasks. Empty status and priority take
// the TODO and MEDIUM defaults.
type TaskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

// TaskUpdate changes only the provided fields.
type TaskUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
}

// TaskChanges is a validated TaskUpdate handed to repositories.
type TaskChanges struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
}
