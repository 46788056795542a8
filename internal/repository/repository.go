package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/team-board-api/internal/models"
)

var (
	// ErrColumnExists is returned when a column with the same slug is already on the board.
	ErrColumnExists = errors.New("board repository: column already exists")
	// ErrColumnNotFound is returned when a referenced column does not exist.
	ErrColumnNotFound = errors.New("board repository: column not found")
	// ErrTaskNotFound is returned when a referenced task does not exist.
	ErrTaskNotFound = errors.New("board repository: task not found")
	// ErrSourceColumnMismatch is returned when a move names a source column the task is not in.
	ErrSourceColumnMismatch = errors.New("board repository: task is not in the source column")
	// ErrInvalidColumnOrder is returned when a reorder is not a permutation of the existing columns.
	ErrInvalidColumnOrder = errors.New("board repository: column order must list every column exactly once")
)

// ColumnRepository defines the interface for column data access. Every
// mutating method keeps column positions dense.
type ColumnRepository interface {
	// List returns all columns ordered by position
	List(ctx context.Context) ([]models.Column, error)

	// FindByID finds a column by its slug
	FindByID(ctx context.Context, id string) (*models.Column, error)

	// Count returns the number of columns on the board
	Count(ctx context.Context) (int64, error)

	// Create appends a column at the end of the board
	Create(ctx context.Context, column *models.Column) error

	// Reorder sets each column's position to its index in order
	Reorder(ctx context.Context, order []string) error

	// Delete removes a column with its tasks and closes the gap it leaves
	Delete(ctx context.Context, id string) error
}

// TaskRepository defines the interface for task data access. Every mutating
// method keeps task positions dense within each column.
type TaskRepository interface {
	// Create appends a task to its column and assigns the given users
	Create(ctx context.Context, task *models.Task, assigneeIDs []uint64) error

	// FindByID finds a task with its assignees
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// List retrieves tasks newest first
	List(ctx context.Context, filter TaskFilter) ([]models.Task, error)

	// Update replaces a task's fields, and its assignees when assigneeIDs is non-nil
	Update(ctx context.Context, task *models.Task, assigneeIDs *[]uint64) error

	// Move places a task at an index of a column
	Move(ctx context.Context, params MoveParams) error

	// Delete removes a task and closes the gap it leaves
	Delete(ctx context.Context, id string) error

	// CountUsersByIDs counts how many of the given user IDs exist
	CountUsersByIDs(ctx context.Context, userIDs []uint64) (int64, error)
}

// BoardRepository reads the whole board.
type BoardRepository interface {
	// Snapshot returns columns by position and tasks by column and position,
	// read inside one transaction.
	Snapshot(ctx context.Context) ([]models.Column, []models.Task, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ColumnID *string
	// SharedOnly keeps tasks with more than one assignee
	SharedOnly bool
}

// MoveParams describes a drag-and-drop move.
type MoveParams struct {
	TaskID         string
	SourceColumnID string
	DestColumnID   string
	NewIndex       int
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByGoogleID finds a user by Google account id
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)

	// FindByResetToken finds a user holding an unexpired password reset token
	FindByResetToken(ctx context.Context, token string) (*models.User, error)

	// ExistsByUsername reports whether another user already has the username
	ExistsByUsername(ctx context.Context, username string, excludeID uint64) (bool, error)

	// ExistsByEmail reports whether another user already has the email
	ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error)

	// List returns all users ordered by ID
	List(ctx context.Context) ([]models.User, error)

	// UpdateFields sets the given columns on a user
	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error

	// Delete removes a user and their task assignments
	Delete(ctx context.Context, id uint64) error
}
