package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/team-board-api/internal/constants"
	"github.com/yukikurage/team-board-api/internal/models"
	"github.com/yukikurage/team-board-api/internal/repository"
	"github.com/yukikurage/team-board-api/internal/utils"
	"gorm.io/datatypes"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrColumnRequired         = errors.New("columnId is required")
	ErrInvalidPriority        = errors.New("priority must be Low, Medium or High")
	ErrInvalidTaskAssignee    = errors.New("one or more assignees do not exist")
	ErrSourceColumnMismatch   = errors.New("task is not in the source column")
	ErrNegativeIndex          = errors.New("newIndex cannot be negative")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskFields holds the editable fields shared by create and update.
type TaskFields struct {
	Title       string
	Description string
	DueDate     *time.Time
	Tags        []string
	Priority    models.TaskPriority
	// AssigneeIDs replaces the assignee set when non-nil
	AssigneeIDs *[]uint64
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ColumnID string
	TaskFields
}

// MoveTaskInput represents a drag-and-drop move
type MoveTaskInput struct {
	TaskID         string
	SourceColumnID string
	DestColumnID   string
	NewIndex       int
}

// ListTasks returns every task, newest first
func (s *BoardService) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// ListTeamTasks returns tasks with more than one assignee
func (s *BoardService) ListTeamTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.taskRepo.List(ctx, repository.TaskFilter{SharedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list team tasks: %w", err)
	}
	return tasks, nil
}

// GetTask returns a task with its assignees
func (s *BoardService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// CreateTask appends a task to the end of a column
func (s *BoardService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.ColumnID) == "" {
		return nil, ErrColumnRequired
	}
	task, assigneeIDs, err := s.buildTask(ctx, input.TaskFields)
	if err != nil {
		return nil, err
	}
	task.ColumnID = input.ColumnID

	var ids []uint64
	if assigneeIDs != nil {
		ids = *assigneeIDs
	}

	err = s.mutate("create_task", func() error {
		return s.taskRepo.Create(ctx, task, ids)
	})
	if err != nil {
		if errors.Is(err, repository.ErrColumnNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.notify("task", "created", task.ID)
	return s.GetTask(ctx, task.ID)
}

// UpdateTask replaces a task's fields. Position and column do not change.
func (s *BoardService) UpdateTask(ctx context.Context, id string, fields TaskFields) (*models.Task, error) {
	task, assigneeIDs, err := s.buildTask(ctx, fields)
	if err != nil {
		return nil, err
	}
	task.ID = id

	err = s.mutate("update_task", func() error {
		return s.taskRepo.Update(ctx, task, assigneeIDs)
	})
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.notify("task", "updated", id)
	return s.GetTask(ctx, id)
}

// MoveTask moves a task to an index of a column
func (s *BoardService) MoveTask(ctx context.Context, input MoveTaskInput) error {
	if input.NewIndex < 0 {
		return ErrNegativeIndex
	}

	err := s.mutate("move_task", func() error {
		return s.taskRepo.Move(ctx, repository.MoveParams{
			TaskID:         input.TaskID,
			SourceColumnID: input.SourceColumnID,
			DestColumnID:   input.DestColumnID,
			NewIndex:       input.NewIndex,
		})
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			return ErrTaskNotFound
		case errors.Is(err, repository.ErrColumnNotFound):
			return ErrColumnNotFound
		case errors.Is(err, repository.ErrSourceColumnMismatch):
			return ErrSourceColumnMismatch
		default:
			return fmt.Errorf("failed to move task: %w", err)
		}
	}

	s.notify("task", "moved", input.TaskID)
	return nil
}

// DeleteTask deletes a task
func (s *BoardService) DeleteTask(ctx context.Context, id string) error {
	err := s.mutate("delete_task", func() error {
		return s.taskRepo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.notify("task", "deleted", id)
	return nil
}

// GenerateTasks uses AI to draft tasks from text. Drafts are not stored.
func (s *BoardService) GenerateTasks(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.generator == nil {
		return nil, ErrAIServiceNotConfigured
	}

	aiTasks, err := s.generator.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		aiTasks = aiTasks[:constants.MaxAIGeneratedTasks]
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}

		if aiTask.Due != nil {
			due, err := utils.ParseDueDate(*aiTask.Due)
			if err != nil || due == nil || due.Before(today) {
				aiTask.Due = nil
			} else {
				aiTask.Due = utils.FormatDueDate(due)
			}
		}

		if !models.TaskPriority(aiTask.Priority).IsValid() {
			aiTask.Priority = string(models.PriorityLow)
		}
		if aiTask.Tags == nil {
			aiTask.Tags = []string{}
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// buildTask validates fields and returns the task to store together with the
// deduplicated assignee IDs.
func (s *BoardService) buildTask(ctx context.Context, fields TaskFields) (*models.Task, *[]uint64, error) {
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return nil, nil, ErrTitleRequired
	}

	priority := fields.Priority
	if priority == "" {
		priority = models.PriorityLow
	}
	if !priority.IsValid() {
		return nil, nil, ErrInvalidPriority
	}

	// Tags are stored trimmed and blank ones are dropped
	tags := datatypes.JSONSlice[string]{}
	for _, tag := range fields.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	var assigneeIDs *[]uint64
	if fields.AssigneeIDs != nil {
		ids := uniqueUint64(*fields.AssigneeIDs)
		if len(ids) > 0 {
			count, err := s.taskRepo.CountUsersByIDs(ctx, ids)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to verify assignees: %w", err)
			}
			if int(count) != len(ids) {
				return nil, nil, ErrInvalidTaskAssignee
			}
		}
		assigneeIDs = &ids
	}

	task := &models.Task{
		Title:       title,
		Description: fields.Description,
		DueDate:     fields.DueDate,
		Tags:        tags,
		Priority:    priority,
	}
	return task, assigneeIDs, nil
}

func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
