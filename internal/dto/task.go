package dto

import (
	"time"

	"github.com/yukikurage/team-board-api/internal/models"
	"github.com/yukikurage/team-board-api/internal/services"
	"github.com/yukikurage/team-board-api/internal/utils"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	ColumnID    string    `json:"column_id"`
	Position    int       `json:"position"`
	Priority    string    `json:"priority"`
	Due         *string   `json:"due"`
	Tags        []string  `json:"tags"`
	Assignees   []string  `json:"assignees"`
	AssigneeIDs []uint64  `json:"assignee_ids"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ColumnDTO represents a newly created column
type ColumnDTO struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Position int       `json:"position"`
	Tasks    []TaskDTO `json:"tasks"`
}

// BoardDTO is the board grouped by column. ColumnOrder lists column IDs by
// position and Columns maps every listed ID to its tasks. ColumnTitles carries
// the display title of each column and is left out for an empty board.
type BoardDTO struct {
	ColumnOrder  []string             `json:"columnOrder"`
	Columns      map[string][]TaskDTO `json:"columns"`
	ColumnTitles map[string]string    `json:"columnTitles,omitempty"`
}

// GeneratedTaskDTO is an AI drafted task
type GeneratedTaskDTO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Due         *string  `json:"due"`
	Tags        []string `json:"tags"`
	Priority    string   `json:"priority"`
}

// ToTaskDTO converts a Task model to TaskDTO. Assignees must be preloaded
// with their users.
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.ColumnID,
		ColumnID:    task.ColumnID,
		Position:    task.Position,
		Priority:    string(task.Priority),
		Due:         utils.FormatDueDate(task.DueDate),
		Tags:        []string(task.Tags),
		Assignees:   make([]string, 0, len(task.Assignees)),
		AssigneeIDs: make([]uint64, 0, len(task.Assignees)),
		CreatedAt:   task.CreatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}

	for _, assignee := range task.Assignees {
		dto.Assignees = append(dto.Assignees, assignee.User.Username)
		dto.AssigneeIDs = append(dto.AssigneeIDs, assignee.UserID)
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// ToColumnDTO converts a Column model to ColumnDTO
func ToColumnDTO(column models.Column) ColumnDTO {
	return ColumnDTO{
		ID:       column.ID,
		Title:    column.Title,
		Position: column.Position,
		Tasks:    []TaskDTO{},
	}
}

// ToBoardDTO converts the board view
func ToBoardDTO(board *services.Board) BoardDTO {
	dto := BoardDTO{
		ColumnOrder:  make([]string, 0, len(board.Columns)),
		Columns:      make(map[string][]TaskDTO, len(board.Columns)),
		ColumnTitles: make(map[string]string, len(board.Columns)),
	}

	for _, column := range board.Columns {
		dto.ColumnOrder = append(dto.ColumnOrder, column.ID)
		dto.Columns[column.ID] = ToTaskDTOs(board.Tasks[column.ID])
		dto.ColumnTitles[column.ID] = column.Title
	}

	return dto
}

// ToGeneratedTaskDTOs converts AI drafts
func ToGeneratedTaskDTOs(tasks []services.GeneratedTask) []GeneratedTaskDTO {
	items := make([]GeneratedTaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = GeneratedTaskDTO{
			Title:       task.Title,
			Description: task.Description,
			Due:         task.Due,
			Tags:        task.Tags,
			Priority:    task.Priority,
		}
	}
	return items
}
