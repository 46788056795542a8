package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/team-board-api/internal/dto"
	apierrors "github.com/yukikurage/team-board-api/internal/errors"
	"github.com/yukikurage/team-board-api/internal/models"
	"github.com/yukikurage/team-board-api/internal/services"
	"github.com/yukikurage/team-board-api/internal/utils"
)

const (
	msgTaskFieldsRequired = "Column ID and task title are required."
	msgTaskTitleRequired  = "Task title is required."
	msgMoveFieldsRequired = "Source column, destination column, and new index are required."
	msgInvalidTaskData    = "Invalid task data."
)

type TaskHandler struct {
	boardService *services.BoardService
}

func NewTaskHandler(boardService *services.BoardService) *TaskHandler {
	return &TaskHandler{
		boardService: boardService,
	}
}

// taskFieldsRequest holds the fields shared by create and update.
type taskFieldsRequest struct {
	Title       string    `json:"title" binding:"required,notblank"`
	Description string    `json:"description"`
	Due         *string   `json:"due" binding:"omitempty,duedate"`
	Tags        []string  `json:"tags"`
	AssigneeIDs *[]uint64 `json:"assignee_ids"`
	Priority    string    `json:"priority" binding:"priority"`
}

func (r taskFieldsRequest) toFields() services.TaskFields {
	fields := services.TaskFields{
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Priority:    models.TaskPriority(r.Priority),
		AssigneeIDs: r.AssigneeIDs,
	}
	if r.Due != nil {
		// already checked by the duedate rule
		fields.DueDate, _ = utils.ParseDueDate(*r.Due)
	}
	return fields
}

// ListTasks returns every task, newest first
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.boardService.ListTasks(c.Request.Context())
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// ListTeamTasks returns tasks shared by more than one assignee
func (h *TaskHandler) ListTeamTasks(c *gin.Context) {
	tasks, err := h.boardService.ListTeamTasks(c.Request.Context())
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTOs(tasks))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.boardService.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask appends a new task to a column
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		ColumnID string `json:"columnId" binding:"required,notblank"`
		taskFieldsRequest
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, bindingMessage(err, msgTaskFieldsRequired), err)
		return
	}

	task, err := h.boardService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		ColumnID:   req.ColumnID,
		TaskFields: req.toFields(),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Task added successfully!",
		"task":    dto.ToTaskDTO(*task),
	})
}

// UpdateTask replaces the editable fields of a task. Fields left out of the
// body are reset; assignee_ids is only applied when present.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req taskFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, bindingMessage(err, msgTaskTitleRequired), err)
		return
	}

	task, err := h.boardService.UpdateTask(c.Request.Context(), c.Param("id"), req.toFields())
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task updated successfully!",
		"task":    dto.ToTaskDTO(*task),
	})
}

// MoveTask handles a drag and drop between or within columns
func (h *TaskHandler) MoveTask(c *gin.Context) {
	type MoveTaskRequest struct {
		SourceColumnID string `json:"sourceColumnId" binding:"required"`
		DestColumnID   string `json:"destColumnId" binding:"required"`
		NewIndex       *int   `json:"newIndex" binding:"required"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, msgMoveFieldsRequired, err)
		return
	}

	err := h.boardService.MoveTask(c.Request.Context(), services.MoveTaskInput{
		TaskID:         c.Param("id"),
		SourceColumnID: req.SourceColumnID,
		DestColumnID:   req.DestColumnID,
		NewIndex:       *req.NewIndex,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task moved successfully!",
	})
}

// DeleteTask deletes a task and closes the gap it leaves
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.boardService.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully!",
	})
}

// GenerateTasks drafts task suggestions from text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required,notblank"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Text is required.", err)
		return
	}

	drafts, err := h.boardService.GenerateTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToGeneratedTaskDTOs(drafts),
	})
}

// bindingMessage picks requiredMsg when a required field is missing and a
// generic message for any other binding failure.
func bindingMessage(err error, requiredMsg string) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return requiredMsg
	}
	for _, fieldErr := range validationErrs {
		if fieldErr.Tag() == "required" || fieldErr.Tag() == "notblank" {
			return requiredMsg
		}
	}
	return msgInvalidTaskData
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found.")
	case errors.Is(err, services.ErrColumnNotFound):
		apierrors.NotFound(c, "Column not found.")
	case errors.Is(err, services.ErrColumnRequired):
		apierrors.BadRequest(c, msgTaskFieldsRequired)
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, msgTaskTitleRequired)
	case errors.Is(err, services.ErrInvalidPriority):
		apierrors.BadRequest(c, "Priority must be Low, Medium or High.")
	case errors.Is(err, services.ErrInvalidTaskAssignee):
		apierrors.BadRequest(c, "One or more assignees do not exist.")
	case errors.Is(err, services.ErrNegativeIndex):
		apierrors.BadRequest(c, "New index cannot be negative.")
	case errors.Is(err, services.ErrSourceColumnMismatch):
		apierrors.Conflict(c, "Task is not in the source column.")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, "No tasks could be generated from the given text.")
	default:
		log.Printf("[board] task request failed: %v", err)
		apierrors.InternalError(c, "")
	}
}
