package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-board-api/internal/dto"
	apierrors "github.com/yukikurage/team-board-api/internal/errors"
	"github.com/yukikurage/team-board-api/internal/services"
)

// ColumnHandler serves the board view and column management.
type ColumnHandler struct {
	boardService *services.BoardService
}

func NewColumnHandler(boardService *services.BoardService) *ColumnHandler {
	return &ColumnHandler{
		boardService: boardService,
	}
}

// GetBoard returns the column order and each column's tasks
func (h *ColumnHandler) GetBoard(c *gin.Context) {
	board, err := h.boardService.GetBoard(c.Request.Context())
	if err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBoardDTO(board))
}

func (h *ColumnHandler) CreateColumn(c *gin.Context) {
	type CreateColumnRequest struct {
		Title string `json:"title" binding:"required,notblank"`
	}

	var req CreateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "Column title is required.", err)
		return
	}

	column, err := h.boardService.CreateColumn(c.Request.Context(), req.Title)
	if err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Column added successfully!",
		"column":  dto.ToColumnDTO(*column),
	})
}

// ReorderColumns stores a new column order. The order must name every
// column exactly once.
func (h *ColumnHandler) ReorderColumns(c *gin.Context) {
	type ReorderColumnsRequest struct {
		ColumnOrder []string `json:"columnOrder" binding:"required"`
	}

	var req ReorderColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindingError(c, "columnOrder must be an array.", err)
		return
	}

	if err := h.boardService.ReorderColumns(c.Request.Context(), req.ColumnOrder); err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column order updated successfully!",
	})
}

// DeleteColumn removes a column together with its tasks
func (h *ColumnHandler) DeleteColumn(c *gin.Context) {
	if err := h.boardService.DeleteColumn(c.Request.Context(), c.Param("id")); err != nil {
		respondColumnError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Column deleted successfully!",
	})
}

func respondColumnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrColumnTitleEmpty):
		apierrors.BadRequest(c, "Column title is required.")
	case errors.Is(err, services.ErrColumnExists):
		apierrors.Conflict(c, "A column with this title already exists.")
	case errors.Is(err, services.ErrInvalidColumnOrder):
		apierrors.BadRequest(c, "columnOrder must list every column exactly once.")
	case errors.Is(err, services.ErrColumnNotFound):
		apierrors.NotFound(c, "Column not found.")
	default:
		log.Printf("[board] column request failed: %v", err)
		apierrors.InternalError(c, "")
	}
}
