package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/yukikurage/team-board-api/internal/constants"
	"github.com/yukikurage/team-board-api/internal/models"
	"github.com/yukikurage/team-board-api/internal/repository"
	"github.com/yukikurage/team-board-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrColumnNotFound     = errors.New("column not found")
	ErrColumnExists       = errors.New("a column with this title already exists")
	ErrColumnTitleEmpty   = errors.New("column title cannot be empty")
	ErrInvalidColumnOrder = errors.New("columnOrder must list every column exactly once")
)

// BoardNotifier is told about every committed board change.
type BoardNotifier interface {
	BoardChanged(entity, action, id string)
}

// OperationObserver records the outcome of board operations.
type OperationObserver interface {
	ObserveBoardOperation(operation string, err error)
}

// TaskGenerator drafts tasks from free text.
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// BoardService owns columns and tasks. Every operation that rewrites positions
// runs under one lock, so position arithmetic from concurrent requests never
// interleaves inside this process.
type BoardService struct {
	columnRepo repository.ColumnRepository
	taskRepo   repository.TaskRepository
	boardRepo  repository.BoardRepository
	generator  TaskGenerator
	notifier   BoardNotifier
	observer   OperationObserver

	mu sync.Mutex
}

// NewBoardService creates a new BoardService. generator, notifier and
// observer may be nil.
func NewBoardService(
	columnRepo repository.ColumnRepository,
	taskRepo repository.TaskRepository,
	boardRepo repository.BoardRepository,
	generator TaskGenerator,
	notifier BoardNotifier,
	observer OperationObserver,
) *BoardService {
	return &BoardService{
		columnRepo: columnRepo,
		taskRepo:   taskRepo,
		boardRepo:  boardRepo,
		generator:  generator,
		notifier:   notifier,
		observer:   observer,
	}
}

// Board is the consolidated board view.
type Board struct {
	Columns []models.Column
	// Tasks maps column IDs to their tasks in position order. Every column
	// has an entry.
	Tasks map[string][]models.Task
}

// GetBoard returns every column with its tasks.
func (s *BoardService) GetBoard(ctx context.Context) (*Board, error) {
	columns, tasks, err := s.boardRepo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	board := &Board{
		Columns: columns,
		Tasks:   make(map[string][]models.Task, len(columns)),
	}
	for _, column := range columns {
		board.Tasks[column.ID] = []models.Task{}
	}
	for _, task := range tasks {
		if _, ok := board.Tasks[task.ColumnID]; ok {
			board.Tasks[task.ColumnID] = append(board.Tasks[task.ColumnID], task)
		}
	}

	return board, nil
}

// CreateColumn appends a column whose ID is the slug of its title.
func (s *BoardService) CreateColumn(ctx context.Context, title string) (*models.Column, error) {
	title = strings.TrimSpace(title)
	id := utils.Slugify(title)
	if id == "" {
		return nil, ErrColumnTitleEmpty
	}

	column := &models.Column{ID: id, Title: title}
	err := s.mutate("create_column", func() error {
		return s.columnRepo.Create(ctx, column)
	})
	if err != nil {
		if errors.Is(err, repository.ErrColumnExists) {
			return nil, ErrColumnExists
		}
		return nil, fmt.Errorf("failed to create column: %w", err)
	}

	s.notify("column", "created", column.ID)
	return column, nil
}

// ReorderColumns replaces the board order.
func (s *BoardService) ReorderColumns(ctx context.Context, order []string) error {
	err := s.mutate("reorder_columns", func() error {
		return s.columnRepo.Reorder(ctx, order)
	})
	if err != nil {
		if errors.Is(err, repository.ErrInvalidColumnOrder) {
			return ErrInvalidColumnOrder
		}
		return fmt.Errorf("failed to reorder columns: %w", err)
	}

	s.notify("column", "reordered", "")
	return nil
}

// DeleteColumn removes a column and everything in it.
func (s *BoardService) DeleteColumn(ctx context.Context, id string) error {
	err := s.mutate("delete_column", func() error {
		return s.columnRepo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrColumnNotFound) {
			return ErrColumnNotFound
		}
		return fmt.Errorf("failed to delete column: %w", err)
	}

	s.notify("column", "deleted", id)
	return nil
}

// SeedDefaultColumns creates the default columns on an empty board and
// returns how many were created.
func (s *BoardService) SeedDefaultColumns(ctx context.Context) (int, error) {
	count, err := s.columnRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count columns: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for i, title := range constants.DefaultColumnTitles {
		if _, err := s.CreateColumn(ctx, title); err != nil {
			return i, err
		}
	}
	return len(constants.DefaultColumnTitles), nil
}

func (s *BoardService) mutate(operation string, fn func() error) error {
	s.mu.Lock()
	err := fn()
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveBoardOperation(operation, err)
	}
	return err
}

func (s *BoardService) notify(entity, action, id string) {
	if s.notifier != nil {
		s.notifier.BoardChanged(entity, action, id)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
