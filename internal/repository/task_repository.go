package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/team-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts the task at the tail of its column together with its
// assignees. Nothing is written if any step fails.
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task, assigneeIDs []uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureColumn(tx, task.ColumnID); err != nil {
			return err
		}

		next, err := nextTaskPosition(tx, task.ColumnID)
		if err != nil {
			return err
		}
		task.Position = next

		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return err
		}

		return insertAssignees(tx, task.ID, assigneeIDs)
	})
}

// FindByID finds a task with its assignees ordered by user ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	err := withAssignees(r.db.WithContext(ctx)).Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering, newest first
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	db := r.db.WithContext(ctx)
	query := withAssignees(db).Model(&models.Task{})

	if filter.ColumnID != nil {
		query = query.Where("tasks.column_id = ?", *filter.ColumnID)
	}
	if filter.SharedOnly {
		shared := db.Model(&models.TaskAssignee{}).
			Select("task_id").
			Group("task_id").
			Having("COUNT(user_id) > ?", 1)
		query = query.Where("tasks.id IN (?)", shared)
	}

	var tasks []models.Task
	if err := query.Order("tasks.created_at DESC").Order("tasks.id").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update replaces the task's editable fields. Position and column are left
// alone. When assigneeIDs is non-nil the assignee set is replaced as well.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task, assigneeIDs *[]uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findTaskSlot(tx, task.ID); err != nil {
			return err
		}

		err := tx.Model(&models.Task{}).Where("id = ?", task.ID).UpdateColumns(map[string]interface{}{
			"title":       task.Title,
			"description": task.Description,
			"due_date":    task.DueDate,
			"tags":        task.Tags,
			"priority":    task.Priority,
			"updated_at":  time.Now(),
		}).Error
		if err != nil {
			return err
		}

		if assigneeIDs == nil {
			return nil
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		return insertAssignees(tx, task.ID, *assigneeIDs)
	})
}

// Move relocates a task. Moving across columns closes the gap in the source
// column and opens a slot in the destination; moving within a column shifts
// only the tasks between the old and the new index. An index past the end of
// the destination is clamped to its tail.
func (r *GormTaskRepository) Move(ctx context.Context, params MoveParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTaskSlot(tx, params.TaskID)
		if err != nil {
			return err
		}
		if task.ColumnID != params.SourceColumnID {
			return ErrSourceColumnMismatch
		}
		if err := ensureColumn(tx, params.DestColumnID); err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Task{}).Where("column_id = ?", params.DestColumnID).Count(&count).Error; err != nil {
			return err
		}

		if params.DestColumnID == task.ColumnID {
			return moveWithinColumn(tx, task, clampIndex(params.NewIndex, int(count)-1))
		}

		index := clampIndex(params.NewIndex, int(count))

		// Close the gap in the source column
		if err := shiftTasks(tx, task.ColumnID, "position > ?", -1, task.Position); err != nil {
			return err
		}

		// Open a slot in the destination column
		if err := shiftTasks(tx, params.DestColumnID, "position >= ?", 1, index); err != nil {
			return err
		}

		return tx.Model(&models.Task{}).Where("id = ?", task.ID).UpdateColumns(map[string]interface{}{
			"column_id": params.DestColumnID,
			"position":  index,
		}).Error
	})
}

// Delete removes a task and its assignees and shifts the tasks after it down.
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findTaskSlot(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		return shiftTasks(tx, task.ColumnID, "position > ?", -1, task.Position)
	})
}

// CountUsersByIDs counts how many of the given user IDs exist
func (r *GormTaskRepository) CountUsersByIDs(ctx context.Context, userIDs []uint64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id IN ?", userIDs).
		Count(&count).Error

	return count, err
}

func moveWithinColumn(tx *gorm.DB, task *models.Task, index int) error {
	switch {
	case index == task.Position:
		return nil
	case index > task.Position:
		err := tx.Model(&models.Task{}).
			Where("column_id = ? AND position > ? AND position <= ?", task.ColumnID, task.Position, index).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
		if err != nil {
			return err
		}
	default:
		err := tx.Model(&models.Task{}).
			Where("column_id = ? AND position >= ? AND position < ?", task.ColumnID, index, task.Position).
			UpdateColumn("position", gorm.Expr("position + 1")).Error
		if err != nil {
			return err
		}
	}

	return tx.Model(&models.Task{}).Where("id = ?", task.ID).UpdateColumn("position", index).Error
}

func shiftTasks(tx *gorm.DB, columnID, condition string, delta int, bound int) error {
	expr := gorm.Expr("position + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("position - ?", -delta)
	}
	return tx.Model(&models.Task{}).
		Where("column_id = ?", columnID).
		Where(condition, bound).
		UpdateColumn("position", expr).Error
}

func findTaskSlot(tx *gorm.DB, id string) (*models.Task, error) {
	var task models.Task
	if err := tx.Select("id", "column_id", "position").Where("id = ?", id).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}

func ensureColumn(tx *gorm.DB, columnID string) error {
	var count int64
	if err := tx.Model(&models.Column{}).Where("id = ?", columnID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrColumnNotFound
	}
	return nil
}

func nextTaskPosition(tx *gorm.DB, columnID string) (int, error) {
	var next int
	err := tx.Model(&models.Task{}).
		Select("COALESCE(MAX(position), -1) + 1").
		Where("column_id = ?", columnID).
		Scan(&next).Error
	return next, err
}

func insertAssignees(tx *gorm.DB, taskID string, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	assignees := make([]models.TaskAssignee, len(userIDs))
	for i, userID := range userIDs {
		assignees[i] = models.TaskAssignee{
			TaskID: taskID,
			UserID: userID,
		}
	}
	return tx.Omit(clause.Associations).Create(&assignees).Error
}

func withAssignees(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Assignees", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_assignees.user_id ASC")
		}).
		Preload("Assignees.User")
}

func clampIndex(index, max int) int {
	if max < 0 {
		max = 0
	}
	if index < 0 {
		return 0
	}
	if index > max {
		return max
	}
	return index
}
