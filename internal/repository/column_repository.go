package repository

import (
	"context"
	"errors"

	"github.com/yukikurage/team-board-api/internal/models"
	"gorm.io/gorm"
)

// GormColumnRepository is a GORM implementation of ColumnRepository
type GormColumnRepository struct {
	db *gorm.DB
}

// NewColumnRepository creates a new ColumnRepository
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &GormColumnRepository{db: db}
}

func (r *GormColumnRepository) List(ctx context.Context) ([]models.Column, error) {
	var columns []models.Column
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}

func (r *GormColumnRepository) FindByID(ctx context.Context, id string) (*models.Column, error) {
	var column models.Column
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

func (r *GormColumnRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Column{}).Count(&count).Error
	return count, err
}

// Create appends the column at the next free position.
func (r *GormColumnRepository) Create(ctx context.Context, column *models.Column) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Column{}).Where("id = ?", column.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrColumnExists
		}

		var next int
		if err := tx.Model(&models.Column{}).Select("COALESCE(MAX(position), -1) + 1").Scan(&next).Error; err != nil {
			return err
		}
		column.Position = next

		if err := tx.Create(column).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrColumnExists
			}
			return err
		}
		return nil
	})
}

// Reorder rewrites every column position. order must name each existing
// column exactly once.
func (r *GormColumnRepository) Reorder(ctx context.Context, order []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Column{}).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if !isPermutation(ids, order) {
			return ErrInvalidColumnOrder
		}

		for i, id := range order {
			if err := tx.Model(&models.Column{}).Where("id = ?", id).UpdateColumn("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the column, its tasks and their assignments, then shifts the
// columns after it down by one.
func (r *GormColumnRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var column models.Column
		if err := tx.Where("id = ?", id).First(&column).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrColumnNotFound
			}
			return err
		}

		taskIDs := tx.Model(&models.Task{}).Select("id").Where("column_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		if err := tx.Where("column_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&models.Column{}).Error; err != nil {
			return err
		}

		return tx.Model(&models.Column{}).
			Where("position > ?", column.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
}

func isPermutation(existing, order []string) bool {
	if len(existing) != len(order) {
		return false
	}
	remaining := make(map[string]bool, len(existing))
	for _, id := range existing {
		remaining[id] = true
	}
	for _, id := range order {
		if !remaining[id] {
			return false
		}
		delete(remaining, id)
	}
	return len(remaining) == 0
}
