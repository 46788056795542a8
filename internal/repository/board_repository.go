package repository

import (
	"context"

	"github.com/yukikurage/team-board-api/internal/models"
	"gorm.io/gorm"
)

// GormBoardRepository is a GORM implementation of BoardRepository
type GormBoardRepository struct {
	db *gorm.DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *gorm.DB) BoardRepository {
	return &GormBoardRepository{db: db}
}

func (r *GormBoardRepository) Snapshot(ctx context.Context) ([]models.Column, []models.Task, error) {
	var columns []models.Column
	var tasks []models.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("position ASC").Find(&columns).Error; err != nil {
			return err
		}
		return withAssignees(tx).
			Order("column_id ASC").
			Order("position ASC").
			Find(&tasks).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return columns, tasks, nil
}
