package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/team-board-api/internal/database"
	"github.com/yukikurage/team-board-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(":memory:", &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func seedColumn(t *testing.T, repo ColumnRepository, id, title string) *models.Column {
	t.Helper()
	column := &models.Column{ID: id, Title: title}
	require.NoError(t, repo.Create(context.Background(), column))
	return column
}

func seedTask(t *testing.T, repo TaskRepository, columnID, title string, assignees ...uint64) *models.Task {
	t.Helper()
	task := &models.Task{ColumnID: columnID, Title: title}
	require.NoError(t, repo.Create(context.Background(), task, assignees))
	return task
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// positions returns task titles of a column in position order and asserts the
// positions are exactly 0..n-1.
func positions(t *testing.T, db *gorm.DB, columnID string) []string {
	t.Helper()

	var tasks []models.Task
	require.NoError(t, db.Where("column_id = ?", columnID).Order("position").Find(&tasks).Error)

	titles := make([]string, len(tasks))
	for i, task := range tasks {
		require.Equal(t, i, task.Position, "column %s is not dense: %s at %d", columnID, task.Title, task.Position)
		titles[i] = task.Title
	}
	return titles
}

func columnOrder(t *testing.T, db *gorm.DB) []string {
	t.Helper()

	var columns []models.Column
	require.NoError(t, db.Order("position").Find(&columns).Error)

	ids := make([]string, len(columns))
	for i, column := range columns {
		require.Equal(t, i, column.Position, "column positions are not dense")
		ids[i] = column.ID
	}
	return ids
}
