package database

import (
	"fmt"
	"log"

	"github.com/yukikurage/team-board-api/internal/models"
	"gorm.io/gorm"
)

// AddIndexes creates the board's lookup indexes on databases whose tables were
// created before the index was declared on the model.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model interface{}
		name  string
	}{
		// Ordered reads of a column's tasks
		{&models.Task{}, "idx_tasks_column_position"},
		{&models.Task{}, "idx_tasks_created_at"},
		{&models.Task{}, "idx_tasks_due_date"},

		{&models.Column{}, "idx_columns_position"},

		// Assignee lookups by user, e.g. on user deletion
		{&models.TaskAssignee{}, "idx_task_assignees_user_id"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		if err := migrator.CreateIndex(idx.model, idx.name); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Printf("Created index %s", idx.name)
	}

	return nil
}
