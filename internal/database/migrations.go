package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type indexSpec struct {
	table   string
	name    string
	columns string
}

// extraIndexes back the roster and task list filters. Unique keys live on the
// model tags so every driver gets them through AutoMigrate.
var extraIndexes = []indexSpec{
	{"tasks", "idx_tasks_project_created", "project_id, created_at"},
	{"tasks", "idx_tasks_project_status", "project_id, status"},
	{"members", "idx_members_project_status", "project_id, invitation_status"},
	{"task_assignments", "idx_task_assignments_member_id", "member_id"},
	{"comments", "idx_comments_task_created", "task_id, created_at"},
}

// AddIndexes adds the performance indexes on PostgreSQL.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	for _, idx := range extraIndexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Scan(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			log.Debug("index already exists", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}

// MigrateDatabase runs the driver-specific migrations that AutoMigrate cannot
// express. Only PostgreSQL needs them today.
func MigrateDatabase(db *gorm.DB, log *zap.Logger) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
