package repository

import (
	"context"

	"github.com/yukikurage/project-collab-api/internal/database"
	"github.com/yukikurage/project-collab-api/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// NextTaskNumber returns the number the next task of the project receives
func (r *GormTaskRepository) NextTaskNumber(ctx context.Context, projectID uint64) (int64, error) {
	var maxNumber int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(task_number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return maxNumber + 1, nil
}

// FindByID finds a task of a project by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, projectID, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindDetail finds a task with everything the detail view shows
func (r *GormTaskRepository) FindDetail(ctx context.Context, projectID, id uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Preload("Creator.User").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_assignments.created_at ASC")
		}).
		Preload("Assignments.Member.User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC, comments.id ASC")
		}).
		Preload("Comments.Author.User").
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, query TaskListQuery) ([]models.Task, int64, error) {
	tasks := []models.Task{}

	// Stage 1: project scope and filters.
	q := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("tasks.project_id = ?", query.ProjectID).
		Scopes(database.ContainsFold("tasks.title", query.Title))
	if query.Priority != nil {
		q = q.Where("tasks.priority = ?", *query.Priority)
	}
	if query.Status != nil {
		q = q.Where("tasks.status = ?", *query.Status)
	}
	if query.CreatedByMe {
		q = q.Where("tasks.member_id = ?", query.MemberID)
	}
	if query.AssignedToMe {
		assigned := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.member_id = ?", query.MemberID)
		q = q.Where("EXISTS (?)", assigned)
	}

	// Stage 2: completed tasks stay visible for the rest of the day they were last updated.
	q = q.Where("(tasks.status <> ? OR tasks.updated_at >= ?)", models.TaskStatusCompleted, query.StartOfDay())

	// Stage 3: total before paging.
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Stage 4: order, page and load creator and assignees.
	order := "tasks.created_at DESC, tasks.id DESC"
	if query.SortByCreatedAsc {
		order = "tasks.created_at ASC, tasks.id ASC"
	}
	if err := q.Session(&gorm.Session{}).
		Order(order).
		Scopes(database.Paginate(query.Pagination())).
		Preload("Creator.User").
		Preload("Assignments.Member.User").
		Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// CommentCounts counts comments of the given tasks
func (r *GormTaskRepository) CommentCounts(ctx context.Context, taskIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(taskIDs))
	if len(taskIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		TaskID uint64
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("task_id, COUNT(*) AS count").
		Where("task_id IN ?", taskIDs).
		Group("task_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.TaskID] = row.Count
	}
	return counts, nil
}

// Update updates a task
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task, columns ...string) error {
	return r.db.WithContext(ctx).Model(task).Select(columns).Updates(task).Error
}

// Delete soft deletes a task. Assignments and comments are kept with it.
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Task{}, id).Error
}

// FindAssignment finds a specific task assignment
func (r *GormTaskRepository) FindAssignment(ctx context.Context, taskID, memberID uint64) (*models.TaskAssignment, error) {
	var assignment models.TaskAssignment
	if err := r.db.WithContext(ctx).
		Where("task_id = ? AND member_id = ?", taskID, memberID).
		First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Assign assigns a member to a task
func (r *GormTaskRepository) Assign(ctx context.Context, taskID, memberID uint64) error {
	return r.db.WithContext(ctx).Create(&models.TaskAssignment{
		TaskID:   taskID,
		MemberID: memberID,
	}).Error
}

// Unassign removes a member assignment from a task
func (r *GormTaskRepository) Unassign(ctx context.Context, taskID, memberID uint64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("task_id = ? AND member_id = ?", taskID, memberID).
		Delete(&models.TaskAssignment{})
	return result.RowsAffected, result.Error
}
