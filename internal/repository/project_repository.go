package repository

import (
	"context"

	"github.com/yukikurage/project-collab-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByIDUnscoped finds a project by ID including soft-deleted ones
func (r *GormProjectRepository) FindByIDUnscoped(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Unscoped().First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// CountOwned counts the projects owned by a user
func (r *GormProjectRepository) CountOwned(ctx context.Context, ownerID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	return count, err
}

// Update updates a project
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project, columns ...string) error {
	return r.db.WithContext(ctx).Model(project).Select(columns).Updates(project).Error
}

// Delete soft deletes a project
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Project{}, id).Error
}

// ListForUser lists the projects a user has joined
func (r *GormProjectRepository) ListForUser(ctx context.Context, userID uint64) ([]models.Member, error) {
	var memberships []models.Member

	// Stage 1: accepted memberships of the user.
	// Stage 2: inner join on live projects.
	// Stage 3: load each project with its owner.
	err := r.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = members.project_id AND projects.deleted_at IS NULL").
		Where("members.user_id = ? AND members.invitation_status = ?", userID, models.InvitationAccepted).
		Preload("Project.Owner").
		Order("members.id ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}
