package repository

import (
	"context"

	"github.com/yukikurage/project-collab-api/internal/models"
	"gorm.io/gorm"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *GormCommentRepository) FindByID(ctx context.Context, taskID, id uint64) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormCommentRepository) Update(ctx context.Context, comment *models.Comment, columns ...string) error {
	return r.db.WithContext(ctx).Model(comment).Select(columns).Updates(comment).Error
}

func (r *GormCommentRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
