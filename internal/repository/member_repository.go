package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/project-collab-api/internal/database"
	"github.com/yukikurage/project-collab-api/internal/models"
	"gorm.io/gorm"
)

// GormMemberRepository is a GORM implementation of MemberRepository
type GormMemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &GormMemberRepository{db: db}
}

// Create creates a new membership
func (r *GormMemberRepository) Create(ctx context.Context, member *models.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// FindByID finds a membership by ID
func (r *GormMemberRepository) FindByID(ctx context.Context, id uint64) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindWithProject finds a membership with its project and the project owner
func (r *GormMemberRepository) FindWithProject(ctx context.Context, id uint64) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).
		Preload("Project.Owner").
		First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByUserAndProject finds a specific membership
func (r *GormMemberRepository) FindByUserAndProject(ctx context.Context, userID, projectID uint64) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindByEmailAndProject finds a membership by invited email
func (r *GormMemberRepository) FindByEmailAndProject(ctx context.Context, email string, projectID uint64) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).
		Where("email = ? AND project_id = ?", strings.ToLower(strings.TrimSpace(email)), projectID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// Update updates a membership
func (r *GormMemberRepository) Update(ctx context.Context, member *models.Member, columns ...string) error {
	return r.db.WithContext(ctx).Model(member).Select(columns).Updates(member).Error
}

// Respond records the invitee's answer in a single guarded update
func (r *GormMemberRepository) Respond(ctx context.Context, memberID, userID uint64, status models.InvitationStatus) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ? AND invitation_status <> ?", memberID, models.InvitationAccepted).
		Where("(user_id IS NULL OR user_id = ?)", userID).
		Updates(map[string]interface{}{
			"invitation_status": status,
			"user_id":           userID,
		})
	return result.RowsAffected, result.Error
}

// CountActive counts memberships that hold or await a seat
func (r *GormMemberRepository) CountActive(ctx context.Context, projectID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("project_id = ? AND invitation_status <> ?", projectID, models.InvitationRejected).
		Count(&count).Error
	return count, err
}

// Roster lists the members of a project
func (r *GormMemberRepository) Roster(ctx context.Context, query RosterQuery) ([]models.Member, int64, error) {
	members := []models.Member{}

	// Stage 1: match project, email substring and status.
	q := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("members.project_id = ?", query.ProjectID)
	if email := strings.TrimSpace(query.Email); email != "" {
		q = q.Scopes(database.ContainsFold("members.email", email))
	}
	if query.Status != nil {
		q = q.Where("members.invitation_status = ?", *query.Status)
	}

	// Stage 2: total before paging.
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Stage 3: page and join user profiles.
	if err := q.Session(&gorm.Session{}).
		Scopes(database.Paginate(query.Pagination())).
		Preload("User").
		Order("members.id ASC").
		Find(&members).Error; err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

// Delete removes a membership and every task assignment that references it
func (r *GormMemberRepository) Delete(ctx context.Context, id uint64) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("member_id = ?", id).Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Member{}, id).Error
}
