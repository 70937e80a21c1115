package dto

import (
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	OwnerID     uint64    `json:"owner_id"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectSummaryDTO is a project as seen through one membership, flattened
// with the owner's public profile
type ProjectSummaryDTO struct {
	ProjectID   uint64            `json:"project_id"`
	MemberID    uint64            `json:"member_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	IsDeleted   bool              `json:"is_deleted"`
	Role        models.MemberRole `json:"role"`
	Owner       *ProfileDTO       `json:"owner"`
}

// CreateProjectResponse carries the new project and its owner membership
type CreateProjectResponse struct {
	Project    ProjectDTO `json:"project"`
	Membership MemberDTO  `json:"membership"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	tags := project.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Tags:        tags,
		OwnerID:     project.OwnerID,
		IsDeleted:   project.IsDeleted(),
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectSummaryDTO converts a membership with Project.Owner preloaded
func ToProjectSummaryDTO(member models.Member) ProjectSummaryDTO {
	summary := ProjectSummaryDTO{
		ProjectID: member.ProjectID,
		MemberID:  member.ID,
		Role:      member.Role,
		Tags:      []string{},
	}
	if member.Project != nil {
		summary.Name = member.Project.Name
		summary.Description = member.Project.Description
		summary.IsDeleted = member.Project.IsDeleted()
		if member.Project.Tags != nil {
			summary.Tags = member.Project.Tags
		}
		summary.Owner = ToProfileDTO(member.Project.Owner)
	}
	return summary
}

// ToProjectSummaryDTOs converts a list of memberships
func ToProjectSummaryDTOs(members []models.Member) []ProjectSummaryDTO {
	summaries := make([]ProjectSummaryDTO, len(members))
	for i, member := range members {
		summaries[i] = ToProjectSummaryDTO(member)
	}
	return summaries
}
