package dto

import (
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
)

// MemberDTO represents a membership in API responses
type MemberDTO struct {
	ID               uint64                  `json:"id"`
	ProjectID        uint64                  `json:"project_id"`
	UserID           *uint64                 `json:"user_id"`
	Email            string                  `json:"email"`
	Role             models.MemberRole       `json:"role"`
	InvitationStatus models.InvitationStatus `json:"invitation_status"`
	InvitationSentAt *time.Time              `json:"invitation_sent_at"`
	CreatedAt        time.Time               `json:"created_at"`
	User             *ProfileDTO             `json:"user,omitempty"`
}

// RosterResponse represents a paginated member roster
type RosterResponse struct {
	Members []MemberDTO `json:"members"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

// ToMemberDTO converts a Member model to MemberDTO
func ToMemberDTO(member models.Member) MemberDTO {
	return MemberDTO{
		ID:               member.ID,
		ProjectID:        member.ProjectID,
		UserID:           member.UserID,
		Email:            member.Email,
		Role:             member.Role,
		InvitationStatus: member.InvitationStatus,
		InvitationSentAt: member.InvitationSentAt,
		CreatedAt:        member.CreatedAt,
		User:             ToProfileDTO(member.User),
	}
}

// ToRosterResponse converts a page of members
func ToRosterResponse(members []models.Member, total int64, page, limit int) RosterResponse {
	items := make([]MemberDTO, len(members))
	for i, member := range members {
		items[i] = ToMemberDTO(member)
	}
	return RosterResponse{
		Members: items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	}
}
