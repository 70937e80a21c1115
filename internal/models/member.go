package models

import "time"

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleAdmin  MemberRole = "ADMIN"
	MemberRoleMember MemberRole = "MEMBER"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationRejected InvitationStatus = "REJECTED"
)

// Member binds a user, or an invited email not yet linked to an account, to a
// project. Task authorship, assignment and comments all reference a Member.
type Member struct {
	ID               uint64           `gorm:"primarykey" json:"id"`
	ProjectID        uint64           `gorm:"not null;uniqueIndex:idx_members_project_email" json:"project_id"`
	UserID           *uint64          `gorm:"index" json:"user_id"`
	Email            string           `gorm:"type:varchar(255);not null;uniqueIndex:idx_members_project_email" json:"email"`
	Role             MemberRole       `gorm:"type:varchar(20);not null" json:"role"`
	InvitationStatus InvitationStatus `gorm:"type:varchar(20);not null;index" json:"invitation_status"`
	InvitationSentAt *time.Time       `json:"invitation_sent_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsAccepted reports whether the invitation behind this membership was accepted.
func (m *Member) IsAccepted() bool {
	return m.InvitationStatus == InvitationAccepted
}

// CanManageProject reports whether the member holds an OWNER or ADMIN role.
func (m *Member) CanManageProject() bool {
	return m.Role == MemberRoleOwner || m.Role == MemberRoleAdmin
}
