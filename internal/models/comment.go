package models

import "time"

type Comment struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	TaskID      uint64    `gorm:"not null;index" json:"task_id"`
	MemberID    uint64    `gorm:"not null;index" json:"member_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ContentType string    `gorm:"type:varchar(20);not null;default:'GENERAL'" json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Author *Member `gorm:"foreignKey:MemberID" json:"author,omitempty"`
}
