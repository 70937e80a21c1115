package models

import (
	"time"
)

// TaskAssignment is one entry of a task's assignee list.
type TaskAssignment struct {
	TaskID    uint64    `gorm:"primarykey" json:"task_id"`
	MemberID  uint64    `gorm:"primarykey" json:"member_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Member *Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}
