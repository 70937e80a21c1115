package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Tags        []string       `gorm:"serializer:json;type:text" json:"tags"`
	OwnerID     uint64         `gorm:"not null;index" json:"owner_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner   *User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []Member `gorm:"foreignKey:ProjectID" json:"-"`
}

// IsDeleted reports whether the project carries the soft-delete marker.
func (p *Project) IsDeleted() bool {
	return p.DeletedAt.Valid
}
