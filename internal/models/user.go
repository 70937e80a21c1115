package models

import (
	"time"
)

type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleUser  UserRole = "USER"
)

// PricingTier is the subscription level that bounds how many projects a user
// may own and how many members each of those projects may hold.
type PricingTier string

const (
	PricingTierFree       PricingTier = "FREE"
	PricingTierPremium    PricingTier = "PREMIUM"
	PricingTierEnterprise PricingTier = "ENTERPRISE"
)

type User struct {
	ID           uint64      `gorm:"primarykey" json:"id"`
	FullName     string      `gorm:"type:varchar(255);not null" json:"full_name"`
	Email        string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"type:varchar(255);not null" json:"-"`
	AvatarURL    string      `gorm:"type:varchar(512)" json:"avatar_url"`
	Role         UserRole    `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	PricingTier  PricingTier `gorm:"type:varchar(20);not null;default:'FREE'" json:"pricing_tier"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Relations
	OwnedProjects []Project `gorm:"foreignKey:OwnerID" json:"-"`
	Memberships   []Member  `gorm:"foreignKey:UserID" json:"-"`
}
