package dto

import "github.com/yukikurage/project-collab-api/internal/models"

// UserDTO represents the authenticated user in API responses
type UserDTO struct {
	ID          uint64             `json:"id"`
	FullName    string             `json:"full_name"`
	Email       string             `json:"email"`
	AvatarURL   string             `json:"avatar_url"`
	Role        models.UserRole    `json:"role"`
	PricingTier models.PricingTier `json:"pricing_tier"`
}

// ProfileDTO is the public part of a user profile shown to other members
type ProfileDTO struct {
	ID        uint64 `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		FullName:    user.FullName,
		Email:       user.Email,
		AvatarURL:   user.AvatarURL,
		Role:        user.Role,
		PricingTier: user.PricingTier,
	}
}

// ToProfileDTO returns nil when the user was not loaded
func ToProfileDTO(user *models.User) *ProfileDTO {
	if user == nil || user.ID == 0 {
		return nil
	}
	return &ProfileDTO{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
}
