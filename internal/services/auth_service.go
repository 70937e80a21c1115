package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/yukikurage/project-collab-api/internal/constants"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = apierrors.New(apierrors.KindConflict, "Email is already registered")
	ErrInvalidCredentials = apierrors.New(apierrors.KindUnauthorized, "Invalid email or password")
	ErrPasswordTooShort   = apierrors.Invalid("Password too short", apierrors.FieldError{Field: "password", Message: "must be at least 8 characters"})
	ErrInvalidEmail       = apierrors.Invalid("Invalid email address", apierrors.FieldError{Field: "email", Message: "must be a valid email address"})
	ErrFullNameRequired   = apierrors.Invalid("Full name is required", apierrors.FieldError{Field: "full_name", Message: "is required"})
	ErrUserNotFound       = apierrors.New(apierrors.KindNotFound, "User not found")
	ErrWrongPassword      = apierrors.New(apierrors.KindForbidden, "Current password is incorrect")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	FullName  string
	Email     string
	Password  string
	AvatarURL string
}

// Signup creates a new user on the FREE tier.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, ErrFullNameRequired
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.FromStore(err, "failed to check email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		AvatarURL:    strings.TrimSpace(input.AvatarURL),
		Role:         models.UserRoleUser,
		PricingTier:  models.PricingTierFree,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, apierrors.FromStore(err, "failed to create user")
	}

	s.logger.Info("user signed up", zap.Uint64("user_id", user.ID))
	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		return nil, lookupError(err, ErrInvalidCredentials, "failed to find user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, ErrUserNotFound, "failed to find user")
	}
	return user, nil
}

// UpdateProfileInput holds the optional profile fields.
type UpdateProfileInput struct {
	FullName  *string
	AvatarURL *string
}

// UpdateProfile changes the caller's name or avatar.
func (s *AuthService) UpdateProfile(ctx context.Context, id uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, ErrFullNameRequired
		}
		user.FullName = name
	}
	if input.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*input.AvatarURL)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apierrors.FromStore(err, "failed to update profile")
	}

	s.logger.Info("profile updated", zap.Uint64("user_id", id))
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, id uint64, current, next string) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return ErrWrongPassword
	}
	if len(next) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return apierrors.Internal(err, "failed to hash password")
	}
	user.PasswordHash = string(hashedPassword)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return apierrors.FromStore(err, "failed to change password")
	}

	s.logger.Info("password changed", zap.Uint64("user_id", id))
	return nil
}

// normalizeEmail lower-cases and validates an address.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
