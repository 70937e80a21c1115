package services

import (
	"context"
	"errors"
	"strings"

	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/policy"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrMembershipNotFound = apierrors.New(apierrors.KindNotFound, "You are not a member of this project")
	ErrProjectNotFound    = apierrors.New(apierrors.KindNotFound, "Project not found")
)

// MembershipResolver finds the membership through which a user reaches a
// project. Every project-scoped operation starts here.
type MembershipResolver struct {
	store repository.Store
}

// NewMembershipResolver creates a new MembershipResolver.
func NewMembershipResolver(store repository.Store) *MembershipResolver {
	return &MembershipResolver{store: store}
}

// Resolve returns ErrMembershipNotFound only when the user was never invited
// to the project. Pending and rejected memberships are returned as is. An
// invitation not yet linked to an account is matched by the user's email.
func (r *MembershipResolver) Resolve(ctx context.Context, userID, projectID uint64) (*models.Member, error) {
	member, err := r.store.Members().FindByUserAndProject(ctx, userID, projectID)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.FromStore(err, "failed to resolve membership")
	}

	user, err := r.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, ErrMembershipNotFound, "failed to resolve membership")
	}
	member, err = r.ResolveByEmail(ctx, user.Email, projectID)
	if err != nil {
		return nil, err
	}
	if member.UserID != nil {
		return nil, ErrMembershipNotFound
	}
	return member, nil
}

// ResolveByEmail finds an invitation that has not been linked to an account yet.
func (r *MembershipResolver) ResolveByEmail(ctx context.Context, email string, projectID uint64) (*models.Member, error) {
	member, err := r.store.Members().FindByEmailAndProject(ctx, strings.ToLower(strings.TrimSpace(email)), projectID)
	if err != nil {
		return nil, lookupError(err, ErrMembershipNotFound, "failed to resolve membership")
	}
	return member, nil
}

// ResolveAccepted resolves the membership and applies the acceptance gate.
func (r *MembershipResolver) ResolveAccepted(ctx context.Context, userID, projectID uint64) (*models.Member, error) {
	member, err := r.Resolve(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireAccepted(member); err != nil {
		return nil, err
	}
	return member, nil
}

// Access checks that the project is live and returns the caller's accepted
// membership.
func (r *MembershipResolver) Access(ctx context.Context, userID, projectID uint64) (*models.Project, *models.Member, error) {
	project, err := r.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		return nil, nil, lookupError(err, ErrProjectNotFound, "failed to find project")
	}
	member, err := r.ResolveAccepted(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}
	return project, member, nil
}

// lookupError maps a missing row to notFound and classifies anything else.
func lookupError(err error, notFound *apierrors.Error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apierrors.FromStore(err, message)
}
