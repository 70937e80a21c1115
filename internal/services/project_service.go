package services

import (
	"context"
	"strings"

	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/policy"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidProjectName    = apierrors.Invalid("Project name cannot be empty", apierrors.FieldError{Field: "name", Message: "is required"})
	ErrProjectAlreadyDeleted = apierrors.New(apierrors.KindConflict, "Project already deleted")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	store    repository.Store
	resolver *MembershipResolver
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(store repository.Store, resolver *MembershipResolver, m *metrics.Metrics, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		store:    store,
		resolver: resolver,
		metrics:  m,
		logger:   logger,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	OwnerID     uint64
	Name        string
	Description string
	Tags        []string
}

// CreateProject creates the project and its OWNER membership in one
// transaction, after checking the owner's plan limit.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, *models.Member, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, ErrInvalidProjectName
	}

	project := &models.Project{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Tags:        normalizeTags(input.Tags),
		OwnerID:     input.OwnerID,
	}
	var owner *models.Member

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, input.OwnerID)
		if err != nil {
			return lookupError(err, ErrUserNotFound, "failed to find user")
		}

		owned, err := tx.Projects().CountOwned(ctx, user.ID)
		if err != nil {
			return apierrors.FromStore(err, "failed to count projects")
		}
		if err := policy.CheckProjectQuota(user.PricingTier, owned); err != nil {
			s.metrics.QuotaRejected("project")
			return err
		}

		if err := tx.Projects().Create(ctx, project); err != nil {
			return apierrors.FromStore(err, "failed to create project")
		}

		owner = &models.Member{
			ProjectID:        project.ID,
			UserID:           &user.ID,
			Email:            user.Email,
			Role:             models.MemberRoleOwner,
			InvitationStatus: models.InvitationAccepted,
		}
		if err := tx.Members().Create(ctx, owner); err != nil {
			return apierrors.FromStore(err, "failed to add owner to project")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("project created",
		zap.Uint64("user_id", input.OwnerID),
		zap.Uint64("project_id", project.ID),
		zap.Uint64("member_id", owner.ID),
	)
	return project, owner, nil
}

// ListProjects returns the user's accepted memberships on live projects.
func (s *ProjectService) ListProjects(ctx context.Context, userID uint64) ([]models.Member, error) {
	memberships, err := s.store.Projects().ListForUser(ctx, userID)
	if err != nil {
		return nil, apierrors.FromStore(err, "failed to list projects")
	}
	return memberships, nil
}

// GetProject returns the caller's membership with the project and its owner.
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID uint64) (*models.Member, error) {
	member, err := s.resolver.ResolveAccepted(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	view, err := s.store.Members().FindWithProject(ctx, member.ID)
	if err != nil {
		return nil, lookupError(err, ErrMembershipNotFound, "failed to load project")
	}
	if view.Project == nil {
		return nil, ErrProjectNotFound
	}
	return view, nil
}

// UpdateProjectInput holds the optional fields of a project update.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Tags        *[]string
}

// UpdateProject updates a live project. Only the recorded owner may do so.
func (s *ProjectService) UpdateProject(ctx context.Context, userID, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.store.Projects().FindByID(ctx, projectID)
	if err != nil {
		return nil, lookupError(err, ErrProjectNotFound, "failed to find project")
	}
	if err := policy.RequireProjectOwner(userID, project); err != nil {
		return nil, err
	}

	columns := make([]string, 0, 3)
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidProjectName
		}
		project.Name = name
		columns = append(columns, "name")
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
		columns = append(columns, "description")
	}
	if input.Tags != nil {
		project.Tags = normalizeTags(*input.Tags)
		columns = append(columns, "tags")
	}
	if len(columns) == 0 {
		return project, nil
	}

	if err := s.store.Projects().Update(ctx, project, columns...); err != nil {
		return nil, apierrors.FromStore(err, "failed to update project")
	}

	s.logger.Info("project updated",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Strings("columns", columns),
	)
	return project, nil
}

// DeleteProject soft deletes a project. The row and its memberships and
// tasks stay in place.
func (s *ProjectService) DeleteProject(ctx context.Context, userID, projectID uint64) error {
	project, err := s.store.Projects().FindByIDUnscoped(ctx, projectID)
	if err != nil {
		return lookupError(err, ErrProjectNotFound, "failed to find project")
	}
	if err := policy.RequireProjectOwner(userID, project); err != nil {
		return err
	}
	if project.IsDeleted() {
		return ErrProjectAlreadyDeleted
	}

	if err := s.store.Projects().Delete(ctx, projectID); err != nil {
		return apierrors.FromStore(err, "failed to delete project")
	}

	s.logger.Info("project deleted",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
	)
	return nil
}

// normalizeTags trims tags and drops empty and repeated ones, keeping order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, exists := seen[tag]; exists {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}

	return result
}
