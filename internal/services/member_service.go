package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/notify"
	"github.com/yukikurage/project-collab-api/internal/policy"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/token"
	"github.com/yukikurage/project-collab-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrAlreadyProjectMember     = apierrors.New(apierrors.KindConflict, "This email has already joined the project")
	ErrInvitationAlreadyHandled = apierrors.New(apierrors.KindConflict, "Invitation has already been accepted")
	ErrInvitationNotFound       = apierrors.New(apierrors.KindNotFound, "Invitation not found")
	ErrInvitationEmailMismatch  = apierrors.New(apierrors.KindForbidden, "This invitation was sent to a different email address")
	ErrInvitationTokenMismatch  = apierrors.New(apierrors.KindForbidden, "Invitation token does not match the invitation")
	ErrInvitationDispatch       = apierrors.New(apierrors.KindUnavailable, "Invitation email could not be sent, please retry")
	ErrMemberNotFound           = apierrors.New(apierrors.KindNotFound, "Member not found")
	ErrInvalidMemberRole        = apierrors.Invalid("Invalid member role", apierrors.FieldError{Field: "role", Message: "must be one of: ADMIN MEMBER"})
	ErrInvalidInvitationStatus  = apierrors.Invalid("Invalid invitation status", apierrors.FieldError{Field: "invitation_status", Message: "must be one of: PENDING ACCEPTED REJECTED"})
)

// MemberService manages invitations and the member roster.
type MemberService struct {
	store       repository.Store
	resolver    *MembershipResolver
	tokens      *token.Manager
	notifier    notify.Notifier
	frontendURL string
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewMemberService creates a new MemberService.
func NewMemberService(
	store repository.Store,
	resolver *MembershipResolver,
	tokens *token.Manager,
	notifier notify.Notifier,
	frontendURL string,
	m *metrics.Metrics,
	logger *zap.Logger,
) *MemberService {
	return &MemberService{
		store:       store,
		resolver:    resolver,
		tokens:      tokens,
		notifier:    notifier,
		frontendURL: frontendURL,
		metrics:     m,
		logger:      logger,
	}
}

// InviteMemberInput represents an invitation request.
type InviteMemberInput struct {
	InviterID uint64
	ProjectID uint64
	Email     string
	Role      models.MemberRole
}

// InviteMember creates or reuses a PENDING membership for the email, issues
// an invitation token and sends it. invitation_sent_at is only set once the
// notifier accepted the message.
func (s *MemberService) InviteMember(ctx context.Context, input InviteMemberInput) (*models.Member, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	role, err := invitableRole(input.Role)
	if err != nil {
		return nil, err
	}

	project, actor, err := s.resolver.Access(ctx, input.InviterID, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageMembers(actor); err != nil {
		return nil, err
	}

	inviter, err := s.store.Users().FindByID(ctx, input.InviterID)
	if err != nil {
		return nil, lookupError(err, ErrUserNotFound, "failed to find inviter")
	}
	if err := policy.RequireNotSelfInvite(inviter, email); err != nil {
		return nil, err
	}

	var member *models.Member
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		existing, err := tx.Members().FindByEmailAndProject(ctx, email, project.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.FromStore(err, "failed to look up invitation")
		}
		if existing != nil && existing.IsAccepted() {
			return ErrAlreadyProjectMember
		}

		// A fresh or previously rejected invitation takes a seat again.
		if existing == nil || existing.InvitationStatus == models.InvitationRejected {
			if err := s.checkMemberQuota(ctx, tx, project); err != nil {
				return err
			}
		}

		if existing == nil {
			member = &models.Member{
				ProjectID:        project.ID,
				Email:            email,
				Role:             role,
				InvitationStatus: models.InvitationPending,
			}
			if err := tx.Members().Create(ctx, member); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrAlreadyProjectMember
				}
				return apierrors.FromStore(err, "failed to create invitation")
			}
			return nil
		}

		member = existing
		member.Role = role
		member.InvitationStatus = models.InvitationPending
		if err := tx.Members().Update(ctx, member, "role", "invitation_status"); err != nil {
			return apierrors.FromStore(err, "failed to renew invitation")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sendInvitation(ctx, inviter, project, member); err != nil {
		return nil, err
	}

	s.logger.Info("member invited",
		zap.Uint64("user_id", input.InviterID),
		zap.Uint64("project_id", project.ID),
		zap.Uint64("member_id", member.ID),
		zap.String("role", string(role)),
	)
	return member, nil
}

func (s *MemberService) checkMemberQuota(ctx context.Context, tx repository.Store, project *models.Project) error {
	owner, err := tx.Users().FindByID(ctx, project.OwnerID)
	if err != nil {
		return lookupError(err, ErrUserNotFound, "failed to find project owner")
	}
	count, err := tx.Members().CountActive(ctx, project.ID)
	if err != nil {
		return apierrors.FromStore(err, "failed to count members")
	}
	if err := policy.CheckMemberQuota(owner.PricingTier, count); err != nil {
		s.metrics.QuotaRejected("member")
		return err
	}
	return nil
}

// sendInvitation issues the token before dispatching and marks the
// membership as sent only after a successful dispatch.
func (s *MemberService) sendInvitation(ctx context.Context, inviter *models.User, project *models.Project, member *models.Member) error {
	raw, err := s.tokens.IssueInvitation(member.Email, project.ID, member.ID)
	if err != nil {
		return apierrors.Internal(err, "failed to issue invitation token")
	}

	msg, err := notify.InvitationMessage(notify.Invitation{
		To:          member.Email,
		Inviter:     inviter.FullName,
		Project:     project.Name,
		Role:        string(member.Role),
		Token:       raw,
		FrontendURL: s.frontendURL,
		ExpiresIn:   humanDuration(s.tokens.TTL()),
	})
	if err != nil {
		return apierrors.Internal(err, "failed to build invitation")
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		s.metrics.Invitation("dispatch_failed")
		s.logger.Warn("invitation dispatch failed",
			zap.Uint64("project_id", project.ID),
			zap.Uint64("member_id", member.ID),
			zap.Error(err),
		)
		return apierrors.Wrap(ErrInvitationDispatch, err)
	}
	s.metrics.Invitation("sent")

	now := time.Now()
	member.InvitationSentAt = &now
	if err := s.store.Members().Update(ctx, member, "invitation_sent_at"); err != nil {
		return apierrors.FromStore(err, "failed to record invitation dispatch")
	}
	return nil
}

// RespondToInvitation accepts or rejects the invitation carried by rawToken
// on behalf of the signed-in user.
func (s *MemberService) RespondToInvitation(ctx context.Context, userID uint64, rawToken string, accept bool) (*models.Member, error) {
	claims, err := s.tokens.VerifyInvitation(strings.TrimSpace(rawToken))
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err, ErrUserNotFound, "failed to find user")
	}
	if !strings.EqualFold(user.Email, claims.Email) {
		return nil, ErrInvitationEmailMismatch
	}

	member, err := s.store.Members().FindByID(ctx, claims.MemberID)
	if err != nil {
		return nil, lookupError(err, ErrInvitationNotFound, "failed to find invitation")
	}
	if member.ProjectID != claims.ProjectID || !strings.EqualFold(member.Email, claims.Email) {
		return nil, ErrInvitationTokenMismatch
	}
	if member.IsAccepted() {
		return nil, ErrInvitationAlreadyHandled
	}
	if member.UserID != nil && *member.UserID != userID {
		return nil, ErrInvitationEmailMismatch
	}
	if _, err := s.store.Projects().FindByID(ctx, member.ProjectID); err != nil {
		return nil, lookupError(err, ErrProjectNotFound, "failed to find project")
	}

	status := models.InvitationRejected
	if accept {
		status = models.InvitationAccepted
	}
	rows, err := s.store.Members().Respond(ctx, member.ID, userID, status)
	if err != nil {
		return nil, apierrors.FromStore(err, "failed to update invitation")
	}
	if rows == 0 {
		return nil, ErrInvitationAlreadyHandled
	}

	member.InvitationStatus = status
	member.UserID = &userID
	s.metrics.Invitation(strings.ToLower(string(status)))
	s.logger.Info("invitation answered",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", member.ProjectID),
		zap.Uint64("member_id", member.ID),
		zap.String("status", string(status)),
	)
	return member, nil
}

// GetOwnMembership returns the caller's membership in any invitation state.
func (s *MemberService) GetOwnMembership(ctx context.Context, userID, projectID uint64) (*models.Member, error) {
	if _, err := s.store.Projects().FindByID(ctx, projectID); err != nil {
		return nil, lookupError(err, ErrProjectNotFound, "failed to find project")
	}
	return s.resolver.Resolve(ctx, userID, projectID)
}

// ListMembers returns one page of the project roster.
func (s *MemberService) ListMembers(ctx context.Context, userID uint64, query repository.RosterQuery) ([]models.Member, int64, utils.PaginationParams, error) {
	pagination := query.Pagination()
	if query.Status != nil && !validInvitationStatus(*query.Status) {
		return nil, 0, pagination, ErrInvalidInvitationStatus
	}
	if _, _, err := s.resolver.Access(ctx, userID, query.ProjectID); err != nil {
		return nil, 0, pagination, err
	}

	members, total, err := s.store.Members().Roster(ctx, query)
	if err != nil {
		return nil, 0, pagination, apierrors.FromStore(err, "failed to list members")
	}
	return members, total, pagination, nil
}

// UpdateMemberRole changes the role of a non-owner member. Only the OWNER
// may do so.
func (s *MemberService) UpdateMemberRole(ctx context.Context, userID, projectID, memberID uint64, role models.MemberRole) (*models.Member, error) {
	role, err := invitableRole(role)
	if err != nil {
		return nil, err
	}
	target, err := s.manageableTarget(ctx, userID, projectID, memberID)
	if err != nil {
		return nil, err
	}

	target.Role = role
	if err := s.store.Members().Update(ctx, target, "role"); err != nil {
		return nil, apierrors.FromStore(err, "failed to update member role")
	}

	s.logger.Info("member role changed",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", memberID),
		zap.String("role", string(role)),
	)
	return target, nil
}

// RemoveMember deletes a non-owner membership and its task assignments.
// Tasks and comments it authored stay.
func (s *MemberService) RemoveMember(ctx context.Context, userID, projectID, memberID uint64) error {
	if _, err := s.manageableTarget(ctx, userID, projectID, memberID); err != nil {
		return err
	}

	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		return tx.Members().Delete(ctx, memberID)
	})
	if err != nil {
		return apierrors.FromStore(err, "failed to remove member")
	}

	s.logger.Info("member removed",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", memberID),
	)
	return nil
}

func (s *MemberService) manageableTarget(ctx context.Context, userID, projectID, memberID uint64) (*models.Member, error) {
	_, actor, err := s.resolver.Access(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if err := policy.RequireOwnerRole(actor); err != nil {
		return nil, err
	}

	target, err := s.store.Members().FindByID(ctx, memberID)
	if err != nil {
		return nil, lookupError(err, ErrMemberNotFound, "failed to find member")
	}
	if target.ProjectID != projectID {
		return nil, ErrMemberNotFound
	}
	if err := policy.RequireMutableTarget(target); err != nil {
		return nil, err
	}
	return target, nil
}

// invitableRole defaults to MEMBER. OWNER is never granted through an
// invitation or a role change.
func invitableRole(role models.MemberRole) (models.MemberRole, error) {
	switch role {
	case "":
		return models.MemberRoleMember, nil
	case models.MemberRoleAdmin, models.MemberRoleMember:
		return role, nil
	default:
		return "", ErrInvalidMemberRole
	}
}

func validInvitationStatus(status models.InvitationStatus) bool {
	switch status {
	case models.InvitationPending, models.InvitationAccepted, models.InvitationRejected:
		return true
	}
	return false
}

func humanDuration(d time.Duration) string {
	if d >= 24*time.Hour && d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	return d.String()
}
