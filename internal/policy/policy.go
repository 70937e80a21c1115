// Package policy holds the access rules evaluated against a resolved
// membership, project or plan tier. Every function is pure.
package policy

import (
	"strings"

	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
)

var (
	ErrInvitationNotAccepted = apierrors.New(apierrors.KindForbidden, "Invitation has not been accepted")
	ErrOwnerRoleRequired     = apierrors.New(apierrors.KindForbidden, "Only the project owner can manage member roles")
	ErrOwnerImmutable        = apierrors.New(apierrors.KindForbidden, "The project owner cannot be demoted or removed")
	ErrNotProjectOwner       = apierrors.New(apierrors.KindForbidden, "Only the project owner can perform this action")
	ErrTaskPermissionDenied  = apierrors.New(apierrors.KindForbidden, "Members can only modify tasks they created")
	ErrCannotInviteMembers   = apierrors.New(apierrors.KindForbidden, "Only owners and admins can invite members")
	ErrCannotAssignMembers   = apierrors.New(apierrors.KindForbidden, "You are not allowed to assign members to tasks")
	ErrSelfInvitation        = apierrors.New(apierrors.KindForbidden, "You cannot invite yourself")
	ErrCommentNotAuthor      = apierrors.New(apierrors.KindForbidden, "Only the comment author can edit it")
	ErrCommentDeleteDenied   = apierrors.New(apierrors.KindForbidden, "You cannot delete this comment")
	ErrProjectQuotaExceeded  = apierrors.New(apierrors.KindQuotaExceeded, "Project limit reached for your plan")
	ErrMemberQuotaExceeded   = apierrors.New(apierrors.KindQuotaExceeded, "Member limit reached for this project's plan")
)

// Limits bounds what a pricing tier may hold.
type Limits struct {
	MaxProjects int64
	MaxMembers  int64
}

var planLimits = map[models.PricingTier]Limits{
	models.PricingTierFree:       {MaxProjects: 1, MaxMembers: 5},
	models.PricingTierPremium:    {MaxProjects: 10, MaxMembers: 30},
	models.PricingTierEnterprise: {MaxProjects: 25, MaxMembers: 150},
}

// LimitsFor returns the limits of tier. Unknown tiers get FREE limits.
func LimitsFor(tier models.PricingTier) Limits {
	if l, ok := planLimits[tier]; ok {
		return l
	}
	return planLimits[models.PricingTierFree]
}

// RequireAccepted rejects memberships whose invitation is still pending or was rejected.
func RequireAccepted(member *models.Member) error {
	if member == nil || !member.IsAccepted() {
		return ErrInvitationNotAccepted
	}
	return nil
}

// RequireOwnerRole gates role changes and removals.
func RequireOwnerRole(actor *models.Member) error {
	if err := RequireAccepted(actor); err != nil {
		return err
	}
	if actor.Role != models.MemberRoleOwner {
		return ErrOwnerRoleRequired
	}
	return nil
}

// RequireMutableTarget rejects any change to an OWNER membership.
func RequireMutableTarget(target *models.Member) error {
	if target.Role == models.MemberRoleOwner {
		return ErrOwnerImmutable
	}
	return nil
}

// RequireProjectOwner compares user ids only; the caller's member role is irrelevant.
func RequireProjectOwner(userID uint64, project *models.Project) error {
	if project.OwnerID != userID {
		return ErrNotProjectOwner
	}
	return nil
}

// CanMutateTask lets MEMBER act on its own tasks and ADMIN or OWNER act on any.
func CanMutateTask(actor *models.Member, task *models.Task) error {
	if err := RequireAccepted(actor); err != nil {
		return err
	}
	if actor.ProjectID != task.ProjectID {
		return ErrTaskPermissionDenied
	}
	if actor.CanManageProject() || task.MemberID == actor.ID {
		return nil
	}
	return ErrTaskPermissionDenied
}

// CanManageMembers gates invitations.
func CanManageMembers(actor *models.Member) error {
	if err := RequireAccepted(actor); err != nil {
		return err
	}
	if !actor.CanManageProject() {
		return ErrCannotInviteMembers
	}
	return nil
}

// CanAssignMembers gates task assignment. Authorship does not count here:
// a MEMBER cannot assign even on its own task.
func CanAssignMembers(actor *models.Member) error {
	if err := RequireAccepted(actor); err != nil {
		return err
	}
	if !actor.CanManageProject() {
		return ErrCannotAssignMembers
	}
	return nil
}

// RequireNotSelfInvite compares emails case-insensitively.
func RequireNotSelfInvite(inviter *models.User, email string) error {
	if strings.EqualFold(strings.TrimSpace(inviter.Email), strings.TrimSpace(email)) {
		return ErrSelfInvitation
	}
	return nil
}

// CheckProjectQuota is evaluated against the owner's current count of
// non-deleted projects.
func CheckProjectQuota(tier models.PricingTier, owned int64) error {
	if owned >= LimitsFor(tier).MaxProjects {
		return ErrProjectQuotaExceeded
	}
	return nil
}

// CheckMemberQuota is evaluated against the project's accepted and pending
// memberships, owner included.
func CheckMemberQuota(tier models.PricingTier, members int64) error {
	if members >= LimitsFor(tier).MaxMembers {
		return ErrMemberQuotaExceeded
	}
	return nil
}

func CanEditComment(actor *models.Member, comment *models.Comment) error {
	if err := RequireAccepted(actor); err != nil {
		return err
	}
	if comment.MemberID != actor.ID {
		return ErrCommentNotAuthor
	}
	return nil
}

func CanDeleteComment(actor *models.Member, comment *models.Comment) error {
	if err := RequireAccepted(actor); err != nil {
		return err
	}
	if comment.MemberID == actor.ID || actor.CanManageProject() {
		return nil
	}
	return ErrCommentDeleteDenied
}
