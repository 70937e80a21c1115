package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yukikurage/project-collab-api/internal/models"
)

func member(id uint64, role models.MemberRole, status models.InvitationStatus) *models.Member {
	return &models.Member{ID: id, ProjectID: 1, Role: role, InvitationStatus: status}
}

func TestRequireAccepted(t *testing.T) {
	assert.NoError(t, RequireAccepted(member(1, models.MemberRoleMember, models.InvitationAccepted)))
	assert.ErrorIs(t, RequireAccepted(member(1, models.MemberRoleAdmin, models.InvitationPending)), ErrInvitationNotAccepted)
	assert.ErrorIs(t, RequireAccepted(member(1, models.MemberRoleOwner, models.InvitationRejected)), ErrInvitationNotAccepted)
	assert.ErrorIs(t, RequireAccepted(nil), ErrInvitationNotAccepted)
}

func TestCanMutateTask(t *testing.T) {
	task := &models.Task{ID: 9, ProjectID: 1, MemberID: 10}

	tests := []struct {
		name    string
		actor   *models.Member
		allowed bool
	}{
		{"author with member role", member(10, models.MemberRoleMember, models.InvitationAccepted), true},
		{"other member", member(11, models.MemberRoleMember, models.InvitationAccepted), false},
		{"admin", member(12, models.MemberRoleAdmin, models.InvitationAccepted), true},
		{"owner", member(13, models.MemberRoleOwner, models.InvitationAccepted), true},
		{"pending admin", member(14, models.MemberRoleAdmin, models.InvitationPending), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanMutateTask(tt.actor, task)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	t.Run("admin of another project", func(t *testing.T) {
		actor := member(15, models.MemberRoleAdmin, models.InvitationAccepted)
		actor.ProjectID = 2
		assert.ErrorIs(t, CanMutateTask(actor, task), ErrTaskPermissionDenied)
	})
}

func TestOwnerIsImmutableEvenForOwner(t *testing.T) {
	actor := member(1, models.MemberRoleOwner, models.InvitationAccepted)
	target := member(1, models.MemberRoleOwner, models.InvitationAccepted)

	assert.NoError(t, RequireOwnerRole(actor))
	assert.ErrorIs(t, RequireMutableTarget(target), ErrOwnerImmutable)
	assert.NoError(t, RequireMutableTarget(member(2, models.MemberRoleAdmin, models.InvitationAccepted)))
}

func TestRequireOwnerRole(t *testing.T) {
	assert.ErrorIs(t, RequireOwnerRole(member(1, models.MemberRoleAdmin, models.InvitationAccepted)), ErrOwnerRoleRequired)
	assert.ErrorIs(t, RequireOwnerRole(member(1, models.MemberRoleOwner, models.InvitationPending)), ErrInvitationNotAccepted)
}

func TestRequireProjectOwner(t *testing.T) {
	project := &models.Project{ID: 1, OwnerID: 42}

	assert.NoError(t, RequireProjectOwner(42, project))
	assert.ErrorIs(t, RequireProjectOwner(7, project), ErrNotProjectOwner)
}

func TestCanManageMembers(t *testing.T) {
	assert.NoError(t, CanManageMembers(member(1, models.MemberRoleOwner, models.InvitationAccepted)))
	assert.NoError(t, CanManageMembers(member(1, models.MemberRoleAdmin, models.InvitationAccepted)))
	assert.ErrorIs(t, CanManageMembers(member(1, models.MemberRoleMember, models.InvitationAccepted)), ErrCannotInviteMembers)
}

func TestCanAssignMembers(t *testing.T) {
	assert.NoError(t, CanAssignMembers(member(1, models.MemberRoleOwner, models.InvitationAccepted)))
	assert.NoError(t, CanAssignMembers(member(1, models.MemberRoleAdmin, models.InvitationAccepted)))
	assert.ErrorIs(t, CanAssignMembers(member(1, models.MemberRoleMember, models.InvitationAccepted)), ErrCannotAssignMembers)
	assert.ErrorIs(t, CanAssignMembers(member(1, models.MemberRoleAdmin, models.InvitationPending)), ErrInvitationNotAccepted)
}

func TestRequireNotSelfInvite(t *testing.T) {
	inviter := &models.User{Email: "owner@example.com"}

	assert.ErrorIs(t, RequireNotSelfInvite(inviter, " Owner@Example.com "), ErrSelfInvitation)
	assert.NoError(t, RequireNotSelfInvite(inviter, "friend@example.com"))
}

func TestQuotaBoundaries(t *testing.T) {
	tests := []struct {
		tier        models.PricingTier
		projects    int64
		members     int64
		projectsErr bool
		membersErr  bool
	}{
		{models.PricingTierFree, 0, 4, false, false},
		{models.PricingTierFree, 1, 5, true, true},
		{models.PricingTierPremium, 9, 29, false, false},
		{models.PricingTierPremium, 10, 30, true, true},
		{models.PricingTierEnterprise, 24, 149, false, false},
		{models.PricingTierEnterprise, 25, 150, true, true},
		{models.PricingTier("GOLD"), 1, 5, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			err := CheckProjectQuota(tt.tier, tt.projects)
			if tt.projectsErr {
				assert.ErrorIs(t, err, ErrProjectQuotaExceeded)
			} else {
				assert.NoError(t, err)
			}

			err = CheckMemberQuota(tt.tier, tt.members)
			if tt.membersErr {
				assert.ErrorIs(t, err, ErrMemberQuotaExceeded)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommentGates(t *testing.T) {
	comment := &models.Comment{ID: 3, MemberID: 10}
	author := member(10, models.MemberRoleMember, models.InvitationAccepted)
	other := member(11, models.MemberRoleMember, models.InvitationAccepted)
	admin := member(12, models.MemberRoleAdmin, models.InvitationAccepted)

	assert.NoError(t, CanEditComment(author, comment))
	assert.ErrorIs(t, CanEditComment(admin, comment), ErrCommentNotAuthor)

	assert.NoError(t, CanDeleteComment(author, comment))
	assert.NoError(t, CanDeleteComment(admin, comment))
	assert.ErrorIs(t, CanDeleteComment(other, comment), ErrCommentDeleteDenied)
}
