package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-collab-api/internal/constants"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/policy"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/token"
)

func TestInviteMember_SendsInvitation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)

	member, err := env.members.InviteMember(ctx, InviteMemberInput{
		InviterID: owner.ID,
		ProjectID: project.ID,
		Email:     " Invitee@Example.com ",
	})
	require.NoError(t, err)

	assert.Equal(t, "invitee@example.com", member.Email)
	assert.Equal(t, models.MemberRoleMember, member.Role)
	assert.Equal(t, models.InvitationPending, member.InvitationStatus)
	assert.Nil(t, member.UserID)
	assert.NotNil(t, member.InvitationSentAt)

	sent := env.notifier.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "invitee@example.com", sent[0].To)
	assert.Contains(t, sent[0].Text, "http://app.test/invitations/accept?token=")
}

func TestInviteMember_Gates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	plain := env.user(t, "member@example.com", models.PricingTierFree)
	admin := env.user(t, "admin@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)
	env.join(t, owner, project.ID, plain, models.MemberRoleMember)
	env.join(t, owner, project.ID, admin, models.MemberRoleAdmin)

	tests := []struct {
		name    string
		input   InviteMemberInput
		wantErr error
		kind    apierrors.Kind
	}{
		{
			name:    "self invitation",
			input:   InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "OWNER@example.com"},
			wantErr: policy.ErrSelfInvitation,
			kind:    apierrors.KindForbidden,
		},
		{
			name:    "member cannot invite",
			input:   InviteMemberInput{InviterID: plain.ID, ProjectID: project.ID, Email: "new@example.com"},
			wantErr: policy.ErrCannotInviteMembers,
			kind:    apierrors.KindForbidden,
		},
		{
			name:    "already accepted",
			input:   InviteMemberInput{InviterID: admin.ID, ProjectID: project.ID, Email: plain.Email},
			wantErr: ErrAlreadyProjectMember,
			kind:    apierrors.KindConflict,
		},
		{
			name:    "owner role cannot be granted",
			input:   InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "new@example.com", Role: models.MemberRoleOwner},
			wantErr: ErrInvalidMemberRole,
			kind:    apierrors.KindInvalidInput,
		},
		{
			name:    "malformed email",
			input:   InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "not-an-email"},
			wantErr: ErrInvalidEmail,
			kind:    apierrors.KindInvalidInput,
		},
		{
			name:    "unknown project",
			input:   InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID + 100, Email: "new@example.com"},
			wantErr: ErrProjectNotFound,
			kind:    apierrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.members.InviteMember(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.kind, apierrors.KindOf(err))
		})
	}

	_, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: admin.ID, ProjectID: project.ID, Email: "new@example.com"})
	assert.NoError(t, err)
}

func TestInviteMember_MemberQuota(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)

	// FREE allows five seats and the owner holds one of them.
	var last *models.Member
	for i := 1; i <= 4; i++ {
		m, err := env.members.InviteMember(ctx, InviteMemberInput{
			InviterID: owner.ID,
			ProjectID: project.ID,
			Email:     "user" + strconv.Itoa(i) + "@example.com",
		})
		require.NoError(t, err)
		last = m
	}

	_, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "user5@example.com"})
	assert.ErrorIs(t, err, policy.ErrMemberQuotaExceeded)
	assert.Equal(t, apierrors.KindQuotaExceeded, apierrors.KindOf(err))

	// Re-sending a pending invitation does not take another seat.
	_, err = env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: last.Email})
	assert.NoError(t, err)

	// A rejected invitation frees its seat.
	invitee := env.user(t, last.Email, models.PricingTierFree)
	raw, err := env.tokens.IssueInvitation(last.Email, project.ID, last.ID)
	require.NoError(t, err)
	_, err = env.members.RespondToInvitation(ctx, invitee.ID, raw, false)
	require.NoError(t, err)

	_, err = env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "user5@example.com"})
	assert.NoError(t, err)

	// Reactivating the rejected record needs a seat again.
	_, err = env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: last.Email})
	assert.ErrorIs(t, err, policy.ErrMemberQuotaExceeded)
}

func TestInviteMember_DispatchFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)

	sendErr := errors.New("smtp down")
	env.notifier.err = sendErr

	_, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "invitee@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvitationDispatch)
	assert.ErrorIs(t, err, sendErr)
	assert.True(t, apierrors.Retryable(err))

	stored, err := env.store.Members().FindByEmailAndProject(ctx, "invitee@example.com", project.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.InvitationSentAt)
	assert.Equal(t, models.InvitationPending, stored.InvitationStatus)

	// Retrying reuses the pending record.
	env.notifier.err = nil
	retried, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "invitee@example.com"})
	require.NoError(t, err)
	assert.Equal(t, stored.ID, retried.ID)
	assert.NotNil(t, retried.InvitationSentAt)
}

func TestRespondToInvitation_Accept(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	invitee := env.user(t, "invitee@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)

	invited, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: invitee.Email, Role: models.MemberRoleAdmin})
	require.NoError(t, err)

	own, err := env.members.GetOwnMembership(ctx, invitee.ID, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, own.InvitationStatus)

	raw, err := env.tokens.IssueInvitation(invitee.Email, project.ID, invited.ID)
	require.NoError(t, err)

	accepted, err := env.members.RespondToInvitation(ctx, invitee.ID, raw, true)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, accepted.InvitationStatus)
	require.NotNil(t, accepted.UserID)
	assert.Equal(t, invitee.ID, *accepted.UserID)

	_, err = env.members.RespondToInvitation(ctx, invitee.ID, raw, false)
	assert.ErrorIs(t, err, ErrInvitationAlreadyHandled)

	_, err = env.projects.GetProject(ctx, invitee.ID, project.ID)
	assert.NoError(t, err)
}

func TestRespondToInvitation_Failures(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	invitee := env.user(t, "invitee@example.com", models.PricingTierFree)
	stranger := env.user(t, "stranger@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)

	invited, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: invitee.Email})
	require.NoError(t, err)

	valid, err := env.tokens.IssueInvitation(invitee.Email, project.ID, invited.ID)
	require.NoError(t, err)
	wrongProject, err := env.tokens.IssueInvitation(invitee.Email, project.ID+1, invited.ID)
	require.NoError(t, err)
	foreign, err := token.NewManager("other-secret", time.Hour).IssueInvitation(invitee.Email, project.ID, invited.ID)
	require.NoError(t, err)

	now := time.Now()
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, token.InvitationClaims{
		Email:     invitee.Email,
		ProjectID: project.ID,
		MemberID:  invited.ID,
		TokenType: constants.InvitationTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "project-collab-api",
			IssuedAt:  jwt.NewNumericDate(now.Add(-8 * 24 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-24 * time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		userID  uint64
		raw     string
		wantErr error
	}{
		{name: "expired", userID: invitee.ID, raw: expired, wantErr: token.ErrExpiredToken},
		{name: "bad signature", userID: invitee.ID, raw: foreign, wantErr: token.ErrInvalidToken},
		{name: "garbage", userID: invitee.ID, raw: "not-a-token", wantErr: token.ErrInvalidToken},
		{name: "other user", userID: stranger.ID, raw: valid, wantErr: ErrInvitationEmailMismatch},
		{name: "project mismatch", userID: invitee.ID, raw: wrongProject, wantErr: ErrInvitationTokenMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.members.RespondToInvitation(ctx, tt.userID, tt.raw, true)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := env.store.Members().FindByID(ctx, invited.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, stored.InvitationStatus)
	assert.Nil(t, stored.UserID)
}

func TestRespondToInvitation_RejectThenReinvite(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	invitee := env.user(t, "invitee@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)

	invited, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: invitee.Email})
	require.NoError(t, err)
	raw, err := env.tokens.IssueInvitation(invitee.Email, project.ID, invited.ID)
	require.NoError(t, err)

	rejected, err := env.members.RespondToInvitation(ctx, invitee.ID, raw, false)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRejected, rejected.InvitationStatus)

	_, err = env.projects.GetProject(ctx, invitee.ID, project.ID)
	assert.ErrorIs(t, err, policy.ErrInvitationNotAccepted)

	again, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: invitee.Email})
	require.NoError(t, err)
	assert.Equal(t, invited.ID, again.ID)
	assert.Equal(t, models.InvitationPending, again.InvitationStatus)

	raw, err = env.tokens.IssueInvitation(invitee.Email, project.ID, again.ID)
	require.NoError(t, err)
	accepted, err := env.members.RespondToInvitation(ctx, invitee.ID, raw, true)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, accepted.InvitationStatus)
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierPremium)
	bob := env.user(t, "bob@example.com", models.PricingTierFree)
	project, _ := env.project(t, owner)
	env.join(t, owner, project.ID, bob, models.MemberRoleMember)
	_, err := env.members.InviteMember(ctx, InviteMemberInput{InviterID: owner.ID, ProjectID: project.ID, Email: "carol@example.com"})
	require.NoError(t, err)

	members, total, page, err := env.members.ListMembers(ctx, owner.ID, repository.RosterQuery{ProjectID: project.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, members, 3)
	assert.Equal(t, constants.DefaultMemberPageSize, page.Limit)

	pending := models.InvitationPending
	members, total, _, err = env.members.ListMembers(ctx, bob.ID, repository.RosterQuery{ProjectID: project.ID, Status: &pending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, members, 1)
	assert.Equal(t, "carol@example.com", members[0].Email)

	members, total, _, err = env.members.ListMembers(ctx, owner.ID, repository.RosterQuery{ProjectID: project.ID, Email: "BOB", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, members, 1)
	require.NotNil(t, members[0].User)
	assert.Equal(t, bob.FullName, members[0].User.FullName)

	bogus := models.InvitationStatus("MAYBE")
	_, _, _, err = env.members.ListMembers(ctx, owner.ID, repository.RosterQuery{ProjectID: project.ID, Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidInvitationStatus)
}

func TestUpdateMemberRoleAndRemove(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	owner := env.user(t, "owner@example.com", models.PricingTierFree)
	admin := env.user(t, "admin@example.com", models.PricingTierFree)
	bob := env.user(t, "bob@example.com", models.PricingTierFree)
	project, ownerMember := env.project(t, owner)
	adminMember := env.join(t, owner, project.ID, admin, models.MemberRoleAdmin)
	bobMember := env.join(t, owner, project.ID, bob, models.MemberRoleMember)

	_, err := env.members.UpdateMemberRole(ctx, admin.ID, project.ID, bobMember.ID, models.MemberRoleAdmin)
	assert.ErrorIs(t, err, policy.ErrOwnerRoleRequired)

	_, err = env.members.UpdateMemberRole(ctx, owner.ID, project.ID, ownerMember.ID, models.MemberRoleMember)
	assert.ErrorIs(t, err, policy.ErrOwnerImmutable)

	_, err = env.members.UpdateMemberRole(ctx, owner.ID, project.ID, bobMember.ID, models.MemberRoleOwner)
	assert.ErrorIs(t, err, ErrInvalidMemberRole)

	updated, err := env.members.UpdateMemberRole(ctx, owner.ID, project.ID, bobMember.ID, models.MemberRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleAdmin, updated.Role)

	assert.ErrorIs(t, env.members.RemoveMember(ctx, owner.ID, project.ID, ownerMember.ID), policy.ErrOwnerImmutable)
	assert.ErrorIs(t, env.members.RemoveMember(ctx, admin.ID, project.ID, bobMember.ID), policy.ErrOwnerRoleRequired)

	require.NoError(t, env.members.RemoveMember(ctx, owner.ID, project.ID, adminMember.ID))
	_, err = env.projects.GetProject(ctx, admin.ID, project.ID)
	assert.ErrorIs(t, err, ErrMembershipNotFound)

	assert.ErrorIs(t, env.members.RemoveMember(ctx, owner.ID, project.ID, adminMember.ID), ErrMemberNotFound)
}
