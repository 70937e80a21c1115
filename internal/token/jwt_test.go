package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
)

func TestIssueAndVerifyInvitation(t *testing.T) {
	m := NewManager("secret", time.Hour)

	raw, err := m.IssueInvitation("invitee@example.com", 3, 7)
	require.NoError(t, err)

	claims, err := m.VerifyInvitation(raw)
	require.NoError(t, err)
	assert.Equal(t, "invitee@example.com", claims.Email)
	assert.Equal(t, uint64(3), claims.ProjectID)
	assert.Equal(t, uint64(7), claims.MemberID)
}

func TestVerifyInvitation_Expired(t *testing.T) {
	m := NewManager("secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	raw, err := m.IssueInvitation("invitee@example.com", 3, 7)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyInvitation(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Equal(t, apierrors.KindTokenExpired, apierrors.KindOf(err))
}

func TestVerifyInvitation_Invalid(t *testing.T) {
	m := NewManager("secret", time.Hour)
	raw, err := m.IssueInvitation("invitee@example.com", 3, 7)
	require.NoError(t, err)

	other := NewManager("another-secret", time.Hour)
	_, err = other.VerifyInvitation(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.VerifyInvitation("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyInvitation_RejectsOtherTokenTypes(t *testing.T) {
	m := NewManager("secret", time.Hour)
	now := time.Now()
	claims := InvitationClaims{
		Email:     "invitee@example.com",
		ProjectID: 3,
		MemberID:  7,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.VerifyInvitation(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManager_DefaultTTL(t *testing.T) {
	assert.Equal(t, 7*24*time.Hour, NewManager("secret", 0).TTL())
}
