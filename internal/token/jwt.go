// Package token issues and verifies the signed invitation tokens sent to
// invitees.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yukikurage/project-collab-api/internal/constants"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
)

var (
	ErrInvalidToken = apierrors.New(apierrors.KindTokenInvalid, "Invalid invitation token")
	ErrExpiredToken = apierrors.New(apierrors.KindTokenExpired, "Invitation token has expired")
)

const issuer = "project-collab-api"

// InvitationClaims is the payload of an invitation token.
type InvitationClaims struct {
	Email     string `json:"email"`
	ProjectID uint64 `json:"project_id"`
	MemberID  uint64 `json:"member_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager signs invitation tokens with HS256.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. A non-positive ttl falls back to the default
// invitation lifetime.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = constants.DefaultInvitationTTL
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// IssueInvitation signs a token for the given membership.
func (m *Manager) IssueInvitation(email string, projectID, memberID uint64) (string, error) {
	now := m.now()
	claims := InvitationClaims{
		Email:     email,
		ProjectID: projectID,
		MemberID:  memberID,
		TokenType: constants.InvitationTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(memberID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyInvitation checks signature and expiry and returns the claims.
// Expired tokens yield ErrExpiredToken; every other failure ErrInvalidToken.
func (m *Manager) VerifyInvitation(raw string) (*InvitationClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &InvitationClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*InvitationClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != constants.InvitationTokenType || claims.Email == "" || claims.MemberID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TTL returns the lifetime of newly issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
