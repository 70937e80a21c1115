package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-collab-api/internal/constants"
	"github.com/yukikurage/project-collab-api/internal/dto"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/middleware"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/services"
	"github.com/yukikurage/project-collab-api/internal/utils"
)

// MemberHandler serves the roster and invitation endpoints.
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// GetOwnMembership returns the caller's membership in any invitation state.
func (h *MemberHandler) GetOwnMembership(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	member, err := h.memberService.GetOwnMembership(c.Request.Context(), userID, middleware.IDParam(c, middleware.ParamProjectID))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// ListMembers returns a page of the project roster.
// Query: page, limit, email (substring), status (PENDING|ACCEPTED|REJECTED).
func (h *MemberHandler) ListMembers(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c, constants.DefaultMemberPageSize)

	query := repository.RosterQuery{
		ProjectID: middleware.IDParam(c, middleware.ParamProjectID),
		Email:     c.Query("email"),
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.InvitationStatus(raw)
		query.Status = &status
	}

	members, total, page, err := h.memberService.ListMembers(c.Request.Context(), userID, query)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRosterResponse(members, total, page.Page, page.Limit))
}

// InviteMember invites an email address into the project.
func (h *MemberHandler) InviteMember(c *gin.Context) {
	type InviteMemberRequest struct {
		Email string            `json:"email" binding:"required,email"`
		Role  models.MemberRole `json:"role" binding:"omitempty,oneof=ADMIN MEMBER"`
	}

	var req InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	member, err := h.memberService.InviteMember(c.Request.Context(), services.InviteMemberInput{
		InviterID: userID,
		ProjectID: middleware.IDParam(c, middleware.ParamProjectID),
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMemberDTO(*member))
}

// UpdateMemberRole changes a member's role.
func (h *MemberHandler) UpdateMemberRole(c *gin.Context) {
	type UpdateRoleRequest struct {
		Role models.MemberRole `json:"role" binding:"required,oneof=ADMIN MEMBER"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	member, err := h.memberService.UpdateMemberRole(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamMemberID),
		req.Role,
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}

// RemoveMember removes a member from the project.
func (h *MemberHandler) RemoveMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.memberService.RemoveMember(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamMemberID),
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AcceptInvitation accepts the invitation carried by the token.
func (h *MemberHandler) AcceptInvitation(c *gin.Context) {
	h.respond(c, true)
}

// RejectInvitation declines the invitation carried by the token.
func (h *MemberHandler) RejectInvitation(c *gin.Context) {
	h.respond(c, false)
}

func (h *MemberHandler) respond(c *gin.Context, accept bool) {
	type InvitationRequest struct {
		Token string `json:"token" binding:"required"`
	}

	var req InvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	member, err := h.memberService.RespondToInvitation(c.Request.Context(), userID, req.Token, accept)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberDTO(*member))
}
