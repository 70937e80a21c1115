package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-collab-api/internal/dto"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/middleware"
	"github.com/yukikurage/project-collab-api/internal/services"
)

// ProjectHandler serves project endpoints.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// CreateProject creates a project owned by the caller.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	type CreateProjectRequest struct {
		Name        string   `json:"name" binding:"required,max=255"`
		Description string   `json:"description"`
		Tags        []string `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	project, owner, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateProjectResponse{
		Project:    dto.ToProjectDTO(*project),
		Membership: dto.ToMemberDTO(*owner),
	})
}

// ListProjects returns the projects the caller has joined.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	memberships, err := h.projectService.ListProjects(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": dto.ToProjectSummaryDTOs(memberships),
	})
}

// GetProject returns one project as seen through the caller's membership.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	member, err := h.projectService.GetProject(c.Request.Context(), userID, middleware.IDParam(c, middleware.ParamProjectID))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectSummaryDTO(*member))
}

// UpdateProject edits name, description or tags.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	type UpdateProjectRequest struct {
		Name        *string   `json:"name" binding:"omitempty,max=255"`
		Description *string   `json:"description"`
		Tags        *[]string `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	project, err := h.projectService.UpdateProject(c.Request.Context(), userID, middleware.IDParam(c, middleware.ParamProjectID), services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject soft deletes a project.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	if err := h.projectService.DeleteProject(c.Request.Context(), userID, middleware.IDParam(c, middleware.ParamProjectID)); err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
