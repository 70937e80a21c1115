package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/middleware"
)

// Handlers bundles the route handlers registered under /api.
type Handlers struct {
	Auth    *AuthHandler
	Project *ProjectHandler
	Member  *MemberHandler
	Task    *TaskHandler
}

// Health reports that the process is serving requests.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Project Collaboration API is running",
	})
}

// NoRoute answers unknown paths with the standard error body.
func NoRoute(c *gin.Context) {
	apierrors.NotFound(c, "Route not found")
}

// RegisterRoutes mounts every API route on api. Session middleware must
// already be installed on the engine.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	project := middleware.RequireIDParams(middleware.ParamProjectID)
	member := middleware.RequireIDParams(middleware.ParamProjectID, middleware.ParamMemberID)
	task := middleware.RequireIDParams(middleware.ParamProjectID, middleware.ParamTaskID)
	assignee := middleware.RequireIDParams(middleware.ParamProjectID, middleware.ParamTaskID, middleware.ParamMemberID)
	comment := middleware.RequireIDParams(middleware.ParamProjectID, middleware.ParamTaskID, middleware.ParamCommentID)

	// Auth routes
	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
		auth.PATCH("/me", middleware.RequireAuth(), h.Auth.UpdateProfile)
		auth.PUT("/me/password", middleware.RequireAuth(), h.Auth.ChangePassword)
	}

	// Invitation responses (protected)
	invitations := api.Group("/invitations")
	invitations.Use(middleware.RequireAuth())
	{
		invitations.POST("/accept", h.Member.AcceptInvitation)
		invitations.POST("/reject", h.Member.RejectInvitation)
	}

	// Project routes (protected)
	projects := api.Group("/projects")
	projects.Use(middleware.RequireAuth())
	{
		projects.POST("", h.Project.CreateProject)
		projects.GET("", h.Project.ListProjects)
		projects.GET("/:projectId", project, h.Project.GetProject)
		projects.PATCH("/:projectId", project, h.Project.UpdateProject)
		projects.DELETE("/:projectId", project, h.Project.DeleteProject)

		projects.GET("/:projectId/membership", project, h.Member.GetOwnMembership)
		projects.GET("/:projectId/members", project, h.Member.ListMembers)
		projects.POST("/:projectId/members", project, h.Member.InviteMember)
		projects.PATCH("/:projectId/members/:memberId", member, h.Member.UpdateMemberRole)
		projects.DELETE("/:projectId/members/:memberId", member, h.Member.RemoveMember)

		projects.GET("/:projectId/tasks", project, h.Task.ListTasks)
		projects.POST("/:projectId/tasks", project, h.Task.CreateTask)
		projects.POST("/:projectId/tasks/suggest", project, h.Task.SuggestTasks)
		projects.GET("/:projectId/tasks/:taskId", task, h.Task.GetTask)
		projects.PATCH("/:projectId/tasks/:taskId", task, h.Task.UpdateTask)
		projects.DELETE("/:projectId/tasks/:taskId", task, h.Task.DeleteTask)
		projects.POST("/:projectId/tasks/:taskId/assignees", task, h.Task.AssignMember)
		projects.DELETE("/:projectId/tasks/:taskId/assignees/:memberId", assignee, h.Task.UnassignMember)
		projects.POST("/:projectId/tasks/:taskId/comments", task, h.Task.AddComment)
		projects.PATCH("/:projectId/tasks/:taskId/comments/:commentId", comment, h.Task.UpdateComment)
		projects.DELETE("/:projectId/tasks/:taskId/comments/:commentId", comment, h.Task.DeleteComment)
	}
}
