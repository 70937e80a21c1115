package handlers

import (
	"net/http"
	"time"

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

type TaskHandler struct {
	taskService    *services.TaskService
	commentService *services.CommentService
}

func NewTaskHandler(taskService *services.TaskService, commentService *services.CommentService) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		commentService: commentService,
	}
}

// ListTasks returns the project's tasks visible to the caller.
// Query: page, limit, title, priority, status, assigned_to_me, created_by_me, sort=created_asc
func (h *TaskHandler) ListTasks(c *gin.Context) {
	type ListTasksQuery struct {
		Title        string `form:"title"`
		Priority     string `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
		Status       string `form:"status" binding:"omitempty,oneof=TODO IN_PROGRESS UNDER_REVIEW COMPLETED"`
		AssignedToMe bool   `form:"assigned_to_me"`
		CreatedByMe  bool   `form:"created_by_me"`
		Sort         string `form:"sort" binding:"omitempty,oneof=created_asc created_desc"`
	}

	var q ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	params := utils.GetPaginationParams(c, constants.DefaultTaskPageSize)

	query := repository.TaskListQuery{
		ProjectID:        middleware.IDParam(c, middleware.ParamProjectID),
		Title:            q.Title,
		AssignedToMe:     q.AssignedToMe,
		CreatedByMe:      q.CreatedByMe,
		SortByCreatedAsc: q.Sort == "created_asc",
		Page:             params.Page,
		Limit:            params.Limit,
	}
	if q.Priority != "" {
		priority := models.TaskPriority(q.Priority)
		query.Priority = &priority
	}
	if q.Status != "" {
		status := models.TaskStatus(q.Status)
		query.Status = &status
	}

	page, err := h.taskService.ListTasks(c.Request.Context(), userID, query)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page.Tasks, page.CommentCounts, page.Total, page.Pagination.Page, page.Pagination.Limit))
}

// GetTask returns the task detail with its comment thread.
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, viewer, err := h.taskService.GetTask(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task, viewer.ID))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Description string     `json:"description"`
		Status      string     `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS UNDER_REVIEW COMPLETED"`
		Priority    string     `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
		TaskType    string     `json:"task_type" binding:"omitempty,max=50"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		UserID:      userID,
		ProjectID:   middleware.IDParam(c, middleware.ParamProjectID),
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		TaskType:    req.TaskType,
		DueDate:     req.DueDate,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDetailDTO(*task, task.MemberID))
}

// UpdateTask updates an existing task. "clear_due_date" removes the deadline.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	type UpdateTaskRequest struct {
		Title        *string    `json:"title" binding:"omitempty,max=255"`
		Description  *string    `json:"description"`
		Status       *string    `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS UNDER_REVIEW COMPLETED"`
		Priority     *string    `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
		TaskType     *string    `json:"task_type" binding:"omitempty,max=50"`
		DueDate      *time.Time `json:"due_date"`
		ClearDueDate bool       `json:"clear_due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	input := services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		TaskType:     req.TaskType,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	userID, _ := middleware.GetUserID(c)
	task, actor, err := h.taskService.UpdateTask(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
		input,
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task, actor.ID))
}

// DeleteTask soft deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.taskService.DeleteTask(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignMember adds a project member to the task's assignees.
func (h *TaskHandler) AssignMember(c *gin.Context) {
	type AssignRequest struct {
		MemberID uint64 `json:"member_id" binding:"required"`
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	task, actor, err := h.taskService.AssignMember(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
		req.MemberID,
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task, actor.ID))
}

// UnassignMember removes a member from the task's assignees.
func (h *TaskHandler) UnassignMember(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	task, actor, err := h.taskService.UnassignMember(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
		middleware.IDParam(c, middleware.ParamMemberID),
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task, actor.ID))
}

// SuggestTasks generates task suggestions from text using AI
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	type SuggestTasksRequest struct {
		Text string `json:"text" binding:"required,max=20000"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	suggested, err := h.taskService.SuggestTasks(c.Request.Context(), services.SuggestTasksInput{
		UserID:    userID,
		ProjectID: middleware.IDParam(c, middleware.ParamProjectID),
		Text:      req.Text,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggested,
	})
}

// AddComment posts a comment on the task.
func (h *TaskHandler) AddComment(c *gin.Context) {
	type AddCommentRequest struct {
		Content     string `json:"content" binding:"required,max=10000"`
		ContentType string `json:"content_type"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	comment, err := h.commentService.AddComment(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
		req.Content,
		req.ContentType,
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// UpdateComment edits the caller's own comment.
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	type UpdateCommentRequest struct {
		Content string `json:"content" binding:"required,max=10000"`
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BindError(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	comment, err := h.commentService.UpdateComment(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
		middleware.IDParam(c, middleware.ParamCommentID),
		req.Content,
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// DeleteComment removes a comment.
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	err := h.commentService.DeleteComment(
		c.Request.Context(),
		userID,
		middleware.IDParam(c, middleware.ParamProjectID),
		middleware.IDParam(c, middleware.ParamTaskID),
		middleware.IDParam(c, middleware.ParamCommentID),
	)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
