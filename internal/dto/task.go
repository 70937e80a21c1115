package dto

import (
	"time"

	"github.com/yukikurage/project-collab-api/internal/models"
)

// MemberSummaryDTO is a flattened member with the linked user's profile
type MemberSummaryDTO struct {
	MemberID  uint64            `json:"member_id"`
	Role      models.MemberRole `json:"role"`
	Email     string            `json:"email"`
	FullName  string            `json:"full_name"`
	AvatarURL string            `json:"avatar_url"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID          uint64            `json:"id"`
	TaskID      uint64            `json:"task_id"`
	Content     string            `json:"content"`
	ContentType string            `json:"content_type"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Author      *MemberSummaryDTO `json:"author"`
}

// TaskListItemDTO represents a task in list responses
type TaskListItemDTO struct {
	ID           uint64              `json:"id"`
	ProjectID    uint64              `json:"project_id"`
	TaskNumber   int64               `json:"task_number"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Status       models.TaskStatus   `json:"status"`
	Priority     models.TaskPriority `json:"priority"`
	TaskType     string              `json:"task_type"`
	DueDate      *time.Time          `json:"due_date"`
	CompletedAt  *time.Time          `json:"completed_at"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	CommentCount int64               `json:"comment_count"`
	Creator      *MemberSummaryDTO   `json:"creator"`
	Assignees    []MemberSummaryDTO  `json:"assignees"`
}

// TaskDetailDTO represents a single task with its comment thread
type TaskDetailDTO struct {
	TaskListItemDTO
	IsCreator bool         `json:"is_creator"`
	Comments  []CommentDTO `json:"comments"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks []TaskListItemDTO `json:"tasks"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// Conversion functions

// ToMemberSummaryDTO returns nil for members that were removed from the project
func ToMemberSummaryDTO(member *models.Member) *MemberSummaryDTO {
	if member == nil || member.ID == 0 {
		return nil
	}
	summary := &MemberSummaryDTO{
		MemberID: member.ID,
		Role:     member.Role,
		Email:    member.Email,
	}
	if member.User != nil {
		summary.FullName = member.User.FullName
		summary.AvatarURL = member.User.AvatarURL
	}
	return summary
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:          comment.ID,
		TaskID:      comment.TaskID,
		Content:     comment.Content,
		ContentType: comment.ContentType,
		CreatedAt:   comment.CreatedAt,
		UpdatedAt:   comment.UpdatedAt,
		Author:      ToMemberSummaryDTO(comment.Author),
	}
}

// ToTaskListItemDTO converts a Task model to TaskListItemDTO
func ToTaskListItemDTO(task models.Task, commentCount int64) TaskListItemDTO {
	dto := TaskListItemDTO{
		ID:           task.ID,
		ProjectID:    task.ProjectID,
		TaskNumber:   task.TaskNumber,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		Priority:     task.Priority,
		TaskType:     task.TaskType,
		DueDate:      task.DueDate,
		CompletedAt:  task.CompletedAt,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
		CommentCount: commentCount,
		Creator:      ToMemberSummaryDTO(task.Creator),
		Assignees:    []MemberSummaryDTO{},
	}

	// Include assignees if preloaded
	for _, assignment := range task.Assignments {
		if summary := ToMemberSummaryDTO(assignment.Member); summary != nil {
			dto.Assignees = append(dto.Assignees, *summary)
		}
	}

	return dto
}

// ToTaskDetailDTO converts a fully loaded Task model for the member viewing it
func ToTaskDetailDTO(task models.Task, viewerMemberID uint64) TaskDetailDTO {
	comments := make([]CommentDTO, len(task.Comments))
	for i, comment := range task.Comments {
		comments[i] = ToCommentDTO(comment)
	}

	return TaskDetailDTO{
		TaskListItemDTO: ToTaskListItemDTO(task, int64(len(task.Comments))),
		IsCreator:       task.MemberID == viewerMemberID,
		Comments:        comments,
	}
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, commentCounts map[uint64]int64, total int64, page, limit int) TaskListResponse {
	items := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskListItemDTO(task, commentCounts[task.ID])
	}

	return TaskListResponse{
		Tasks: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}
}
