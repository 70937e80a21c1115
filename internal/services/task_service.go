package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/project-collab-api/internal/constants"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/policy"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = apierrors.New(apierrors.KindNotFound, "Task not found")
	ErrTitleRequired          = apierrors.Invalid("Title is required", apierrors.FieldError{Field: "title", Message: "is required"})
	ErrInvalidTaskStatus      = apierrors.Invalid("Invalid task status", apierrors.FieldError{Field: "status", Message: "must be one of: TODO IN_PROGRESS UNDER_REVIEW COMPLETED"})
	ErrInvalidTaskPriority    = apierrors.Invalid("Invalid task priority", apierrors.FieldError{Field: "priority", Message: "must be one of: LOW MEDIUM HIGH"})
	ErrInvalidTaskAssignee    = apierrors.Invalid("Assignee must be an accepted member of this project", apierrors.FieldError{Field: "member_id", Message: "is not an accepted member"})
	ErrAlreadyAssigned        = apierrors.New(apierrors.KindConflict, "Member is already assigned to this task")
	ErrNotAssigned            = apierrors.New(apierrors.KindConflict, "Member is not assigned to this task")
	ErrTaskNumberExhausted    = apierrors.New(apierrors.KindUnavailable, "Could not allocate a task number, please retry")
	ErrAIServiceNotConfigured = apierrors.New(apierrors.KindUnavailable, "AI service is not configured")
	ErrAINoTasksGenerated     = apierrors.New(apierrors.KindInvalidInput, "AI did not generate any tasks")
	ErrAINoValidTasks         = apierrors.New(apierrors.KindInvalidInput, "No valid tasks could be created from AI output")
	ErrAITooManyTasks         = apierrors.New(apierrors.KindInvalidInput, "AI generated too many tasks")
	ErrAIRequestFailed        = apierrors.New(apierrors.KindUnavailable, "AI service request failed")
)

// TaskSuggester extracts task suggestions from free text.
type TaskSuggester interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// TaskService handles task business logic
type TaskService struct {
	store     repository.Store
	resolver  *MembershipResolver
	suggester TaskSuggester
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService creates a new TaskService. suggester may be nil when no AI
// backend is configured.
func NewTaskService(store repository.Store, resolver *MembershipResolver, suggester TaskSuggester, m *metrics.Metrics, logger *zap.Logger) *TaskService {
	return &TaskService{
		store:     store,
		resolver:  resolver,
		suggester: suggester,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	UserID      uint64
	ProjectID   uint64
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	TaskType    string
	DueDate     *time.Time
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	TaskType     *string
	DueDate      *time.Time
	ClearDueDate bool
}

// CreateTask inserts a task numbered max+1 within its project. Concurrent
// creations that collide on the project's unique task number are retried.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityLow
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	_, actor, err := s.resolver.Access(ctx, input.UserID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ProjectID:   input.ProjectID,
		MemberID:    actor.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      input.Status,
		Priority:    input.Priority,
		TaskType:    strings.TrimSpace(input.TaskType),
		DueDate:     input.DueDate,
	}
	if task.Status == models.TaskStatusCompleted {
		completedAt := s.now()
		task.CompletedAt = &completedAt
	}

	for attempt := 1; ; attempt++ {
		err = s.store.Transaction(ctx, func(tx repository.Store) error {
			number, err := tx.Tasks().NextTaskNumber(ctx, task.ProjectID)
			if err != nil {
				return err
			}
			task.ID = 0
			task.TaskNumber = number
			return tx.Tasks().Create(ctx, task)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierrors.FromStore(err, "failed to create task")
		}
		if attempt >= constants.MaxTaskNumberAttempts {
			s.logger.Warn("task number allocation exhausted",
				zap.Uint64("project_id", task.ProjectID),
				zap.Int("attempts", attempt),
			)
			return nil, apierrors.Wrap(ErrTaskNumberExhausted, err)
		}
		s.metrics.TaskNumberRetry()
	}

	s.metrics.TaskCreated()
	s.logger.Info("task created",
		zap.Uint64("user_id", input.UserID),
		zap.Uint64("project_id", task.ProjectID),
		zap.Uint64("member_id", actor.ID),
		zap.Uint64("task_id", task.ID),
		zap.Int64("task_number", task.TaskNumber),
	)
	return s.loadDetail(ctx, task.ProjectID, task.ID)
}

// GetTask returns the task detail and the viewer's membership.
func (s *TaskService) GetTask(ctx context.Context, userID, projectID, taskID uint64) (*models.Task, *models.Member, error) {
	_, actor, err := s.resolver.Access(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}

	task, err := s.loadDetail(ctx, projectID, taskID)
	if err != nil {
		return nil, nil, err
	}
	return task, actor, nil
}

// TaskPage is one page of the task list.
type TaskPage struct {
	Tasks         []models.Task
	CommentCounts map[uint64]int64
	Total         int64
	Pagination    utils.PaginationParams
}

// ListTasks returns the tasks of a project as seen by the caller.
func (s *TaskService) ListTasks(ctx context.Context, userID uint64, query repository.TaskListQuery) (*TaskPage, error) {
	if query.Status != nil && !query.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if query.Priority != nil && !query.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	_, actor, err := s.resolver.Access(ctx, userID, query.ProjectID)
	if err != nil {
		return nil, err
	}
	query.MemberID = actor.ID
	if query.Now.IsZero() {
		query.Now = s.now()
	}

	tasks, total, err := s.store.Tasks().List(ctx, query)
	if err != nil {
		return nil, apierrors.FromStore(err, "failed to list tasks")
	}

	ids := make([]uint64, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	counts, err := s.store.Tasks().CommentCounts(ctx, ids)
	if err != nil {
		return nil, apierrors.FromStore(err, "failed to count comments")
	}

	return &TaskPage{
		Tasks:         tasks,
		CommentCounts: counts,
		Total:         total,
		Pagination:    query.Pagination(),
	}, nil
}

// UpdateTask updates an existing task. completed_at follows the status.
func (s *TaskService) UpdateTask(ctx context.Context, userID, projectID, taskID uint64, input UpdateTaskInput) (*models.Task, *models.Member, error) {
	task, actor, err := s.mutableTask(ctx, userID, projectID, taskID)
	if err != nil {
		return nil, nil, err
	}

	columns := make([]string, 0, 7)
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, nil, ErrTitleRequired
		}
		task.Title = title
		columns = append(columns, "title")
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
		columns = append(columns, "description")
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, nil, ErrInvalidTaskPriority
		}
		task.Priority = *input.Priority
		columns = append(columns, "priority")
	}
	if input.TaskType != nil {
		task.TaskType = strings.TrimSpace(*input.TaskType)
		columns = append(columns, "task_type")
	}
	if input.ClearDueDate {
		task.DueDate = nil
		columns = append(columns, "due_date")
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
		columns = append(columns, "due_date")
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, nil, ErrInvalidTaskStatus
		}
		if *input.Status != task.Status {
			task.Status = *input.Status
			task.CompletedAt = nil
			if task.Status == models.TaskStatusCompleted {
				completedAt := s.now()
				task.CompletedAt = &completedAt
			}
			columns = append(columns, "status", "completed_at")
		}
	}

	if len(columns) > 0 {
		if err := s.store.Tasks().Update(ctx, task, columns...); err != nil {
			return nil, nil, apierrors.FromStore(err, "failed to update task")
		}
		s.logger.Info("task updated",
			zap.Uint64("user_id", userID),
			zap.Uint64("project_id", projectID),
			zap.Uint64("member_id", actor.ID),
			zap.Uint64("task_id", taskID),
			zap.Strings("columns", columns),
		)
	}

	return s.detailFor(ctx, projectID, taskID, actor)
}

// DeleteTask soft deletes a task.
func (s *TaskService) DeleteTask(ctx context.Context, userID, projectID, taskID uint64) error {
	_, actor, err := s.mutableTask(ctx, userID, projectID, taskID)
	if err != nil {
		return err
	}

	if err := s.store.Tasks().Delete(ctx, taskID); err != nil {
		return apierrors.FromStore(err, "failed to delete task")
	}

	s.logger.Info("task deleted",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", actor.ID),
		zap.Uint64("task_id", taskID),
	)
	return nil
}

// AssignMember adds an accepted member of the project to the task. Only
// owners and admins may assign.
func (s *TaskService) AssignMember(ctx context.Context, userID, projectID, taskID, memberID uint64) (*models.Task, *models.Member, error) {
	task, actor, err := s.assignableTask(ctx, userID, projectID, taskID)
	if err != nil {
		return nil, nil, err
	}

	assignee, err := s.store.Members().FindByID(ctx, memberID)
	if err != nil {
		return nil, nil, lookupError(err, ErrInvalidTaskAssignee, "failed to find assignee")
	}
	if assignee.ProjectID != task.ProjectID || !assignee.IsAccepted() {
		return nil, nil, ErrInvalidTaskAssignee
	}

	if _, err := s.store.Tasks().FindAssignment(ctx, task.ID, memberID); err == nil {
		return nil, nil, ErrAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apierrors.FromStore(err, "failed to check assignment")
	}

	if err := s.store.Tasks().Assign(ctx, task.ID, memberID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrAlreadyAssigned
		}
		return nil, nil, apierrors.FromStore(err, "failed to assign member")
	}

	s.logger.Info("task assigned",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", actor.ID),
		zap.Uint64("task_id", taskID),
		zap.Uint64("assignee_id", memberID),
	)
	return s.detailFor(ctx, projectID, taskID, actor)
}

// UnassignMember removes a member from the task's assignee list.
func (s *TaskService) UnassignMember(ctx context.Context, userID, projectID, taskID, memberID uint64) (*models.Task, *models.Member, error) {
	task, actor, err := s.assignableTask(ctx, userID, projectID, taskID)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.store.Tasks().Unassign(ctx, task.ID, memberID)
	if err != nil {
		return nil, nil, apierrors.FromStore(err, "failed to unassign member")
	}
	if rows == 0 {
		return nil, nil, ErrNotAssigned
	}

	s.logger.Info("task unassigned",
		zap.Uint64("user_id", userID),
		zap.Uint64("project_id", projectID),
		zap.Uint64("member_id", actor.ID),
		zap.Uint64("task_id", taskID),
		zap.Uint64("assignee_id", memberID),
	)
	return s.detailFor(ctx, projectID, taskID, actor)
}

// SuggestTasksInput represents input for AI task suggestions
type SuggestTasksInput struct {
	UserID    uint64
	ProjectID uint64
	Text      string
}

// SuggestTasks uses AI to extract task suggestions from text. Nothing is
// stored; the caller creates the tasks it keeps.
func (s *TaskService) SuggestTasks(ctx context.Context, input SuggestTasksInput) ([]GeneratedTask, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(input.Text) == "" {
		return nil, apierrors.Invalid("Text is required", apierrors.FieldError{Field: "text", Message: "is required"})
	}
	if _, _, err := s.resolver.Access(ctx, input.UserID, input.ProjectID); err != nil {
		return nil, err
	}

	aiTasks, err := s.suggester.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, apierrors.Wrap(ErrAIRequestFailed, err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, ErrAITooManyTasks
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityLow
		}
		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// mutableTask loads a live task and applies the task mutation gate.
func (s *TaskService) mutableTask(ctx context.Context, userID, projectID, taskID uint64) (*models.Task, *models.Member, error) {
	return s.gatedTask(ctx, userID, projectID, taskID, policy.CanMutateTask)
}

// assignableTask loads a live task and applies the assignment gate.
func (s *TaskService) assignableTask(ctx context.Context, userID, projectID, taskID uint64) (*models.Task, *models.Member, error) {
	return s.gatedTask(ctx, userID, projectID, taskID, func(actor *models.Member, _ *models.Task) error {
		return policy.CanAssignMembers(actor)
	})
}

func (s *TaskService) gatedTask(ctx context.Context, userID, projectID, taskID uint64, gate func(*models.Member, *models.Task) error) (*models.Task, *models.Member, error) {
	_, actor, err := s.resolver.Access(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}

	task, err := s.store.Tasks().FindByID(ctx, projectID, taskID)
	if err != nil {
		return nil, nil, lookupError(err, ErrTaskNotFound, "failed to find task")
	}
	if err := gate(actor, task); err != nil {
		return nil, nil, err
	}
	return task, actor, nil
}

// detailFor reloads the task detail for the member who changed it.
func (s *TaskService) detailFor(ctx context.Context, projectID, taskID uint64, actor *models.Member) (*models.Task, *models.Member, error) {
	task, err := s.loadDetail(ctx, projectID, taskID)
	if err != nil {
		return nil, nil, err
	}
	return task, actor, nil
}

func (s *TaskService) loadDetail(ctx context.Context, projectID, taskID uint64) (*models.Task, error) {
	task, err := s.store.Tasks().FindDetail(ctx, projectID, taskID)
	if err != nil {
		return nil, lookupError(err, ErrTaskNotFound, "failed to find task")
	}
	return task, nil
}
