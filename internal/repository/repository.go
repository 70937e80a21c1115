package repository

import (
	"context"
	"time"

	"github.com/yukikurage/project-collab-api/internal/constants"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/utils"
)

// Store groups the repositories and runs multi-row sequences atomically.
// Repositories obtained from the Store passed to a Transaction callback share
// that transaction.
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Members() MemberRepository
	Tasks() TaskRepository
	Comments() CommentRepository

	// Transaction runs fn in a database transaction. Returning an error rolls
	// back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by lower-cased email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Update saves every field of the user
	Update(ctx context.Context, user *models.User) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a non-deleted project by ID
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// FindByIDUnscoped finds a project by ID even when soft-deleted
	FindByIDUnscoped(ctx context.Context, id uint64) (*models.Project, error)

	// CountOwned counts the non-deleted projects owned by a user
	CountOwned(ctx context.Context, ownerID uint64) (int64, error)

	// Update writes the named columns of a non-deleted project
	Update(ctx context.Context, project *models.Project, columns ...string) error

	// Delete soft deletes a project
	Delete(ctx context.Context, id uint64) error

	// ListForUser returns the user's accepted memberships on non-deleted
	// projects, each with Project.Owner loaded, ordered by membership ID
	ListForUser(ctx context.Context, userID uint64) ([]models.Member, error)
}

// MemberRepository defines the interface for membership data access
type MemberRepository interface {
	// Create creates a new membership
	Create(ctx context.Context, member *models.Member) error

	// FindByID finds a membership by ID
	FindByID(ctx context.Context, id uint64) (*models.Member, error)

	// FindWithProject finds a membership with Project.Owner loaded.
	// Project stays nil when the project is soft-deleted.
	FindWithProject(ctx context.Context, id uint64) (*models.Member, error)

	// FindByUserAndProject finds the membership linking a user to a project
	FindByUserAndProject(ctx context.Context, userID, projectID uint64) (*models.Member, error)

	// FindByEmailAndProject finds the membership invited under an email
	FindByEmailAndProject(ctx context.Context, email string, projectID uint64) (*models.Member, error)

	// Update writes the named columns of a membership
	Update(ctx context.Context, member *models.Member, columns ...string) error

	// Respond moves a membership that is not yet ACCEPTED to status and links
	// userID. It returns the number of rows changed.
	Respond(ctx context.Context, memberID, userID uint64, status models.InvitationStatus) (int64, error)

	// CountActive counts accepted and pending memberships of a project
	CountActive(ctx context.Context, projectID uint64) (int64, error)

	// Roster lists memberships of a project with User loaded
	Roster(ctx context.Context, query RosterQuery) ([]models.Member, int64, error)

	// Delete removes a membership and its task assignments
	Delete(ctx context.Context, id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// NextTaskNumber returns max(task_number)+1 for a project, counting
	// soft-deleted tasks
	NextTaskNumber(ctx context.Context, projectID uint64) (int64, error)

	// FindByID finds a non-deleted task of a project
	FindByID(ctx context.Context, projectID, id uint64) (*models.Task, error)

	// FindDetail finds a non-deleted task with creator, assignees and comments loaded
	FindDetail(ctx context.Context, projectID, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, query TaskListQuery) ([]models.Task, int64, error)

	// CommentCounts counts comments per task
	CommentCounts(ctx context.Context, taskIDs []uint64) (map[uint64]int64, error)

	// Update writes the named columns of a task
	Update(ctx context.Context, task *models.Task, columns ...string) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id uint64) error

	// FindAssignment finds a specific task assignment
	FindAssignment(ctx context.Context, taskID, memberID uint64) (*models.TaskAssignment, error)

	// Assign adds a member to a task's assignee list
	Assign(ctx context.Context, taskID, memberID uint64) error

	// Unassign removes a member from a task's assignee list and returns the
	// number of rows removed
	Unassign(ctx context.Context, taskID, memberID uint64) (int64, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByID(ctx context.Context, taskID, id uint64) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment, columns ...string) error
	Delete(ctx context.Context, id uint64) error
}

// RosterQuery filters the member roster of one project.
type RosterQuery struct {
	ProjectID uint64
	// Email matches case-insensitively anywhere in the member email.
	Email  string
	Status *models.InvitationStatus
	Page   int
	Limit  int
}

// Pagination normalizes Page and Limit with the roster default.
func (q RosterQuery) Pagination() utils.PaginationParams {
	return utils.NewPaginationParams(q.Page, q.Limit, constants.DefaultMemberPageSize)
}

// TaskListQuery filters the task list of one project as seen by MemberID.
type TaskListQuery struct {
	ProjectID        uint64
	MemberID         uint64
	Title            string
	Priority         *models.TaskPriority
	Status           *models.TaskStatus
	AssignedToMe     bool
	CreatedByMe      bool
	SortByCreatedAsc bool
	Page             int
	Limit            int
	// Now anchors the calendar day during which completed tasks stay visible.
	Now time.Time
}

// Pagination normalizes Page and Limit with the task list default.
func (q TaskListQuery) Pagination() utils.PaginationParams {
	return utils.NewPaginationParams(q.Page, q.Limit, constants.DefaultTaskPageSize)
}

// StartOfDay returns midnight of the day containing Now, in Now's location.
func (q TaskListQuery) StartOfDay() time.Time {
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
