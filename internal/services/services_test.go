package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-collab-api/internal/database"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/notify"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/token"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

// recordingNotifier keeps every message and fails while err is set.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.sent...)
}

type stubSuggester struct {
	tasks []GeneratedTask
	err   error
}

func (s *stubSuggester) GenerateTasksFromText(context.Context, string) ([]GeneratedTask, error) {
	return s.tasks, s.err
}

type testEnv struct {
	db        *gorm.DB
	store     repository.Store
	tokens    *token.Manager
	notifier  *recordingNotifier
	suggester *stubSuggester
	resolver  *MembershipResolver
	projects  *ProjectService
	members   *MemberService
	tasks     *TaskService
	comments  *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig(logger.Discard))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(models.All()...))

	log := zaptest.NewLogger(t)
	store := repository.NewStore(db)
	resolver := NewMembershipResolver(store)
	tokens := token.NewManager(testSecret, time.Hour)
	notifier := &recordingNotifier{}
	suggester := &stubSuggester{}

	return &testEnv{
		db:        db,
		store:     store,
		tokens:    tokens,
		notifier:  notifier,
		suggester: suggester,
		resolver:  resolver,
		projects:  NewProjectService(store, resolver, nil, log),
		members:   NewMemberService(store, resolver, tokens, notifier, "http://app.test", nil, log),
		tasks:     NewTaskService(store, resolver, suggester, nil, log),
		comments:  NewCommentService(store, resolver, log),
	}
}

func (e *testEnv) user(t *testing.T, email string, tier models.PricingTier) *models.User {
	t.Helper()
	u := &models.User{
		FullName:     email,
		Email:        email,
		PasswordHash: "x",
		Role:         models.UserRoleUser,
		PricingTier:  tier,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	return u
}

func (e *testEnv) project(t *testing.T, owner *models.User) (*models.Project, *models.Member) {
	t.Helper()
	project, member, err := e.projects.CreateProject(context.Background(), CreateProjectInput{
		OwnerID: owner.ID,
		Name:    "Apollo",
	})
	require.NoError(t, err)
	return project, member
}

// join invites u into the project as role and accepts on u's behalf.
func (e *testEnv) join(t *testing.T, inviter *models.User, projectID uint64, u *models.User, role models.MemberRole) *models.Member {
	t.Helper()
	ctx := context.Background()

	invited, err := e.members.InviteMember(ctx, InviteMemberInput{
		InviterID: inviter.ID,
		ProjectID: projectID,
		Email:     u.Email,
		Role:      role,
	})
	require.NoError(t, err)

	raw, err := e.tokens.IssueInvitation(u.Email, projectID, invited.ID)
	require.NoError(t, err)
	member, err := e.members.RespondToInvitation(ctx, u.ID, raw, true)
	require.NoError(t, err)
	return member
}
