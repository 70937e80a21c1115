package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-collab-api/internal/constants"
	"github.com/yukikurage/project-collab-api/internal/database"
	apierrors "github.com/yukikurage/project-collab-api/internal/errors"
	"github.com/yukikurage/project-collab-api/internal/models"
	"github.com/yukikurage/project-collab-api/internal/notify"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/services"
	"github.com/yukikurage/project-collab-api/internal/token"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "supersecret"

func init() {
	gin.SetMode(gin.TestMode)
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

type fixedSuggester struct {
	tasks []services.GeneratedTask
}

func (s fixedSuggester) GenerateTasksFromText(context.Context, string) ([]services.GeneratedTask, error) {
	return s.tasks, nil
}

// apiEnv wires the real services behind the full route table.
type apiEnv struct {
	db       *gorm.DB
	store    repository.Store
	tokens   *token.Manager
	auth     *services.AuthService
	projects *services.ProjectService
	members  *services.MemberService
	tasks    *services.TaskService
	comments *services.CommentService
	router   *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
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
	resolver := services.NewMembershipResolver(store)
	tokens := token.NewManager("handler-secret", time.Hour)
	suggester := fixedSuggester{tasks: []services.GeneratedTask{
		{Title: "Draft outline", Priority: models.TaskPriorityMedium},
	}}

	env := &apiEnv{
		db:       db,
		store:    store,
		tokens:   tokens,
		auth:     services.NewAuthService(store.Users(), log),
		projects: services.NewProjectService(store, resolver, nil, log),
		members:  services.NewMemberService(store, resolver, tokens, &captureNotifier{}, "http://app.test", nil, log),
		tasks:    services.NewTaskService(store, resolver, suggester, nil, log),
		comments: services.NewCommentService(store, resolver, log),
	}

	r := gin.New()
	r.NoRoute(NoRoute)
	r.GET("/health", Health)
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r.Group("/api"), Handlers{
		Auth:    NewAuthHandler(env.auth),
		Project: NewProjectHandler(env.projects),
		Member:  NewMemberHandler(env.members),
		Task:    NewTaskHandler(env.tasks, env.comments),
	})
	env.router = r

	return env
}

func (e *apiEnv) signup(t *testing.T, email string) *models.User {
	t.Helper()
	user, err := e.auth.Signup(context.Background(), services.SignupInput{
		FullName: email,
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

// login signs in through the API and returns the session cookies.
func (e *apiEnv) login(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": testPassword,
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func (e *apiEnv) do(t *testing.T, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// join puts u into the project as an accepted member.
func (e *apiEnv) join(t *testing.T, ownerID, projectID uint64, u *models.User, role models.MemberRole) *models.Member {
	t.Helper()
	ctx := context.Background()

	invited, err := e.members.InviteMember(ctx, services.InviteMemberInput{
		InviterID: ownerID,
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

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var apiErr apierrors.APIError
	decode(t, w, &apiErr)
	return apiErr.Code
}
