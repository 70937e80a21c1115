package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/project-collab-api/internal/config"
	"github.com/yukikurage/project-collab-api/internal/constants"
	"github.com/yukikurage/project-collab-api/internal/database"
	"github.com/yukikurage/project-collab-api/internal/handlers"
	"github.com/yukikurage/project-collab-api/internal/metrics"
	"github.com/yukikurage/project-collab-api/internal/middleware"
	"github.com/yukikurage/project-collab-api/internal/notify"
	"github.com/yukikurage/project-collab-api/internal/repository"
	"github.com/yukikurage/project-collab-api/internal/services"
	"github.com/yukikurage/project-collab-api/internal/token"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := newLogger(cfg)
	defer logger.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Open(cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	m := metrics.NewMetrics()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.Metrics(m),
		middleware.RequestTimeout(cfg.RequestTimeout),
	)

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		logger.Fatal("failed to create Redis store", zap.Error(err), zap.String("addr", redisAddr))
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: 2, // Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	repo := repository.NewStore(db)
	resolver := services.NewMembershipResolver(repo)
	tokens := token.NewManager(cfg.TokenSecret, cfg.InvitationTTL)

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			Timeout:  cfg.NotifyTimeout,
		})
	}

	// A nil *AIService must not become a non-nil interface.
	var suggester services.TaskSuggester
	if ai := services.NewAIService(cfg.OpenAIAPIKey); ai != nil {
		suggester = ai
	} else {
		logger.Warn("OPENAI_API_KEY not set, task suggestions are disabled")
	}

	authService := services.NewAuthService(repo.Users(), logger)
	projectService := services.NewProjectService(repo, resolver, m, logger)
	memberService := services.NewMemberService(repo, resolver, tokens, notifier, cfg.FrontendURL, m, logger)
	taskService := services.NewTaskService(repo, resolver, suggester, m, logger)
	commentService := services.NewCommentService(repo, resolver, logger)

	r.NoRoute(handlers.NoRoute)
	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r.Group("/api"), handlers.Handlers{
		Auth:    handlers.NewAuthHandler(authService),
		Project: handlers.NewProjectHandler(projectService),
		Member:  handlers.NewMemberHandler(memberService),
		Task:    handlers.NewTaskHandler(taskService, commentService),
	})

	// Start server
	addr := ":" + cfg.Port
	logger.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
