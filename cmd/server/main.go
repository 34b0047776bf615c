package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/openalpha/api/internal/cache"
	"github.com/openalpha/api/internal/client"
	"github.com/openalpha/api/internal/config"
	"github.com/openalpha/api/internal/curriculum"
	"github.com/openalpha/api/internal/database"
	"github.com/openalpha/api/internal/handler"
	"github.com/openalpha/api/internal/linking"
	"github.com/openalpha/api/internal/logger"
	"github.com/openalpha/api/internal/middleware"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
	"github.com/openalpha/api/internal/session"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// A bad curriculum edit fails the deploy, not a student's request.
	if err := curriculum.ValidateGraph(); err != nil {
		zlog.Fatalw("curriculum validation failed", "error", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		zlog.Fatalw("failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		zlog.Fatalw("failed to migrate database", "error", err)
	}

	// Redis is an optimization; run without it when unreachable.
	progressCache, err := cache.NewProgressCache(cfg.RedisURL)
	if err != nil {
		zlog.Warnw("failed to connect to redis, continuing without cache", "error", err)
		progressCache = nil
	}

	completer := client.NewCompletionClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)

	googleConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}

	ledger := progress.NewLedger(db)
	sessions := session.NewStore(db)
	links := linking.NewService(db)

	authHandler := handler.NewAuthHandler(db, cfg.JWTSecret, googleConfig, cfg.FrontendURL, zlog)
	tutorHandler := handler.NewTutorHandler(db, ledger, sessions, completer, progressCache, zlog)
	progressHandler := handler.NewProgressHandler(ledger, sessions)
	parentHandler := handler.NewParentHandler(db, links, ledger, sessions)
	coachHandler := handler.NewCoachHandler(db, links, ledger, sessions, completer, progressCache, zlog)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.MetricsMiddleware())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/google", authHandler.GoogleAuth)
		api.GET("/auth/google/callback", authHandler.GoogleCallback)
	}

	authed := api.Group("", middleware.RequireAuth(cfg.JWTSecret))
	{
		authed.GET("/auth/me", authHandler.Me)

		// Progress reads are for the account owner regardless of role.
		authed.GET("/progress", progressHandler.List)
		authed.GET("/progress/summary", progressHandler.Summary)
		authed.GET("/progress/activity", progressHandler.Activity)
	}

	student := authed.Group("", middleware.RequireRole(model.RoleStudent))
	{
		student.GET("/tutor/concepts/:subject", tutorHandler.Concepts)
		student.GET("/tutor/next/:subject", tutorHandler.Next)
		student.POST("/tutor/chat", tutorHandler.Chat)
		student.POST("/tutor/quiz", tutorHandler.Quiz)
		student.POST("/tutor/quiz/submit", tutorHandler.SubmitQuiz)
		student.POST("/parent/invite", parentHandler.Invite)
	}

	parent := authed.Group("", middleware.RequireRole(model.RoleParent))
	{
		parent.POST("/parent/link", parentHandler.Link)
		parent.GET("/parent/children", parentHandler.Children)
		parent.GET("/parent/children/:childId/progress", parentHandler.ChildProgress)
		parent.GET("/parent/children/:childId/sessions", parentHandler.ChildSessions)
		parent.GET("/parent/children/:childId/analytics", parentHandler.ChildAnalytics)
		parent.DELETE("/parent/children/:childId", parentHandler.Unlink)

		parent.POST("/coach/chat", coachHandler.Chat)
		parent.GET("/coach/sessions", coachHandler.Sessions)
		parent.GET("/coach/children", coachHandler.Children)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		zlog.Infow("API server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zlog.Errorw("forced shutdown", "error", err)
	}
	if progressCache != nil {
		progressCache.Close()
	}
}
