package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/auth"
	"github.com/openalpha/api/internal/client"
	"github.com/openalpha/api/internal/linking"
	"github.com/openalpha/api/internal/middleware"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
	"github.com/openalpha/api/internal/session"
)

const testSecret = "test-secret"

// fakeCompleter is the completion backend double: scripted replies, scripted
// failures, and a call counter.
type fakeCompleter struct {
	reply string
	quiz  *client.Quiz
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string, _ []model.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompleter) GenerateQuiz(_ context.Context, _, _ string, _, _ int) (*client.Quiz, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quiz, nil
}

type testEnv struct {
	db        *gorm.DB
	router    *gin.Engine
	completer *fakeCompleter
	sessions  *session.Store
}

// newEnv wires the full route table against an in-memory store and a scripted
// completion backend, mirroring the production router.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.MasteryRecord{}, &model.ChatSession{}, &model.ParentLink{}))

	zlog := zap.NewNop().Sugar()
	ledger := progress.NewLedger(db)
	sessions := session.NewStore(db)
	links := linking.NewService(db)
	completer := &fakeCompleter{
		reply: "Great question! Let's work through it.",
		quiz: &client.Quiz{Questions: []client.QuizQuestion{
			{Question: "What comes after 3?", Options: []string{"2", "4", "5", "7"}, CorrectAnswer: "4", Explanation: "Counting goes 1, 2, 3, 4."},
		}},
	}

	authHandler := NewAuthHandler(db, testSecret, nil, "http://localhost:3000", zlog)
	tutorHandler := NewTutorHandler(db, ledger, sessions, completer, nil, zlog)
	progressHandler := NewProgressHandler(ledger, sessions)
	parentHandler := NewParentHandler(db, links, ledger, sessions)
	coachHandler := NewCoachHandler(db, links, ledger, sessions, completer, nil, zlog)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/signup", authHandler.Signup)
	api.POST("/auth/login", authHandler.Login)
	authed := api.Group("", middleware.RequireAuth(testSecret))
	{
		authed.GET("/auth/me", authHandler.Me)
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

	return &testEnv{db: db, router: r, completer: completer, sessions: sessions}
}

func (e *testEnv) createUser(t *testing.T, email, role string, grade *int) (*model.User, string) {
	t.Helper()
	name := "Test " + role
	user := &model.User{Email: email, Role: role, DisplayName: &name, GradeLevel: grade}
	require.NoError(t, e.db.Create(user).Error)
	token, err := auth.GenerateToken(user, testSecret)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) createStudent(t *testing.T, grade int) (*model.User, string) {
	return e.createUser(t, "student@example.com", model.RoleStudent, &grade)
}

func (e *testEnv) createParent(t *testing.T) (*model.User, string) {
	return e.createUser(t, "parent@example.com", model.RoleParent, nil)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// linkParent walks the real invite flow: the student issues a code and the
// parent redeems it.
func (e *testEnv) linkParent(t *testing.T, studentToken, parentToken string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/parent/invite", studentToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	code := decodeBody(t, w)["inviteCode"].(string)

	w = e.do(t, http.MethodPost, "/api/parent/link", parentToken, gin.H{"inviteCode": code})
	require.Equal(t, http.StatusOK, w.Code)
}

func dependencyErr(message string) error {
	return apperr.New(apperr.ErrDependency, message)
}
