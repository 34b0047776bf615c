package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/cache"
	"github.com/openalpha/api/internal/client"
	"github.com/openalpha/api/internal/curriculum"
	"github.com/openalpha/api/internal/middleware"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
	"github.com/openalpha/api/internal/session"
)

type TutorHandler struct {
	db        *gorm.DB
	ledger    *progress.Ledger
	sessions  *session.Store
	completer client.Completer
	cache     *cache.ProgressCache
	log       *zap.SugaredLogger
}

// NewTutorHandler wires the student-facing surface. cache may be nil; every
// cache interaction is optional.
func NewTutorHandler(db *gorm.DB, ledger *progress.Ledger, sessions *session.Store, completer client.Completer, progressCache *cache.ProgressCache, log *zap.SugaredLogger) *TutorHandler {
	return &TutorHandler{
		db:        db,
		ledger:    ledger,
		sessions:  sessions,
		completer: completer,
		cache:     progressCache,
		log:       log,
	}
}

type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	ConceptID string `json:"conceptId" binding:"required"`
	SessionID string `json:"sessionId"`
}

type QuizRequest struct {
	Subject   string `json:"subject" binding:"required"`
	ConceptID string `json:"conceptId" binding:"required"`
}

type SubmitQuizRequest struct {
	Subject   string `json:"subject" binding:"required"`
	ConceptID string `json:"conceptId" binding:"required"`
	Score     *int   `json:"score" binding:"required,gte=0,lte=100"`
}

// studentGradeLevel loads the caller's grade. Students without a grade level
// cannot use the tutor surface.
func (h *TutorHandler) studentGradeLevel(userID int64) (int, error) {
	var user model.User
	err := h.db.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.New(apperr.ErrNotFound, "user not found")
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDependency, "failed to load user", err)
	}
	if user.GradeLevel == nil {
		return 0, apperr.New(apperr.ErrValidation, "grade level not set")
	}
	return *user.GradeLevel, nil
}

// Concepts returns the grade-gated concept list with the student's mastery
// overlaid on each entry.
func (h *TutorHandler) Concepts(c *gin.Context) {
	claims := middleware.Identity(c)
	subject := c.Param("subject")

	if _, ok := curriculum.GetSubject(subject); !ok {
		writeError(c, apperr.New(apperr.ErrNotFound, "subject not found"))
		return
	}

	gradeLevel, err := h.studentGradeLevel(claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	records, err := h.ledger.SubjectProgress(c.Request.Context(), claims.UserID, subject)
	if err != nil {
		writeError(c, err)
		return
	}

	scores := make(map[string]int, len(records))
	for _, r := range records {
		scores[r.ConceptID] = r.MasteryScore
	}

	concepts := curriculum.ConceptsForGrade(subject, gradeLevel)
	overlay := make([]gin.H, 0, len(concepts))
	for _, concept := range concepts {
		score := scores[concept.ID]
		overlay = append(overlay, gin.H{
			"id":            concept.ID,
			"name":          concept.Name,
			"description":   concept.Description,
			"prerequisites": concept.Prerequisites,
			"gradeLevel":    concept.GradeLevel,
			"masteryScore":  score,
			"completed":     score >= progress.MasteryThreshold,
		})
	}

	c.JSON(http.StatusOK, gin.H{"concepts": overlay, "gradeLevel": gradeLevel})
}

// Next returns the recommended concept, or null once the grade-appropriate
// curriculum is exhausted.
func (h *TutorHandler) Next(c *gin.Context) {
	claims := middleware.Identity(c)
	subject := c.Param("subject")

	if _, ok := curriculum.GetSubject(subject); !ok {
		writeError(c, apperr.New(apperr.ErrNotFound, "subject not found"))
		return
	}

	gradeLevel, err := h.studentGradeLevel(claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	completed, err := h.ledger.CompletedConceptIDs(c.Request.Context(), claims.UserID, subject)
	if err != nil {
		writeError(c, err)
		return
	}

	if concept, ok := curriculum.NextConcept(subject, completed, gradeLevel); ok {
		c.JSON(http.StatusOK, gin.H{"concept": concept})
		return
	}
	c.JSON(http.StatusOK, gin.H{"concept": nil})
}

// Chat runs one tutor turn: resolve the session, build prompt context from
// the catalog and the ledger, call the completion service, then commit the
// user and assistant entries together. A completion failure leaves the
// transcript exactly as it was.
func (h *TutorHandler) Chat(c *gin.Context) {
	claims := middleware.Identity(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.ErrValidation, "message, subject and conceptId are required"))
		return
	}

	gradeLevel, err := h.studentGradeLevel(claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	concept, ok := curriculum.GetConcept(req.Subject, req.ConceptID)
	if !ok {
		writeError(c, apperr.New(apperr.ErrNotFound, "concept not found"))
		return
	}

	ctx := c.Request.Context()

	var sess *model.ChatSession
	if req.SessionID != "" {
		sess, err = h.sessions.GetOwned(ctx, req.SessionID, claims.UserID)
	} else {
		sess, err = h.sessions.Create(ctx, claims.UserID, model.SessionTypeTutor, &req.Subject, &req.ConceptID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	transcript, err := session.Transcript(sess)
	if err != nil {
		writeError(c, err)
		return
	}
	pending := append(transcript, model.Message{Role: "user", Content: req.Message})

	digest, err := h.progressDigest(ctx, claims.UserID, req.Subject)
	if err != nil {
		writeError(c, err)
		return
	}

	systemPrompt := client.TutorSystemPrompt(client.TutorContext{
		GradeLevel:         gradeLevel,
		Subject:            req.Subject,
		ConceptName:        concept.Name,
		ConceptDescription: concept.Description,
		ProgressDigest:     digest,
	})

	start := time.Now()
	reply, err := h.completer.Complete(ctx, systemPrompt, pending)
	middleware.RecordCompletionCall("tutor", err == nil, time.Since(start))
	if err != nil {
		h.log.Warnw("tutor completion failed", "session", sess.ID, "error", err)
		writeError(c, err)
		return
	}

	messages, err := h.sessions.CompleteTurn(ctx, sess, req.Message, reply)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": sess.ID,
		"response":  reply,
		"messages":  messages,
	})
}

// Quiz generates a fresh multiple-choice quiz for a concept.
func (h *TutorHandler) Quiz(c *gin.Context) {
	claims := middleware.Identity(c)

	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.ErrValidation, "subject and conceptId are required"))
		return
	}

	gradeLevel, err := h.studentGradeLevel(claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	concept, ok := curriculum.GetConcept(req.Subject, req.ConceptID)
	if !ok {
		writeError(c, apperr.New(apperr.ErrNotFound, "concept not found"))
		return
	}

	start := time.Now()
	quiz, err := h.completer.GenerateQuiz(c.Request.Context(), req.Subject, concept.Name, gradeLevel, 5)
	middleware.RecordCompletionCall("quiz", err == nil, time.Since(start))
	if err != nil {
		h.log.Warnw("quiz generation failed", "concept", req.ConceptID, "error", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// SubmitQuiz records a graded quiz in the mastery ledger.
func (h *TutorHandler) SubmitQuiz(c *gin.Context) {
	claims := middleware.Identity(c)

	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.ErrValidation, "score must be between 0 and 100"))
		return
	}

	if _, ok := curriculum.GetConcept(req.Subject, req.ConceptID); !ok {
		writeError(c, apperr.New(apperr.ErrNotFound, "concept not found"))
		return
	}

	result, err := h.ledger.RecordAttempt(c.Request.Context(), claims.UserID, req.Subject, req.ConceptID, *req.Score)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.RecordQuizSubmission(req.Subject, result.Passed)
	h.invalidateDigests(c.Request.Context(), claims.UserID)

	message := "Keep practicing to reach 80% mastery."
	if result.Passed {
		message = "Congratulations! You've mastered this concept!"
	}

	c.JSON(http.StatusOK, gin.H{
		"masteryScore": result.MasteryScore,
		"passed":       result.Passed,
		"message":      message,
	})
}

// progressDigest serves the prompt-context digest from cache when possible.
func (h *TutorHandler) progressDigest(ctx context.Context, studentID int64, subject string) (string, error) {
	if h.cache != nil {
		if digest, ok := h.cache.GetDigest(ctx, studentID, subject); ok {
			return digest, nil
		}
	}

	digest, err := h.ledger.Digest(ctx, studentID, subject)
	if err != nil {
		return "", err
	}

	if h.cache != nil {
		if err := h.cache.SetDigest(ctx, studentID, subject, digest); err != nil {
			h.log.Debugw("digest cache write failed", "error", err)
		}
	}
	return digest, nil
}

func (h *TutorHandler) invalidateDigests(ctx context.Context, studentID int64) {
	if h.cache == nil {
		return
	}
	subjectIDs := make([]string, 0, len(curriculum.Subjects()))
	for _, s := range curriculum.Subjects() {
		subjectIDs = append(subjectIDs, s.ID)
	}
	if err := h.cache.Invalidate(ctx, studentID, subjectIDs); err != nil {
		h.log.Debugw("digest cache invalidation failed", "error", err)
	}
}
