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
	"github.com/openalpha/api/internal/linking"
	"github.com/openalpha/api/internal/middleware"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
	"github.com/openalpha/api/internal/session"
)

type CoachHandler struct {
	db        *gorm.DB
	links     *linking.Service
	ledger    *progress.Ledger
	sessions  *session.Store
	completer client.Completer
	cache     *cache.ProgressCache
	log       *zap.SugaredLogger
}

func NewCoachHandler(db *gorm.DB, links *linking.Service, ledger *progress.Ledger, sessions *session.Store, completer client.Completer, progressCache *cache.ProgressCache, log *zap.SugaredLogger) *CoachHandler {
	return &CoachHandler{
		db:        db,
		links:     links,
		ledger:    ledger,
		sessions:  sessions,
		completer: completer,
		cache:     progressCache,
		log:       log,
	}
}

type CoachChatRequest struct {
	Message   string `json:"message" binding:"required"`
	ChildID   int64  `json:"childId" binding:"required"`
	SessionID string `json:"sessionId"`
}

// Chat runs one coach turn scoped to a linked child. Same turn protocol as
// the tutor: nothing is persisted unless the completion call succeeds.
func (h *CoachHandler) Chat(c *gin.Context) {
	claims := middleware.Identity(c)

	var req CoachChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.ErrValidation, "message and childId are required"))
		return
	}

	ctx := c.Request.Context()

	linked, err := h.links.IsLinked(ctx, claims.UserID, req.ChildID)
	if err != nil {
		writeError(c, err)
		return
	}
	if !linked {
		writeError(c, apperr.New(apperr.ErrForbidden, "not authorized to view this student"))
		return
	}

	var child model.User
	err = h.db.First(&child, "id = ?", req.ChildID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(c, apperr.New(apperr.ErrNotFound, "student not found"))
		return
	}
	if err != nil {
		writeError(c, apperr.Wrap(apperr.ErrDependency, "failed to load student", err))
		return
	}

	childGrade := 0
	if child.GradeLevel != nil {
		childGrade = *child.GradeLevel
	}

	var sess *model.ChatSession
	if req.SessionID != "" {
		sess, err = h.sessions.GetOwned(ctx, req.SessionID, claims.UserID)
	} else {
		sess, err = h.sessions.Create(ctx, claims.UserID, model.SessionTypeCoach, nil, nil)
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

	digest, err := h.childDigest(ctx, req.ChildID)
	if err != nil {
		writeError(c, err)
		return
	}

	systemPrompt := client.CoachSystemPrompt(client.CoachContext{
		ChildGradeLevel:     childGrade,
		ChildProgressDigest: digest,
	})

	start := time.Now()
	reply, err := h.completer.Complete(ctx, systemPrompt, pending)
	middleware.RecordCompletionCall("coach", err == nil, time.Since(start))
	if err != nil {
		h.log.Warnw("coach completion failed", "session", sess.ID, "error", err)
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

// Sessions returns the caller's coach session metadata.
func (h *CoachHandler) Sessions(c *gin.Context) {
	claims := middleware.Identity(c)

	sessions, err := h.sessions.ListMetadataByType(c.Request.Context(), claims.UserID, model.SessionTypeCoach, 20)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Children lists the caller's linked students, same shape as the parent
// surface.
func (h *CoachHandler) Children(c *gin.Context) {
	claims := middleware.Identity(c)

	children, err := h.links.LinkedStudents(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"children": children})
}

func (h *CoachHandler) childDigest(ctx context.Context, childID int64) (string, error) {
	if h.cache != nil {
		if digest, ok := h.cache.GetDigest(ctx, childID, "all"); ok {
			return digest, nil
		}
	}

	digest, err := h.ledger.DigestAll(ctx, childID)
	if err != nil {
		return "", err
	}

	if h.cache != nil {
		if err := h.cache.SetDigest(ctx, childID, "all", digest); err != nil {
			h.log.Debugw("digest cache write failed", "error", err)
		}
	}
	return digest, nil
}
