package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openalpha/api/internal/middleware"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
	"github.com/openalpha/api/internal/session"
)

type ProgressHandler struct {
	ledger   *progress.Ledger
	sessions *session.Store
}

func NewProgressHandler(ledger *progress.Ledger, sessions *session.Store) *ProgressHandler {
	return &ProgressHandler{ledger: ledger, sessions: sessions}
}

// List returns the caller's full ledger, grouped by subject.
func (h *ProgressHandler) List(c *gin.Context) {
	claims := middleware.Identity(c)

	records, err := h.ledger.AllProgress(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	bySubject := make(map[string][]model.MasteryRecord)
	for _, r := range records {
		bySubject[r.Subject] = append(bySubject[r.Subject], r)
	}

	c.JSON(http.StatusOK, gin.H{"progress": bySubject})
}

// Summary returns the per-subject completed/in-progress/not-started rollup.
func (h *ProgressHandler) Summary(c *gin.Context) {
	claims := middleware.Identity(c)

	summary, err := h.ledger.SummaryBySubject(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Activity returns the caller's recent session metadata.
func (h *ProgressHandler) Activity(c *gin.Context) {
	claims := middleware.Identity(c)

	sessions, err := h.sessions.ListMetadata(c.Request.Context(), claims.UserID, 20)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}
