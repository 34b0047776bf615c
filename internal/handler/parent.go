package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/curriculum"
	"github.com/openalpha/api/internal/linking"
	"github.com/openalpha/api/internal/middleware"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
	"github.com/openalpha/api/internal/session"
)

type ParentHandler struct {
	db       *gorm.DB
	links    *linking.Service
	ledger   *progress.Ledger
	sessions *session.Store
}

func NewParentHandler(db *gorm.DB, links *linking.Service, ledger *progress.Ledger, sessions *session.Store) *ParentHandler {
	return &ParentHandler{db: db, links: links, ledger: ledger, sessions: sessions}
}

type LinkRequest struct {
	InviteCode string `json:"inviteCode" binding:"required,len=8"`
}

// Invite issues (or reissues) the caller's invite code. Student-only; the
// previous pending code, if any, stops working immediately.
func (h *ParentHandler) Invite(c *gin.Context) {
	claims := middleware.Identity(c)

	code, err := h.links.IssueInvite(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inviteCode": code})
}

// Link redeems an invite code and returns the newly linked student.
func (h *ParentHandler) Link(c *gin.Context) {
	claims := middleware.Identity(c)

	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperr.New(apperr.ErrValidation, "invite code must be 8 characters"))
		return
	}

	studentID, err := h.links.Redeem(c.Request.Context(), claims.UserID, req.InviteCode)
	if err != nil {
		writeError(c, err)
		return
	}

	var student model.User
	if err := h.db.First(&student, "id = ?", studentID).Error; err != nil {
		writeError(c, apperr.Wrap(apperr.ErrDependency, "failed to load student", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"student": gin.H{
			"id":          student.ID,
			"displayName": student.DisplayName,
			"gradeLevel":  student.GradeLevel,
		},
	})
}

func (h *ParentHandler) Children(c *gin.Context) {
	claims := middleware.Identity(c)

	children, err := h.links.LinkedStudents(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"children": children})
}

// requireLinkedChild parses :childId and checks the caller's link to it. The
// failure does not reveal whether the student exists.
func (h *ParentHandler) requireLinkedChild(c *gin.Context) (int64, bool) {
	claims := middleware.Identity(c)

	childID, err := strconv.ParseInt(c.Param("childId"), 10, 64)
	if err != nil {
		writeError(c, apperr.New(apperr.ErrValidation, "invalid child id"))
		return 0, false
	}

	linked, err := h.links.IsLinked(c.Request.Context(), claims.UserID, childID)
	if err != nil {
		writeError(c, err)
		return 0, false
	}
	if !linked {
		writeError(c, apperr.New(apperr.ErrForbidden, "not authorized to view this student"))
		return 0, false
	}
	return childID, true
}

// ChildProgress returns a linked child's ledger rows plus per-subject rollup.
func (h *ParentHandler) ChildProgress(c *gin.Context) {
	childID, ok := h.requireLinkedChild(c)
	if !ok {
		return
	}

	records, err := h.ledger.AllProgress(c.Request.Context(), childID)
	if err != nil {
		writeError(c, err)
		return
	}

	summary, err := h.ledger.SummaryBySubject(c.Request.Context(), childID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": records, "summary": summary})
}

// ChildSessions returns a linked child's session metadata. Transcript content
// never crosses this boundary.
func (h *ParentHandler) ChildSessions(c *gin.Context) {
	childID, ok := h.requireLinkedChild(c)
	if !ok {
		return
	}

	sessions, err := h.sessions.ListMetadata(c.Request.Context(), childID, 20)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ChildAnalytics summarizes a linked child's week: recent activity, concepts
// they keep missing, and what to do next.
func (h *ParentHandler) ChildAnalytics(c *gin.Context) {
	childID, ok := h.requireLinkedChild(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	lastActive, err := h.sessions.LastActive(ctx, childID)
	if err != nil {
		writeError(c, err)
		return
	}

	recent, err := h.sessions.RecentActivity(ctx, childID, time.Now().AddDate(0, 0, -7), 10)
	if err != nil {
		writeError(c, err)
		return
	}

	struggling, err := h.ledger.Struggling(ctx, childID, 5)
	if err != nil {
		writeError(c, err)
		return
	}

	strugglingOut := make([]gin.H, 0, len(struggling))
	for _, r := range struggling {
		conceptName := r.ConceptID
		subjectName := r.Subject
		if concept, ok := curriculum.GetConcept(r.Subject, r.ConceptID); ok {
			conceptName = concept.Name
		}
		if subject, ok := curriculum.GetSubject(r.Subject); ok {
			subjectName = subject.Name
		}
		strugglingOut = append(strugglingOut, gin.H{
			"subject":       r.Subject,
			"subjectName":   subjectName,
			"conceptId":     r.ConceptID,
			"conceptName":   conceptName,
			"masteryScore":  r.MasteryScore,
			"attempts":      r.Attempts,
			"lastAttemptAt": r.LastAttemptAt,
		})
	}

	records, err := h.ledger.AllProgress(ctx, childID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lastActive":      lastActive,
		"recentActivity":  recent,
		"struggling":      strugglingOut,
		"recommendations": buildRecommendations(records),
	})
}

type recommendation struct {
	Type        string `json:"type"`
	Subject     string `json:"subject"`
	ConceptID   string `json:"conceptId"`
	ConceptName string `json:"conceptName"`
	Reason      string `json:"reason"`
}

// buildRecommendations suggests up to three next steps: finish concepts that
// are started but below mastery, then begin untouched subjects.
func buildRecommendations(records []model.MasteryRecord) []recommendation {
	recommendations := make([]recommendation, 0, 3)

	count := 0
	for _, r := range records {
		if r.MasteryScore <= 0 || r.MasteryScore >= progress.MasteryThreshold || count >= 2 {
			continue
		}
		concept, ok := curriculum.GetConcept(r.Subject, r.ConceptID)
		if !ok {
			continue
		}
		recommendations = append(recommendations, recommendation{
			Type:        "continue",
			Subject:     r.Subject,
			ConceptID:   r.ConceptID,
			ConceptName: concept.Name,
			Reason:      fmt.Sprintf("%d%% mastery - almost there!", r.MasteryScore),
		})
		count++
	}

	started := make(map[string]bool)
	for _, r := range records {
		started[r.Subject] = true
	}
	for _, subject := range curriculum.Subjects() {
		if started[subject.ID] || len(recommendations) >= 3 {
			continue
		}
		first := subject.Concepts[0]
		recommendations = append(recommendations, recommendation{
			Type:        "start",
			Subject:     subject.ID,
			ConceptID:   first.ID,
			ConceptName: first.Name,
			Reason:      fmt.Sprintf("Start learning %s", subject.Name),
		})
	}

	return recommendations
}

// Unlink removes the caller's link to a student. Hard delete; relinking
// needs a new invite.
func (h *ParentHandler) Unlink(c *gin.Context) {
	claims := middleware.Identity(c)

	childID, err := strconv.ParseInt(c.Param("childId"), 10, 64)
	if err != nil {
		writeError(c, apperr.New(apperr.ErrValidation, "invalid child id"))
		return
	}

	if err := h.links.Unlink(c.Request.Context(), claims.UserID, childID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
