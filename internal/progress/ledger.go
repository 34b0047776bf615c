// Package progress is the mastery ledger: one row per (student, subject,
// concept), updated only by quiz submissions, scores monotonically
// non-decreasing.
package progress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/curriculum"
	"github.com/openalpha/api/internal/model"
)

// MasteryThreshold is the score at which a concept counts as mastered.
const MasteryThreshold = 80

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

type AttemptResult struct {
	MasteryScore int  `json:"masteryScore"`
	Passed       bool `json:"passed"`
}

// RecordAttempt applies one quiz submission. The kept score is the running
// maximum of all submissions, attempts increments by one, and completedAt is
// set the first time the running maximum reaches the threshold and never
// moves afterwards. Score range is the caller's contract.
func (l *Ledger) RecordAttempt(ctx context.Context, studentID int64, subject, conceptID string, score int) (AttemptResult, error) {
	now := time.Now()
	var result AttemptResult

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.MasteryRecord
		err := tx.Where("student_id = ? AND subject = ? AND concept_id = ?", studentID, subject, conceptID).
			First(&record).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			record = model.MasteryRecord{
				StudentID:     studentID,
				Subject:       subject,
				ConceptID:     conceptID,
				MasteryScore:  score,
				Attempts:      1,
				LastAttemptAt: &now,
			}
			if score >= MasteryThreshold {
				record.CompletedAt = &now
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			result = AttemptResult{MasteryScore: score, Passed: score >= MasteryThreshold}
			return nil
		}
		if err != nil {
			return err
		}

		newScore := record.MasteryScore
		if score > newScore {
			newScore = score
		}

		updates := map[string]interface{}{
			"mastery_score":   newScore,
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": now,
		}
		if newScore >= MasteryThreshold && record.CompletedAt == nil {
			updates["completed_at"] = now
		}
		if err := tx.Model(&model.MasteryRecord{}).Where("id = ?", record.ID).Updates(updates).Error; err != nil {
			return err
		}

		result = AttemptResult{MasteryScore: newScore, Passed: newScore >= MasteryThreshold}
		return nil
	})
	if err != nil {
		return AttemptResult{}, apperr.Wrap(apperr.ErrDependency, "failed to record attempt", err)
	}
	return result, nil
}

// CompletedConceptIDs returns the mastered set feeding the recommendation
// engine. A concept attempted but below threshold is absent, same as one
// never attempted.
func (l *Ledger) CompletedConceptIDs(ctx context.Context, studentID int64, subject string) (map[string]bool, error) {
	var ids []string
	err := l.db.WithContext(ctx).Model(&model.MasteryRecord{}).
		Where("student_id = ? AND subject = ? AND mastery_score >= ?", studentID, subject, MasteryThreshold).
		Pluck("concept_id", &ids).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load progress", err)
	}

	completed := make(map[string]bool, len(ids))
	for _, id := range ids {
		completed[id] = true
	}
	return completed, nil
}

func (l *Ledger) SubjectProgress(ctx context.Context, studentID int64, subject string) ([]model.MasteryRecord, error) {
	var records []model.MasteryRecord
	err := l.db.WithContext(ctx).
		Where("student_id = ? AND subject = ?", studentID, subject).
		Order("concept_id").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load progress", err)
	}
	return records, nil
}

func (l *Ledger) AllProgress(ctx context.Context, studentID int64) ([]model.MasteryRecord, error) {
	var records []model.MasteryRecord
	err := l.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("subject, concept_id").
		Find(&records).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load progress", err)
	}
	return records, nil
}

// SubjectSummary is the per-subject rollup shown to students and parents.
type SubjectSummary struct {
	SubjectID       string `json:"subjectId"`
	SubjectName     string `json:"subjectName"`
	Completed       int    `json:"completed"`
	InProgress      int    `json:"inProgress"`
	NotStarted      int    `json:"notStarted"`
	TotalConcepts   int    `json:"totalConcepts"`
	PercentComplete int    `json:"percentComplete"`
}

// SummaryBySubject rolls the ledger up against the catalog. "In progress"
// means a score strictly between zero and the threshold.
func (l *Ledger) SummaryBySubject(ctx context.Context, studentID int64) ([]SubjectSummary, error) {
	records, err := l.AllProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}

	summaries := make([]SubjectSummary, 0, len(curriculum.Subjects()))
	for _, subject := range curriculum.Subjects() {
		var completed, inProgress int
		for _, r := range records {
			if r.Subject != subject.ID {
				continue
			}
			switch {
			case r.MasteryScore >= MasteryThreshold:
				completed++
			case r.MasteryScore > 0:
				inProgress++
			}
		}
		total := len(subject.Concepts)
		summaries = append(summaries, SubjectSummary{
			SubjectID:       subject.ID,
			SubjectName:     subject.Name,
			Completed:       completed,
			InProgress:      inProgress,
			NotStarted:      total - completed - inProgress,
			TotalConcepts:   total,
			PercentComplete: completed * 100 / total,
		})
	}
	return summaries, nil
}

// Digest renders a student's standing in one subject as a short string for
// tutor prompt context, never raw rows.
func (l *Ledger) Digest(ctx context.Context, studentID int64, subject string) (string, error) {
	records, err := l.SubjectProgress(ctx, studentID, subject)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "No prior progress", nil
	}

	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, fmt.Sprintf("%s: %d%%", r.ConceptID, r.MasteryScore))
	}
	return strings.Join(parts, ", "), nil
}

// DigestAll renders recent progress across subjects for coach prompt context.
func (l *Ledger) DigestAll(ctx context.Context, studentID int64) (string, error) {
	var records []model.MasteryRecord
	err := l.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("last_attempt_at DESC").
		Limit(10).
		Find(&records).Error
	if err != nil {
		return "", apperr.Wrap(apperr.ErrDependency, "failed to load progress", err)
	}
	if len(records) == 0 {
		return "No progress recorded yet", nil
	}

	parts := make([]string, 0, len(records))
	for _, r := range records {
		suffix := ""
		if r.CompletedAt != nil {
			suffix = ", completed"
		}
		parts = append(parts, fmt.Sprintf("%s: %s (%d%%%s)", r.Subject, r.ConceptID, r.MasteryScore, suffix))
	}
	return strings.Join(parts, "; "), nil
}

// Struggling lists concepts a student keeps missing: below threshold after
// at least two attempts, worst first.
func (l *Ledger) Struggling(ctx context.Context, studentID int64, limit int) ([]model.MasteryRecord, error) {
	var records []model.MasteryRecord
	err := l.db.WithContext(ctx).
		Where("student_id = ? AND mastery_score < ? AND attempts >= 2", studentID, MasteryThreshold).
		Order("attempts DESC, mastery_score ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load progress", err)
	}
	return records, nil
}
