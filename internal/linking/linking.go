// Package linking implements the parent-student invite protocol. A student
// issues a single-use 8-character code; a parent redeems it to gain read
// access to that student's progress. Redemption is a single conditional
// update so two parents racing on one code cannot both win.
package linking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/model"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// generateCode returns uppercase hex of 4 random bytes: 32 bits of entropy.
// Collisions are left to the unique index on invite_code, not pre-checked.
func generateCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// IssueInvite creates or refreshes the student's pending invite. A student
// has at most one pending link; reissuing overwrites the code in place, which
// deliberately invalidates the previous one.
func (s *Service) IssueInvite(ctx context.Context, studentID int64) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", apperr.Wrap(apperr.ErrDependency, "failed to generate invite code", err)
	}

	result := s.db.WithContext(ctx).Model(&model.ParentLink{}).
		Where("student_id = ? AND linked_at IS NULL", studentID).
		Update("invite_code", code)
	if result.Error != nil {
		return "", apperr.Wrap(apperr.ErrDependency, "failed to issue invite", result.Error)
	}
	if result.RowsAffected == 0 {
		link := model.ParentLink{StudentID: studentID, InviteCode: &code}
		if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
			return "", apperr.Wrap(apperr.ErrDependency, "failed to issue invite", err)
		}
	}
	return code, nil
}

// Redeem claims a pending invite for the parent and returns the student id.
// A redeemed, reissued, or never-issued code all answer the same way; nothing
// distinguishes "already used" from "never existed".
func (s *Service) Redeem(ctx context.Context, parentID int64, code string) (int64, error) {
	var link model.ParentLink
	err := s.db.WithContext(ctx).
		Where("invite_code = ? AND linked_at IS NULL", code).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperr.New(apperr.ErrNotFound, "invalid or expired invite code")
	}
	if err != nil {
		return 0, apperr.Wrap(apperr.ErrDependency, "failed to look up invite", err)
	}

	linked, err := s.IsLinked(ctx, parentID, link.StudentID)
	if err != nil {
		return 0, err
	}
	if linked {
		return 0, apperr.New(apperr.ErrConflict, "already linked to this student")
	}

	// The sole concurrency guard: claiming the row and nulling the code is
	// one statement conditioned on the code still being present. The loser
	// of a race matches zero rows and observes the same error as a bad code.
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&model.ParentLink{}).
		Where("id = ? AND invite_code = ? AND linked_at IS NULL", link.ID, code).
		Updates(map[string]interface{}{
			"parent_id":   parentID,
			"linked_at":   now,
			"invite_code": nil,
		})
	if result.Error != nil {
		return 0, apperr.Wrap(apperr.ErrDependency, "failed to redeem invite", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, apperr.New(apperr.ErrNotFound, "invalid or expired invite code")
	}
	return link.StudentID, nil
}

// Unlink hard-deletes the link. Relinking requires a fresh invite cycle.
func (s *Service) Unlink(ctx context.Context, parentID, studentID int64) error {
	result := s.db.WithContext(ctx).
		Where("parent_id = ? AND student_id = ? AND linked_at IS NOT NULL", parentID, studentID).
		Delete(&model.ParentLink{})
	if result.Error != nil {
		return apperr.Wrap(apperr.ErrDependency, "failed to unlink", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.New(apperr.ErrNotFound, "no link to this student")
	}
	return nil
}

// IsLinked is the capability check gating every parent-facing read.
func (s *Service) IsLinked(ctx context.Context, parentID, studentID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ParentLink{}).
		Where("parent_id = ? AND student_id = ? AND linked_at IS NOT NULL", parentID, studentID).
		Count(&count).Error
	if err != nil {
		return false, apperr.Wrap(apperr.ErrDependency, "failed to check link", err)
	}
	return count > 0, nil
}

// LinkedStudent is a linked child's account summary as shown to the parent.
type LinkedStudent struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	DisplayName *string    `json:"displayName"`
	GradeLevel  *int       `json:"gradeLevel"`
	LinkedAt    *time.Time `json:"linkedAt"`
}

func (s *Service) LinkedStudents(ctx context.Context, parentID int64) ([]LinkedStudent, error) {
	var students []LinkedStudent
	err := s.db.WithContext(ctx).Model(&model.ParentLink{}).
		Select("users.id, users.email, users.display_name, users.grade_level, parent_links.linked_at").
		Joins("JOIN users ON users.id = parent_links.student_id").
		Where("parent_links.parent_id = ? AND parent_links.linked_at IS NOT NULL", parentID).
		Scan(&students).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load linked students", err)
	}
	return students, nil
}
