// Package session is the append-only chat transcript store. A turn is one
// user entry followed by one assistant entry; both are committed in a single
// conditional update so a failed completion call never leaves a dangling
// user-only entry.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/model"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create opens a session with an empty transcript. Subject and concept are
// set only for tutor sessions and are fixed for the session's lifetime.
func (s *Store) Create(ctx context.Context, userID int64, sessionType string, subject, conceptID *string) (*model.ChatSession, error) {
	sess := &model.ChatSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		SessionType: sessionType,
		Subject:     subject,
		ConceptID:   conceptID,
		Transcript:  datatypes.JSON([]byte("[]")),
	}
	if err := s.db.WithContext(ctx).Create(sess).Error; err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to create session", err)
	}
	return sess, nil
}

// GetOwned loads a session for its owner. A session belonging to another user
// reports not-found, the same as a session that does not exist, so session
// ids cannot be probed.
func (s *Store) GetOwned(ctx context.Context, id string, userID int64) (*model.ChatSession, error) {
	var sess model.ChatSession
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.ErrNotFound, "session not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load session", err)
	}
	return &sess, nil
}

// Transcript decodes a session's message history.
func Transcript(sess *model.ChatSession) ([]model.Message, error) {
	var messages []model.Message
	if len(sess.Transcript) == 0 {
		return messages, nil
	}
	if err := json.Unmarshal(sess.Transcript, &messages); err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "corrupt session transcript", err)
	}
	return messages, nil
}

// CompleteTurn appends the user and assistant entries of one finished turn
// and persists them together. The update is conditioned on the version the
// session was loaded at; a concurrent turn on the same session makes the
// second writer lose with a retryable conflict instead of clobbering the
// transcript.
func (s *Store) CompleteTurn(ctx context.Context, sess *model.ChatSession, userContent, assistantContent string) ([]model.Message, error) {
	messages, err := Transcript(sess)
	if err != nil {
		return nil, err
	}
	messages = append(messages,
		model.Message{Role: "user", Content: userContent},
		model.Message{Role: "assistant", Content: assistantContent},
	)

	encoded, err := json.Marshal(messages)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to encode transcript", err)
	}

	result := s.db.WithContext(ctx).Model(&model.ChatSession{}).
		Where("id = ? AND version = ?", sess.ID, sess.Version).
		Updates(map[string]interface{}{
			"transcript": datatypes.JSON(encoded),
			"version":    sess.Version + 1,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to save session", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.New(apperr.ErrConflict, "session was updated concurrently, retry")
	}

	sess.Transcript = datatypes.JSON(encoded)
	sess.Version++
	return messages, nil
}

// ListMetadata returns a user's sessions without transcript content, most
// recently active first.
func (s *Store) ListMetadata(ctx context.Context, userID int64, limit int) ([]model.SessionMeta, error) {
	return s.listMetadata(ctx, s.db.WithContext(ctx).Where("user_id = ?", userID), limit)
}

func (s *Store) ListMetadataByType(ctx context.Context, userID int64, sessionType string, limit int) ([]model.SessionMeta, error) {
	query := s.db.WithContext(ctx).Where("user_id = ? AND session_type = ?", userID, sessionType)
	return s.listMetadata(ctx, query, limit)
}

// RecentActivity returns session metadata updated since the given time.
func (s *Store) RecentActivity(ctx context.Context, userID int64, since time.Time, limit int) ([]model.SessionMeta, error) {
	query := s.db.WithContext(ctx).Where("user_id = ? AND updated_at >= ?", userID, since)
	return s.listMetadata(ctx, query, limit)
}

func (s *Store) listMetadata(_ context.Context, query *gorm.DB, limit int) ([]model.SessionMeta, error) {
	var metas []model.SessionMeta
	err := query.Model(&model.ChatSession{}).
		Select("id, session_type, subject, concept_id, created_at, updated_at").
		Order("updated_at DESC").
		Limit(limit).
		Scan(&metas).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load sessions", err)
	}
	return metas, nil
}

// LastActive returns the newest updated_at across a user's sessions, or nil
// when they have none.
func (s *Store) LastActive(ctx context.Context, userID int64) (*time.Time, error) {
	var sess model.ChatSession
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "failed to load sessions", err)
	}
	return &sess.UpdatedAt, nil
}
