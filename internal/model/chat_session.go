package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SessionTypeTutor = "tutor"
	SessionTypeCoach = "coach"
)

// Message is one transcript entry. Transcripts strictly alternate user then
// assistant; both entries of a turn are committed together.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatSession struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      int64          `gorm:"not null;index" json:"userId"`
	SessionType string         `gorm:"not null;size:20" json:"sessionType"`
	Subject     *string        `gorm:"size:50" json:"subject"`
	ConceptID   *string        `gorm:"size:100" json:"conceptId"`
	Transcript  datatypes.JSON `json:"-"`
	Version     int            `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `gorm:"index" json:"updatedAt"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

// SessionMeta is the parent-visible view of a session: everything except the
// transcript itself.
type SessionMeta struct {
	ID          string    `json:"id"`
	SessionType string    `json:"sessionType"`
	Subject     *string   `json:"subject"`
	ConceptID   *string   `json:"conceptId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
