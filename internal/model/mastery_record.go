package model

import "time"

// MasteryRecord is the per-student per-concept ledger row. One row per
// (student, subject, concept); the score only ever goes up.
type MasteryRecord struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID     int64      `gorm:"not null;uniqueIndex:idx_mastery_student_subject_concept,priority:1" json:"studentId"`
	Subject       string     `gorm:"not null;size:50;uniqueIndex:idx_mastery_student_subject_concept,priority:2" json:"subject"`
	ConceptID     string     `gorm:"not null;size:100;uniqueIndex:idx_mastery_student_subject_concept,priority:3" json:"conceptId"`
	MasteryScore  int        `gorm:"not null;default:0" json:"masteryScore"`
	Attempts      int        `gorm:"not null;default:0" json:"attempts"`
	LastAttemptAt *time.Time `json:"lastAttemptAt"`
	CompletedAt   *time.Time `json:"completedAt"`
}

func (MasteryRecord) TableName() string {
	return "mastery_records"
}
