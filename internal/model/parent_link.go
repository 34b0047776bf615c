package model

import "time"

// ParentLink is either pending (invite_code set, parent_id and linked_at null)
// or linked (parent_id and linked_at set, invite_code null). The unique
// invite_code index doubles as the redemption lock: redeeming nulls the code
// in the same statement that claims the row.
type ParentLink struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	StudentID  int64      `gorm:"not null;index" json:"studentId"`
	ParentID   *int64     `gorm:"index" json:"parentId"`
	InviteCode *string    `gorm:"size:8;uniqueIndex" json:"-"`
	LinkedAt   *time.Time `json:"linkedAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (ParentLink) TableName() string {
	return "parent_links"
}
