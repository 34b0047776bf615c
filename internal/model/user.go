package model

import "time"

const (
	RoleStudent = "student"
	RoleParent  = "parent"
)

type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	DisplayName  *string   `gorm:"size:255" json:"displayName"`
	Role         string    `gorm:"not null;size:20" json:"role"`
	GradeLevel   *int      `json:"gradeLevel"`
	Provider     string    `gorm:"size:20" json:"-"`
	ProviderID   string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
