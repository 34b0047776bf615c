// Seeds demo accounts for local development: a grade 3 student with partial
// math progress and a parent not yet linked (use the invite flow to link).
package main

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/openalpha/api/internal/auth"
	"github.com/openalpha/api/internal/config"
	"github.com/openalpha/api/internal/database"
	"github.com/openalpha/api/internal/model"
	"github.com/openalpha/api/internal/progress"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	grade := 3
	student := seedUser(db, "student@example.com", "password123", "Demo Student", model.RoleStudent, &grade)
	seedUser(db, "parent@example.com", "password123", "Demo Parent", model.RoleParent, nil)

	ledger := progress.NewLedger(db)
	ctx := context.Background()
	attempts := []struct {
		subject string
		concept string
		score   int
	}{
		{"math", "math-counting", 90},
		{"math", "math-addition-basic", 85},
		{"math", "math-subtraction-basic", 60},
	}
	for _, a := range attempts {
		if _, err := ledger.RecordAttempt(ctx, student.ID, a.subject, a.concept, a.score); err != nil {
			log.Fatalf("Failed to seed progress: %v", err)
		}
	}

	log.Println("Seed complete")
}

func seedUser(db *gorm.DB, email, password, name, role string, gradeLevel *int) *model.User {
	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Printf("User %s already exists, skipping", email)
		return &existing
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("Failed to look up user %s: %v", email, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  &name,
		Role:         role,
		GradeLevel:   gradeLevel,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create user %s: %v", email, err)
	}
	log.Printf("Created %s account %s", role, email)
	return &user
}
