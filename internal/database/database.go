package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openalpha/api/internal/config"
	"github.com/openalpha/api/internal/model"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.MasteryRecord{},
		&model.ChatSession{},
		&model.ParentLink{},
	)
	if err != nil {
		return err
	}

	// Partial index backing the one-pending-invite-per-student rule.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_parent_links_pending_student ON parent_links(student_id) WHERE linked_at IS NULL")

	return nil
}
