package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Topic{},
		&models.Subtopic{},
		&models.Problem{},
		&models.CodeSubmission{},
		&models.CodeProgress{},
		&models.ChatSession{},
		&models.ChatMessage{},
		&models.LearningNote{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.ContactMessage{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
