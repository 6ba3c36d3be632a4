package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/models"
)

// NoteLocation identifies the notes row for one learner at one catalog position.
type NoteLocation struct {
	UserID    uint
	Category  string
	Topic     string
	Subtopic  string
	SortOrder int
}

// LearningNoteRepository persists extracted learning notes.
type LearningNoteRepository interface {
	Get(ctx context.Context, location NoteLocation) (models.LearningNote, error)
	ListByUser(ctx context.Context, userID uint) ([]models.LearningNote, error)
	Merge(ctx context.Context, location NoteLocation, merge func(*models.LearningNote)) (models.LearningNote, error)
}

type learningNoteRepository struct {
	db *gorm.DB
}

// NewLearningNoteRepository constructs the repository implementation.
func NewLearningNoteRepository(db *gorm.DB) LearningNoteRepository {
	return &learningNoteRepository{db: db}
}

func (r *learningNoteRepository) Get(ctx context.Context, location NoteLocation) (models.LearningNote, error) {
	var note models.LearningNote
	if err := r.scope(r.db.WithContext(ctx), location).First(&note).Error; err != nil {
		return models.LearningNote{}, err
	}
	return note, nil
}

func (r *learningNoteRepository) ListByUser(ctx context.Context, userID uint) ([]models.LearningNote, error) {
	var notes []models.LearningNote
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("category ASC, topic ASC, subtopic ASC, sort_order ASC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// Merge loads or initialises the row for location, applies merge and saves it in one transaction.
func (r *learningNoteRepository) Merge(ctx context.Context, location NoteLocation, merge func(*models.LearningNote)) (models.LearningNote, error) {
	var note models.LearningNote
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := r.scope(tx, location).First(&note).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			note = models.LearningNote{
				UserID:    location.UserID,
				Category:  location.Category,
				Topic:     location.Topic,
				Subtopic:  location.Subtopic,
				SortOrder: location.SortOrder,
			}
		case err != nil:
			return err
		}

		merge(&note)
		return tx.Save(&note).Error
	})
	if err != nil {
		return models.LearningNote{}, err
	}
	return note, nil
}

func (r *learningNoteRepository) scope(db *gorm.DB, location NoteLocation) *gorm.DB {
	return db.Where("user_id = ? AND category = ? AND topic = ? AND subtopic = ? AND sort_order = ?",
		location.UserID, location.Category, location.Topic, location.Subtopic, location.SortOrder)
}

// QuizRepository persists generated quizzes and learner attempts.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (models.Quiz, error)
	SaveAttempt(ctx context.Context, attempt *models.QuizAttempt) error
}

type quizRepository struct {
	db *gorm.DB
}

// NewQuizRepository constructs the repository implementation.
func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.db.WithContext(ctx).Create(quiz).Error
}

func (r *quizRepository) GetByID(ctx context.Context, id uint) (models.Quiz, error) {
	var quiz models.Quiz
	if err := r.db.WithContext(ctx).First(&quiz, id).Error; err != nil {
		return models.Quiz{}, err
	}
	return quiz, nil
}

func (r *quizRepository) SaveAttempt(ctx context.Context, attempt *models.QuizAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}
