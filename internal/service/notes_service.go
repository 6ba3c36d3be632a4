package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/notes"
	"github.com/noah-isme/loopwar-api/internal/repository"
)

// NotesService maintains each learner's notebook of definitions, analogies, insights and examples.
type NotesService interface {
	Get(ctx context.Context, userID uint, query dto.NotesQuery) (dto.NotesResponse, error)
	List(ctx context.Context, userID uint) ([]dto.NotesResponse, error)
	Extract(ctx context.Context, userID uint, req dto.NotesExtractRequest) (dto.NotesResponse, error)
	Absorb(ctx context.Context, location repository.NoteLocation, text string) (notes.Content, error)
}

type notesService struct {
	repo      repository.LearningNoteRepository
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewNotesService constructs the notes service.
func NewNotesService(repo repository.LearningNoteRepository, validate *validator.Validate, logger zerolog.Logger) NotesService {
	return &notesService{
		repo:      repo,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "notes_service").Logger(),
	}
}

func (s *notesService) Get(ctx context.Context, userID uint, query dto.NotesQuery) (dto.NotesResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.NotesResponse{}, err
	}
	location := noteLocation(userID, query.Category, query.Topic, query.Subtopic, query.SortOrder)

	note, err := s.repo.Get(ctx, location)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NewNotesResponse(models.LearningNote{
				Category:  location.Category,
				Topic:     location.Topic,
				Subtopic:  location.Subtopic,
				SortOrder: location.SortOrder,
			}), nil
		}
		return dto.NotesResponse{}, fmt.Errorf("load notes: %w", err)
	}
	return dto.NewNotesResponse(note), nil
}

func (s *notesService) List(ctx context.Context, userID uint) ([]dto.NotesResponse, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	items := make([]dto.NotesResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NewNotesResponse(row))
	}
	return items, nil
}

func (s *notesService) Extract(ctx context.Context, userID uint, req dto.NotesExtractRequest) (dto.NotesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NotesResponse{}, err
	}
	location := noteLocation(userID, req.Category, req.Topic, req.Subtopic, req.SortOrder)

	note, err := s.merge(ctx, location, notes.Extract(s.plainText(req.Text)))
	if err != nil {
		return dto.NotesResponse{}, err
	}
	return dto.NewNotesResponse(note), nil
}

// Absorb extracts notes from text and merges them into the notebook at location.
// Nothing is written when the text yields no notes.
func (s *notesService) Absorb(ctx context.Context, location repository.NoteLocation, text string) (notes.Content, error) {
	extracted := notes.Extract(s.plainText(text))
	if extracted.Empty() {
		return extracted, nil
	}
	if _, err := s.merge(ctx, location, extracted); err != nil {
		return notes.Content{}, err
	}
	return extracted, nil
}

func (s *notesService) merge(ctx context.Context, location repository.NoteLocation, incoming notes.Content) (models.LearningNote, error) {
	note, err := s.repo.Merge(ctx, location, func(note *models.LearningNote) {
		notes.Merge(notes.FromModel(*note), incoming).Apply(note)
	})
	if err != nil {
		return models.LearningNote{}, fmt.Errorf("merge notes: %w", err)
	}
	s.logger.Debug().
		Uint("user_id", location.UserID).
		Int("definitions", len(note.Definitions)).
		Int("insights", len(note.KeyInsights)).
		Msg("notes merged")
	return note, nil
}

func (s *notesService) plainText(text string) string {
	return html.UnescapeString(s.policy.Sanitize(text))
}

func noteLocation(userID uint, category, topic, subtopic string, sortOrder int) repository.NoteLocation {
	return repository.NoteLocation{
		UserID:    userID,
		Category:  strings.TrimSpace(category),
		Topic:     strings.TrimSpace(topic),
		Subtopic:  strings.TrimSpace(subtopic),
		SortOrder: sortOrder,
	}
}
