package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/repository"
	"github.com/noah-isme/loopwar-api/pkg/ai"
)

const (
	tutorHistoryLimit   = 20
	sessionTitleMaxRune = 60
)

var (
	// ErrChatSessionNotFound indicates the session does not exist or belongs to someone else.
	ErrChatSessionNotFound = errors.New("chat session not found")
	// ErrEmptyMessage indicates nothing was left of the message after sanitizing.
	ErrEmptyMessage = errors.New("message is empty")
)

const tutorSystemPrompt = `You are LoopWar's programming tutor. Guide the learner towards the answer with questions, hints and small examples instead of handing over full solutions.
When you introduce a concept, state it as "X is Y" on its own line. Start important takeaways with "Key point:" and worked examples with "Example:".`

// TutorService runs the AI tutor conversation.
type TutorService interface {
	Chat(ctx context.Context, userID uint, req dto.ChatRequest) (dto.ChatResponse, error)
	Sessions(ctx context.Context, userID uint, limit int) ([]dto.ChatSessionResponse, error)
	Messages(ctx context.Context, userID uint, sessionID string, before time.Time, limit int) ([]dto.ChatMessageResponse, error)
}

type tutorService struct {
	chats     repository.ChatRepository
	problems  ProblemLoader
	notes     NotesService
	tutor     ai.Tutor
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	newID     func() string
}

// NewTutorService constructs the tutor service. tutor may be nil when no model is configured.
func NewTutorService(chats repository.ChatRepository, problems ProblemLoader, notesService NotesService, tutor ai.Tutor, validate *validator.Validate, logger zerolog.Logger) TutorService {
	return &tutorService{
		chats:     chats,
		problems:  problems,
		notes:     notesService,
		tutor:     tutor,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "tutor_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/loopwar-api/internal/service/tutor"),
		newID:     uuid.NewString,
	}
}

func (s *tutorService) Chat(ctx context.Context, userID uint, req dto.ChatRequest) (dto.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChatResponse{}, err
	}
	if s.tutor == nil {
		return dto.ChatResponse{}, ErrAIUnavailable
	}

	message := strings.TrimSpace(s.sanitizer.Sanitize(req.Message))
	if message == "" {
		return dto.ChatResponse{}, ErrEmptyMessage
	}

	var (
		session models.ChatSession
		history []models.ChatMessage
		isNew   bool
	)
	if req.SessionID != "" {
		existing, err := s.ownedSession(ctx, userID, req.SessionID)
		if err != nil {
			return dto.ChatResponse{}, err
		}
		session = existing
		history, err = s.chats.RecentMessages(ctx, session.ID, tutorHistoryLimit-1)
		if err != nil {
			return dto.ChatResponse{}, fmt.Errorf("load chat history: %w", err)
		}
	} else {
		isNew = true
		session = models.ChatSession{
			ID:        s.newID(),
			UserID:    userID,
			ProblemID: req.ProblemID,
			Title:     sessionTitle(message),
		}
	}
	if session.ProblemID == nil {
		session.ProblemID = req.ProblemID
	}

	var problem *models.Problem
	if session.ProblemID != nil {
		loaded, err := s.problems.LoadProblem(ctx, *session.ProblemID)
		if err != nil {
			return dto.ChatResponse{}, err
		}
		problem = &loaded
	}

	ctx, span := s.tracer.Start(ctx, "tutor.chat", trace.WithAttributes(
		attribute.String("chat.session_id", session.ID),
		attribute.Int("chat.history", len(history)),
	))
	defer span.End()

	prompt := make([]ai.Message, 0, len(history)+1)
	for _, turn := range history {
		prompt = append(prompt, ai.Message{Role: turn.Role, Content: turn.Content})
	}
	prompt = append(prompt, ai.Message{Role: models.ChatRoleUser, Content: message})

	reply, err := s.tutor.Reply(ctx, systemPromptFor(problem), prompt)
	if err != nil {
		span.RecordError(err)
		return dto.ChatResponse{}, fmt.Errorf("tutor reply: %w", err)
	}

	if isNew {
		if err := s.chats.CreateSession(ctx, &session); err != nil {
			return dto.ChatResponse{}, fmt.Errorf("create chat session: %w", err)
		}
	}

	userTurn := &models.ChatMessage{Role: models.ChatRoleUser, Content: message}
	assistantTurn := &models.ChatMessage{Role: models.ChatRoleAssistant, Content: reply}
	if err := s.chats.AppendMessages(ctx, session.ID, userTurn, assistantTurn); err != nil {
		return dto.ChatResponse{}, fmt.Errorf("store chat messages: %w", err)
	}

	response := dto.ChatResponse{
		SessionID: session.ID,
		Reply:     dto.NewChatMessageResponse(*assistantTurn),
	}

	if problem != nil && s.notes != nil {
		category, topic, subtopic := problem.LocationSlugs()
		location := repository.NoteLocation{
			UserID:    userID,
			Category:  category,
			Topic:     topic,
			Subtopic:  subtopic,
			SortOrder: problem.SortOrder,
		}
		extracted, err := s.notes.Absorb(ctx, location, reply)
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("failed to merge tutor notes")
		} else if !extracted.Empty() {
			response.Notes = &extracted
		}
	}

	return response, nil
}

func (s *tutorService) Sessions(ctx context.Context, userID uint, limit int) ([]dto.ChatSessionResponse, error) {
	sessions, err := s.chats.ListSessions(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	items := make([]dto.ChatSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, dto.NewChatSessionResponse(session))
	}
	return items, nil
}

func (s *tutorService) Messages(ctx context.Context, userID uint, sessionID string, before time.Time, limit int) ([]dto.ChatMessageResponse, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := s.chats.ListMessages(ctx, session.ID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	items := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		items = append(items, dto.NewChatMessageResponse(message))
	}
	return items, nil
}

func (s *tutorService) ownedSession(ctx context.Context, userID uint, sessionID string) (models.ChatSession, error) {
	session, err := s.chats.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ChatSession{}, ErrChatSessionNotFound
		}
		return models.ChatSession{}, fmt.Errorf("load chat session: %w", err)
	}
	if session.UserID != userID {
		return models.ChatSession{}, ErrChatSessionNotFound
	}
	return session, nil
}

func systemPromptFor(problem *models.Problem) string {
	if problem == nil {
		return tutorSystemPrompt
	}
	var b strings.Builder
	b.WriteString(tutorSystemPrompt)
	b.WriteString("\n\nThe learner is working on this problem.\nTitle: ")
	b.WriteString(problem.Title)
	b.WriteString("\nDifficulty: ")
	b.WriteString(problem.Difficulty)
	b.WriteString("\nStatement:\n")
	b.WriteString(problem.Description)
	return b.String()
}

func sessionTitle(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(title) <= sessionTitleMaxRune {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:sessionTitleMaxRune])) + "..."
}
