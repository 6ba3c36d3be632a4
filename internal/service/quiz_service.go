package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/repository"
	"github.com/noah-isme/loopwar-api/pkg/ai"
)

const defaultQuizQuestions = 5

var (
	// ErrQuizNotFound indicates the quiz does not exist or belongs to someone else.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizAnswerCount indicates the number of answers does not match the number of questions.
	ErrQuizAnswerCount = errors.New("answers must cover every question")
	// ErrQuizGenerationEmpty indicates the model produced no usable questions.
	ErrQuizGenerationEmpty = errors.New("quiz generation produced no questions")
)

// QuizService generates multiple choice quizzes about problems and grades attempts.
type QuizService interface {
	Generate(ctx context.Context, userID uint, req dto.QuizGenerateRequest) (dto.QuizResponse, error)
	Get(ctx context.Context, userID, quizID uint) (dto.QuizResponse, error)
	SubmitResult(ctx context.Context, userID, quizID uint, req dto.QuizResultRequest) (dto.QuizResultResponse, error)
}

type quizService struct {
	quizzes   repository.QuizRepository
	problems  ProblemLoader
	generator ai.QuizGenerator
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuizService constructs the quiz service. generator may be nil when no model is configured.
func NewQuizService(quizzes repository.QuizRepository, problems ProblemLoader, generator ai.QuizGenerator, validate *validator.Validate, logger zerolog.Logger) QuizService {
	return &quizService{
		quizzes:   quizzes,
		problems:  problems,
		generator: generator,
		validator: validate,
		logger:    logger.With().Str("component", "quiz_service").Logger(),
	}
}

func (s *quizService) Generate(ctx context.Context, userID uint, req dto.QuizGenerateRequest) (dto.QuizResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResponse{}, err
	}
	if s.generator == nil {
		return dto.QuizResponse{}, ErrAIUnavailable
	}
	count := req.Count
	if count <= 0 {
		count = defaultQuizQuestions
	}

	problem, err := s.problems.LoadProblem(ctx, req.ProblemID)
	if err != nil {
		return dto.QuizResponse{}, err
	}

	generated, err := s.generator.GenerateQuiz(ctx, ai.QuizInput{
		ProblemTitle: problem.Title,
		Description:  problem.Description,
		Count:        count,
	})
	if err != nil {
		return dto.QuizResponse{}, fmt.Errorf("generate quiz: %w", err)
	}
	if len(generated) == 0 {
		return dto.QuizResponse{}, ErrQuizGenerationEmpty
	}

	questions := make([]models.QuizQuestion, 0, len(generated))
	for _, q := range generated {
		questions = append(questions, models.QuizQuestion{
			Question:    q.Question,
			Options:     q.Options,
			AnswerIndex: q.AnswerIndex,
			Explanation: q.Explanation,
		})
	}

	quiz := models.Quiz{UserID: userID, ProblemID: problem.ID, Questions: questions}
	if err := s.quizzes.Create(ctx, &quiz); err != nil {
		return dto.QuizResponse{}, fmt.Errorf("store quiz: %w", err)
	}
	s.logger.Info().Uint("quiz_id", quiz.ID).Uint("problem_id", problem.ID).Int("questions", len(questions)).Msg("quiz generated")
	return dto.NewQuizResponse(quiz, false), nil
}

func (s *quizService) Get(ctx context.Context, userID, quizID uint) (dto.QuizResponse, error) {
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return dto.QuizResponse{}, err
	}
	return dto.NewQuizResponse(quiz, false), nil
}

func (s *quizService) SubmitResult(ctx context.Context, userID, quizID uint, req dto.QuizResultRequest) (dto.QuizResultResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.QuizResultResponse{}, err
	}
	quiz, err := s.ownedQuiz(ctx, userID, quizID)
	if err != nil {
		return dto.QuizResultResponse{}, err
	}
	if len(req.Answers) != len(quiz.Questions) {
		return dto.QuizResultResponse{}, ErrQuizAnswerCount
	}

	correct := make([]bool, len(quiz.Questions))
	score := 0
	for i, question := range quiz.Questions {
		if req.Answers[i] == question.AnswerIndex {
			correct[i] = true
			score++
		}
	}

	attempt := models.QuizAttempt{
		QuizID:  quiz.ID,
		UserID:  userID,
		Answers: req.Answers,
		Score:   score,
		Total:   len(quiz.Questions),
	}
	if err := s.quizzes.SaveAttempt(ctx, &attempt); err != nil {
		return dto.QuizResultResponse{}, fmt.Errorf("store quiz attempt: %w", err)
	}

	revealed := dto.NewQuizResponse(quiz, true)
	return dto.QuizResultResponse{
		AttemptID: attempt.ID,
		Score:     score,
		Total:     attempt.Total,
		Correct:   correct,
		Questions: revealed.Questions,
	}, nil
}

func (s *quizService) ownedQuiz(ctx context.Context, userID, quizID uint) (models.Quiz, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Quiz{}, ErrQuizNotFound
		}
		return models.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if quiz.UserID != userID {
		return models.Quiz{}, ErrQuizNotFound
	}
	return quiz, nil
}
