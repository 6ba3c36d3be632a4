package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/grading"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/observability"
	"github.com/noah-isme/loopwar-api/internal/repository"
)

const (
	defaultSubmissionListLimit = 10
	maxSubmissionListLimit     = 100
)

var (
	// ErrUserNotFound indicates the authenticated user no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidResult indicates the grading payload is missing or not a JSON object.
	ErrInvalidResult = errors.New("result must be a grading result object")
	// ErrSubmissionNotFound indicates the submission does not exist or belongs to someone else.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrProgressNotFound indicates the learner has not attempted the problem yet.
	ErrProgressNotFound = errors.New("progress not found")
)

// CodeSubmissionService records graded attempts and exposes submission history and progress.
type CodeSubmissionService interface {
	Submit(ctx context.Context, userID uint, req dto.CodeSubmissionRequest) (dto.CodeSubmissionResult, error)
	List(ctx context.Context, userID uint, query dto.CodeSubmissionListQuery) ([]dto.CodeSubmissionSummary, error)
	Get(ctx context.Context, userID, submissionID uint) (dto.CodeSubmissionDetail, error)
	Progress(ctx context.Context, userID, problemID uint) (dto.CodeProgressResponse, error)
	ListProgress(ctx context.Context, userID uint) ([]dto.CodeProgressResponse, error)
}

type codeSubmissionService struct {
	submissions repository.CodeSubmissionRepository
	users       repository.UserRepository
	events      EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewCodeSubmissionService constructs the submission service. events may be nil.
func NewCodeSubmissionService(submissions repository.CodeSubmissionRepository, users repository.UserRepository, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) CodeSubmissionService {
	return &codeSubmissionService{
		submissions: submissions,
		users:       users,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "code_submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/loopwar-api/internal/service/code_submission"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *codeSubmissionService) Submit(ctx context.Context, userID uint, req dto.CodeSubmissionRequest) (dto.CodeSubmissionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.CodeSubmissionResult{}, err
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CodeSubmissionResult{}, ErrUserNotFound
		}
		return dto.CodeSubmissionResult{}, fmt.Errorf("load user: %w", err)
	}

	result, err := grading.Decode(req.Result)
	if err != nil {
		return dto.CodeSubmissionResult{}, ErrInvalidResult
	}
	status := grading.Classify(result)
	summary := grading.Summarize(result)

	ctx, span := s.tracer.Start(ctx, "code_submission.submit", trace.WithAttributes(
		attribute.Int64("problem_id", int64(req.ProblemID)),
		attribute.String("status", string(status)),
	))
	defer span.End()

	submission := models.CodeSubmission{
		UserID:          userID,
		ProblemID:       req.ProblemID,
		Code:            req.Code,
		Language:        strings.ToLower(strings.TrimSpace(req.Language)),
		Status:          string(status),
		TestResults:     datatypes.JSON(result.Raw),
		ExecutionTime:   summary.ExecutionTime,
		MemoryUsed:      summary.MemoryUsed,
		TotalTestCases:  summary.TotalTestCases,
		PassedTestCases: summary.PassedTestCases,
		Category:        strings.TrimSpace(req.Category),
		Topic:           strings.TrimSpace(req.Topic),
		Subtopic:        strings.TrimSpace(req.Subtopic),
		SortOrder:       req.SortOrder,
		CreatedAt:       s.now(),
	}

	progress, err := s.submissions.CreateWithProgress(ctx, &submission, status.Solved())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.CodeSubmissionResult{}, fmt.Errorf("record submission: %w", err)
	}

	observability.Submissions().WithLabelValues(string(status)).Inc()
	s.logger.Info().
		Uint("user_id", userID).
		Uint("problem_id", req.ProblemID).
		Uint("submission_id", submission.ID).
		Str("status", string(status)).
		Int("attempts", progress.AttemptsCount).
		Msg("code submission recorded")

	if status.Solved() {
		s.publishAccepted(ctx, submission, progress)
	}

	return dto.CodeSubmissionResult{
		SubmissionID:    submission.ID,
		Status:          string(status),
		PassedTestCases: summary.PassedTestCases,
		TotalTestCases:  summary.TotalTestCases,
		ExecutionTime:   summary.ExecutionTime,
		MemoryUsed:      summary.MemoryUsed,
		Success:         true,
	}, nil
}

func (s *codeSubmissionService) publishAccepted(ctx context.Context, submission models.CodeSubmission, progress models.CodeProgress) {
	if s.events == nil {
		return
	}
	firstSolve := progress.BestSubmissionID != nil && *progress.BestSubmissionID == submission.ID
	event := SubmissionAcceptedEvent{
		SubmissionID:  submission.ID,
		UserID:        submission.UserID,
		ProblemID:     submission.ProblemID,
		FirstSolve:    firstSolve,
		AttemptsCount: progress.AttemptsCount,
		AcceptedAt:    submission.CreatedAt,
	}
	if err := s.events.Publish(ctx, SubjectSubmissionAccepted, event); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish accepted submission event")
	}
}

func (s *codeSubmissionService) List(ctx context.Context, userID uint, query dto.CodeSubmissionListQuery) ([]dto.CodeSubmissionSummary, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultSubmissionListLimit
	}
	if limit > maxSubmissionListLimit {
		limit = maxSubmissionListLimit
	}

	submissions, err := s.submissions.List(ctx, userID, query.ProblemID, limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	items := make([]dto.CodeSubmissionSummary, 0, len(submissions))
	for _, submission := range submissions {
		items = append(items, dto.NewCodeSubmissionSummary(submission))
	}
	return items, nil
}

func (s *codeSubmissionService) Get(ctx context.Context, userID, submissionID uint) (dto.CodeSubmissionDetail, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CodeSubmissionDetail{}, ErrSubmissionNotFound
		}
		return dto.CodeSubmissionDetail{}, fmt.Errorf("load submission: %w", err)
	}
	if submission.UserID != userID {
		return dto.CodeSubmissionDetail{}, ErrSubmissionNotFound
	}
	return dto.NewCodeSubmissionDetail(submission), nil
}

func (s *codeSubmissionService) Progress(ctx context.Context, userID, problemID uint) (dto.CodeProgressResponse, error) {
	progress, err := s.submissions.GetProgress(ctx, userID, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CodeProgressResponse{}, ErrProgressNotFound
		}
		return dto.CodeProgressResponse{}, fmt.Errorf("load progress: %w", err)
	}
	return dto.NewCodeProgressResponse(progress), nil
}

func (s *codeSubmissionService) ListProgress(ctx context.Context, userID uint) ([]dto.CodeProgressResponse, error) {
	rows, err := s.submissions.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	items := make([]dto.CodeProgressResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.NewCodeProgressResponse(row))
	}
	return items, nil
}
