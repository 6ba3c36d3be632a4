package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/observability"
	"github.com/noah-isme/loopwar-api/internal/repository"
)

const defaultContactDedupeTTL = 5 * time.Minute

var (
	// ErrContactSpam indicates the honeypot field was filled.
	ErrContactSpam = errors.New("contact message flagged as spam")
	// ErrContactDuplicate indicates the same message was sent moments ago.
	ErrContactDuplicate = errors.New("duplicate contact message")
)

// ContactDelivery hands a stored message to whoever answers the inbox.
type ContactDelivery interface {
	Deliver(ctx context.Context, message models.ContactMessage) error
}

// ContactService accepts messages from the public contact form.
type ContactService interface {
	Submit(ctx context.Context, req dto.ContactRequest) (dto.ContactResponse, error)
}

type contactService struct {
	repo      repository.ContactRepository
	cache     *redis.Client
	delivery  ContactDelivery
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	dedupeTTL time.Duration
	tracer    trace.Tracer
	now       func() time.Time
}

// NewContactService constructs the contact service. cache may be nil, which
// disables duplicate suppression.
func NewContactService(repo repository.ContactRepository, cache *redis.Client, delivery ContactDelivery, validate *validator.Validate, logger zerolog.Logger) ContactService {
	return &contactService{
		repo:      repo,
		cache:     cache,
		delivery:  delivery,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "contact_service").Logger(),
		dedupeTTL: defaultContactDedupeTTL,
		tracer:    otel.Tracer("github.com/noah-isme/loopwar-api/internal/service/contact"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *contactService) Submit(ctx context.Context, req dto.ContactRequest) (dto.ContactResponse, error) {
	ctx, span := s.tracer.Start(ctx, "contact.submit")
	defer span.End()

	if strings.TrimSpace(req.Honeypot) != "" {
		span.SetStatus(codes.Error, "honeypot tripped")
		observability.ContactMessages().WithLabelValues("spam").Inc()
		return dto.ContactResponse{}, ErrContactSpam
	}

	req.Name = s.clean(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Subject = s.clean(req.Subject)
	req.Message = s.clean(req.Message)
	req.Type = s.clean(req.Type)

	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ContactResponse{}, err
	}

	checksum := contactChecksum(req.Email, req.Subject, req.Message)
	span.SetAttributes(attribute.String("contact.checksum", checksum))

	if s.cache != nil {
		fresh, err := s.cache.SetNX(ctx, fmt.Sprintf("contact:dedupe:%s", checksum), 1, s.dedupeTTL).Result()
		switch {
		case err != nil:
			span.RecordError(err)
			s.logger.Warn().Err(err).Msg("contact dedupe unavailable")
		case !fresh:
			span.SetStatus(codes.Error, "duplicate message")
			observability.ContactMessages().WithLabelValues("duplicate").Inc()
			return dto.ContactResponse{}, ErrContactDuplicate
		}
	}

	message := models.ContactMessage{
		ReferenceID: uuid.NewString(),
		UserID:      req.UserID,
		Name:        req.Name,
		Email:       req.Email,
		Subject:     req.Subject,
		Message:     req.Message,
		Type:        req.Type,
		Status:      models.ContactStatusQueued,
		Checksum:    checksum,
	}
	if err := s.repo.Create(ctx, &message); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence failed")
		observability.ContactMessages().WithLabelValues("error").Inc()
		return dto.ContactResponse{}, err
	}

	logger := s.logger.With().Str("reference_id", message.ReferenceID).Str("email", maskEmailAddress(message.Email)).Logger()

	if err := s.delivery.Deliver(ctx, message); err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Msg("contact delivery failed, message left queued")
		observability.ContactMessages().WithLabelValues(models.ContactStatusQueued).Inc()
		return dto.ContactResponse{ReferenceID: message.ReferenceID, Status: models.ContactStatusQueued}, nil
	}

	if err := s.repo.MarkDelivered(ctx, message.ID, s.now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "status update failed")
		observability.ContactMessages().WithLabelValues("error").Inc()
		return dto.ContactResponse{}, err
	}

	observability.ContactMessages().WithLabelValues(models.ContactStatusSent).Inc()
	logger.Info().Msg("contact message delivered")
	span.SetStatus(codes.Ok, "delivered")

	return dto.ContactResponse{ReferenceID: message.ReferenceID, Status: models.ContactStatusSent}, nil
}

func (s *contactService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func contactChecksum(parts ...string) string {
	hasher := sha256.New()
	for _, part := range parts {
		hasher.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
		hasher.Write([]byte("|"))
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

// ContactReceivedEvent is published for every stored contact message.
type ContactReceivedEvent struct {
	ReferenceID string    `json:"referenceId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Type        string    `json:"type,omitempty"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

type eventContactDelivery struct {
	events EventPublisher
}

// NewContactDelivery forwards contact messages over the event publisher.
func NewContactDelivery(events EventPublisher) ContactDelivery {
	return &eventContactDelivery{events: events}
}

func (d *eventContactDelivery) Deliver(ctx context.Context, message models.ContactMessage) error {
	return d.events.Publish(ctx, SubjectContactReceived, ContactReceivedEvent{
		ReferenceID: message.ReferenceID,
		Name:        message.Name,
		Email:       message.Email,
		Subject:     message.Subject,
		Message:     message.Message,
		Type:        message.Type,
		ReceivedAt:  message.CreatedAt,
	})
}
