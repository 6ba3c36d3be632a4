package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Event subjects published by the API.
const (
	SubjectSubmissionAccepted = "loopwar.submissions.accepted"
	SubjectUserVerification   = "loopwar.users.verification"
	SubjectContactReceived    = "loopwar.contact.received"
)

// EventPublisher delivers domain events to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type natsPublisher struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewEventPublisher publishes over NATS when conn is set; otherwise events are only logged.
func NewEventPublisher(conn *nats.Conn, logger zerolog.Logger) EventPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

type eventEnvelope struct {
	Subject string      `json:"subject"`
	SentAt  time.Time   `json:"sentAt"`
	Data    interface{} `json:"data"`
}

func (p *natsPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	body, err := json.Marshal(eventEnvelope{Subject: subject, SentAt: time.Now().UTC(), Data: payload})
	if err != nil {
		return err
	}

	if p.conn == nil {
		p.logger.Debug().Str("subject", subject).RawJSON("event", body).Msg("nats not configured, event logged only")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return p.conn.Publish(subject, body)
}

// SubmissionAcceptedEvent is published when a learner's submission is accepted.
type SubmissionAcceptedEvent struct {
	SubmissionID  uint      `json:"submissionId"`
	UserID        uint      `json:"userId"`
	ProblemID     uint      `json:"problemId"`
	FirstSolve    bool      `json:"firstSolve"`
	AttemptsCount int       `json:"attemptsCount"`
	AcceptedAt    time.Time `json:"acceptedAt"`
}

// VerificationEvent carries a verification code to the mail delivery worker.
type VerificationEvent struct {
	UserID    uint      `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}
