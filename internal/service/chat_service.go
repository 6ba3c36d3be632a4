package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/middleware"
)

const (
	chatSendBufferSize = 8
	chatPingInterval   = 30 * time.Second
	chatPongWait       = 2 * chatPingInterval
	chatMaxFrameBytes  = 64 << 10
)

// Frame types written to tutor chat websocket clients.
const (
	ChatFrameReply = "reply"
	ChatFrameError = "error"
)

// ChatConnectionOptions wraps metadata extracted during the HTTP upgrade.
type ChatConnectionOptions struct {
	UserID        uint
	CorrelationID string
	Context       context.Context
}

// ChatFrame is one server to client websocket message.
type ChatFrame struct {
	Type    string            `json:"type"`
	Data    *dto.ChatResponse `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
}

// ChatSocketService serves tutor chat over websocket connections. Every inbound JSON frame is
// a chat request answered with a reply or an error frame.
type ChatSocketService interface {
	ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions)
}

type chatSocketService struct {
	tutor  TutorService
	logger zerolog.Logger
}

type chatClient struct {
	conn    *websocket.Conn
	send    chan ChatFrame
	options ChatConnectionOptions
	service *chatSocketService
	closed  chan struct{}
	once    sync.Once
	baseCtx context.Context
}

// NewChatSocketService creates the websocket front for the tutor.
func NewChatSocketService(tutor TutorService, logger zerolog.Logger) ChatSocketService {
	return &chatSocketService{
		tutor:  tutor,
		logger: logger.With().Str("component", "chat_socket").Logger(),
	}
}

func (s *chatSocketService) ServeConnection(conn *websocket.Conn, opts ChatConnectionOptions) {
	baseCtx := opts.Context
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	client := &chatClient{
		conn:    conn,
		send:    make(chan ChatFrame, chatSendBufferSize),
		options: opts,
		service: s,
		closed:  make(chan struct{}),
		baseCtx: baseCtx,
	}

	go client.writer()
	client.reader()
}

func (s *chatSocketService) process(ctx context.Context, userID uint, payload dto.ChatRequest) ChatFrame {
	response, err := s.tutor.Chat(ctx, userID, payload)
	if err != nil {
		return ChatFrame{Type: ChatFrameError, Message: chatErrorMessage(err)}
	}
	return ChatFrame{Type: ChatFrameReply, Data: &response}
}

func chatErrorMessage(err error) string {
	switch {
	case isValidationErr(err):
		return "invalid chat request"
	case errors.Is(err, ErrChatSessionNotFound),
		errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrAIUnavailable),
		errors.Is(err, ErrProblemNotFound):
		return err.Error()
	default:
		return "tutor is unavailable, try again later"
	}
}

func (c *chatClient) reader() {
	defer c.close()

	correlation := c.options.CorrelationID
	if correlation == "" {
		correlation = middleware.CorrelationIDFromContext(c.baseCtx)
	}
	logger := c.service.logger.With().Str("correlation_id", correlation).Uint("user_id", c.options.UserID).Logger()

	c.conn.SetReadLimit(chatMaxFrameBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(chatPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(chatPongWait))
	})

	for {
		var payload dto.ChatRequest
		if err := c.conn.ReadJSON(&payload); err != nil {
			logger.Debug().Err(err).Msg("chat read loop ended")
			return
		}
		// a tutor reply can take longer than one pong window
		_ = c.conn.SetReadDeadline(time.Time{})

		frame := c.service.process(c.baseCtx, c.options.UserID, payload)
		if frame.Type == ChatFrameError {
			logger.Warn().Str("reason", frame.Message).Msg("chat request failed")
		}

		select {
		case <-c.closed:
			return
		case c.send <- frame:
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(chatPongWait))
	}
}

func (c *chatClient) writer() {
	defer c.close()

	ticker := time.NewTicker(chatPingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteJSON(frame); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat write loop terminated")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.service.logger.Debug().Err(err).Msg("chat ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *chatClient) close() {
	c.once.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

func isValidationErr(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
