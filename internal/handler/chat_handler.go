package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/middleware"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

// ChatHandler wires the AI tutor endpoints including the websocket upgrade.
type ChatHandler struct {
	tutor  service.TutorService
	socket service.ChatSocketService
	logger zerolog.Logger
	errors errorResponder
}

// NewChatHandler creates a chat handler instance.
func NewChatHandler(tutor service.TutorService, socket service.ChatSocketService, logger zerolog.Logger, debug bool) *ChatHandler {
	logger = logger.With().Str("component", "chat_handler").Logger()
	return &ChatHandler{
		tutor:  tutor,
		socket: socket,
		logger: logger,
		errors: errorResponder{logger: logger, debug: debug},
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Use("/ai/chat/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			ctx := c.UserContext()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
			c.Locals("request_ctx", ctx)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ai/chat/ws", websocket.New(h.handleConnection))
	router.Post("/ai/chat", h.chat)
	router.Get("/ai/chat/sessions", h.sessions)
	router.Get("/ai/chat/sessions/:id/messages", h.messages)
}

func (h *ChatHandler) handleConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication required"))
		_ = conn.Close()
		return
	}

	correlation, _ := conn.Locals(middleware.LocalCorrelationID).(string)
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	h.logger.Info().Uint("user_id", userID).Msg("tutor websocket connected")
	h.socket.ServeConnection(conn, service.ChatConnectionOptions{
		UserID:        userID,
		CorrelationID: correlation,
		Context:       baseCtx,
	})
	h.logger.Info().Uint("user_id", userID).Msg("tutor websocket disconnected")
}

func (h *ChatHandler) chat(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.ChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.tutor.Chat(withRequestContext(c), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "tutor replied", resp)
}

func (h *ChatHandler) sessions(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	items, err := h.tutor.Sessions(withRequestContext(c), userID, limit)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, items, "chat sessions", fiber.Map{"count": len(items)})
}

func (h *ChatHandler) messages(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var before time.Time
	if raw := strings.TrimSpace(c.Query("before")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid before timestamp")
		}
		before = parsed
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	items, err := h.tutor.Messages(withRequestContext(c), userID, c.Params("id"), before, limit)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, items, "chat history", fiber.Map{"count": len(items)})
}

func (h *ChatHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return h.errors.validation(c, err)
	case errors.Is(err, service.ErrEmptyMessage):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrChatSessionNotFound), errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAIUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return h.errors.internal(c, err, "tutor chat")
	}
}

func websocketUserID(conn *websocket.Conn) uint {
	id, _ := conn.Locals(middleware.LocalUserID).(uint)
	return id
}
