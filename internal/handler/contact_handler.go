package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

// ContactHandler accepts messages from the public contact form.
type ContactHandler struct {
	service service.ContactService
	errors  errorResponder
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(service service.ContactService, logger zerolog.Logger, debug bool) *ContactHandler {
	return &ContactHandler{
		service: service,
		errors: errorResponder{
			logger: logger.With().Str("component", "contact_handler").Logger(),
			debug:  debug,
		},
	}
}

// Register wires the contact route.
func (h *ContactHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
}

func (h *ContactHandler) submit(c *fiber.Ctx) error {
	var payload dto.ContactRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	payload.UserID = nil
	if userID := userIDFromContext(c); userID > 0 {
		payload.UserID = &userID
	}

	resp, err := h.service.Submit(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "message received, we will contact you soon", resp)
}

func (h *ContactHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return h.errors.validation(c, err)
	case errors.Is(err, service.ErrContactSpam):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	case errors.Is(err, service.ErrContactDuplicate):
		return utils.SendError(c, fiber.StatusTooManyRequests, err.Error())
	default:
		return h.errors.internal(c, err, "contact submission")
	}
}
