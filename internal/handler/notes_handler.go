package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

// NotesHandler serves the learner's notebook.
type NotesHandler struct {
	service service.NotesService
	errors  errorResponder
}

// NewNotesHandler constructs the handler.
func NewNotesHandler(service service.NotesService, logger zerolog.Logger, debug bool) *NotesHandler {
	return &NotesHandler{
		service: service,
		errors: errorResponder{
			logger: logger.With().Str("component", "notes_handler").Logger(),
			debug:  debug,
		},
	}
}

// Register wires the handler endpoints into the authenticated API group.
func (h *NotesHandler) Register(router fiber.Router) {
	router.Get("/notes", h.get)
	router.Get("/notes/all", h.list)
	router.Post("/notes/extract", h.extract)
}

// get returns one notebook page. A page that was never written comes back empty.
func (h *NotesHandler) get(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var query dto.NotesQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	page, err := h.service.Get(withRequestContext(c), userID, query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "notes retrieved", page)
}

func (h *NotesHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	pages, err := h.service.List(withRequestContext(c), userID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, pages, "notes retrieved", fiber.Map{"count": len(pages)})
}

func (h *NotesHandler) extract(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.NotesExtractRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	page, err := h.service.Extract(withRequestContext(c), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "notes updated", page)
}

func (h *NotesHandler) handleError(c *fiber.Ctx, err error) error {
	if isValidationError(err) {
		return h.errors.validation(c, err)
	}
	return h.errors.internal(c, err, "notes operation")
}
