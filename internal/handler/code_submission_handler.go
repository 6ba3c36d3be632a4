package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

// CodeSubmissionHandler exposes submission history and learner progress.
type CodeSubmissionHandler struct {
	service service.CodeSubmissionService
	errors  errorResponder
}

// NewCodeSubmissionHandler constructs the handler. debug exposes internal error text.
func NewCodeSubmissionHandler(service service.CodeSubmissionService, logger zerolog.Logger, debug bool) *CodeSubmissionHandler {
	return &CodeSubmissionHandler{
		service: service,
		errors: errorResponder{
			logger: logger.With().Str("component", "code_submission_handler").Logger(),
			debug:  debug,
		},
	}
}

// Register wires the handler endpoints into the authenticated API group.
func (h *CodeSubmissionHandler) Register(router fiber.Router) {
	router.Post("/code-submissions", h.create)
	router.Get("/code-submissions", h.list)
	router.Get("/code-submissions/:id", h.get)
	router.Get("/progress", h.listProgress)
	router.Get("/progress/:problemId", h.progress)
}

func (h *CodeSubmissionHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.CodeSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(withRequestContext(c), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission recorded", result)
}

func (h *CodeSubmissionHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	query := dto.CodeSubmissionListQuery{Limit: limit}
	if raw := c.Query("problemId"); raw != "" {
		problemID, err := parseQueryInt(c, "problemId")
		if err != nil || problemID <= 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid problemId")
		}
		id := uint(problemID)
		query.ProblemID = &id
	}

	items, err := h.service.List(withRequestContext(c), userID, query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, items, "submissions retrieved", fiber.Map{"count": len(items)})
}

func (h *CodeSubmissionHandler) get(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.service.Get(withRequestContext(c), userID, id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "submission retrieved", detail)
}

func (h *CodeSubmissionHandler) listProgress(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	items, err := h.service.ListProgress(withRequestContext(c), userID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "progress retrieved", items)
}

func (h *CodeSubmissionHandler) progress(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	problemID, err := parseUintParam(c, "problemId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	progress, err := h.service.Progress(withRequestContext(c), userID, problemID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "progress retrieved", progress)
}

func (h *CodeSubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return h.errors.validation(c, err)
	case errors.Is(err, service.ErrInvalidResult):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrProgressNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	default:
		return h.errors.internal(c, err, "code submission operation")
	}
}
