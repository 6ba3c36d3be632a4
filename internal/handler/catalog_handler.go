package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

// CatalogHandler serves the problem catalog and its admin mutations.
type CatalogHandler struct {
	service service.CatalogService
	errors  errorResponder
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service service.CatalogService, logger zerolog.Logger, debug bool) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		errors: errorResponder{
			logger: logger.With().Str("component", "catalog_handler").Logger(),
			debug:  debug,
		},
	}
}

// Register wires the read endpoints.
func (h *CatalogHandler) Register(router fiber.Router) {
	router.Get("/categories", h.tree)
	router.Get("/problems", h.listProblems)
	router.Get("/problems/by-location", h.problemByLocation)
	router.Get("/problems/:id", h.getProblem)
}

// RegisterAdmin wires the catalog mutations. The router must already enforce the admin role.
func (h *CatalogHandler) RegisterAdmin(router fiber.Router) {
	router.Post("/categories", h.createCategory)
	router.Post("/topics", h.createTopic)
	router.Post("/subtopics", h.createSubtopic)
	router.Post("/problems", h.createProblem)
	router.Put("/problems/:id", h.updateProblem)
	router.Delete("/problems/:id", h.deleteProblem)
}

func (h *CatalogHandler) tree(c *fiber.Ctx) error {
	tree, err := h.service.Tree(withRequestContext(c))
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "categories retrieved", tree)
}

func (h *CatalogHandler) listProblems(c *fiber.Ctx) error {
	var query dto.ProblemListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	page, err := h.service.ListProblems(withRequestContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.OK(c, page.Items, "problems retrieved", page.Pagination)
}

func (h *CatalogHandler) problemByLocation(c *fiber.Ctx) error {
	var query dto.ProblemLocationQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	problem, err := h.service.ProblemByLocation(withRequestContext(c), query)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "problem retrieved", problem)
}

func (h *CatalogHandler) getProblem(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	problem, err := h.service.GetProblem(withRequestContext(c), id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "problem retrieved", problem)
}

func (h *CatalogHandler) createCategory(c *fiber.Ctx) error {
	var payload dto.CategoryCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	category, err := h.service.CreateCategory(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "category created", category)
}

func (h *CatalogHandler) createTopic(c *fiber.Ctx) error {
	var payload dto.TopicCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	topic, err := h.service.CreateTopic(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "topic created", topic)
}

func (h *CatalogHandler) createSubtopic(c *fiber.Ctx) error {
	var payload dto.SubtopicCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	subtopic, err := h.service.CreateSubtopic(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subtopic created", subtopic)
}

func (h *CatalogHandler) createProblem(c *fiber.Ctx) error {
	var payload dto.ProblemUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	problem, err := h.service.CreateProblem(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "problem created", problem)
}

func (h *CatalogHandler) updateProblem(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	var payload dto.ProblemUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	problem, err := h.service.UpdateProblem(withRequestContext(c), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "problem updated", problem)
}

func (h *CatalogHandler) deleteProblem(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteProblem(withRequestContext(c), id); err != nil {
		return h.handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CatalogHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return h.errors.validation(c, err)
	case errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrTopicNotFound),
		errors.Is(err, service.ErrSubtopicNotFound),
		errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCatalogConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	default:
		return h.errors.internal(c, err, "catalog operation")
	}
}
