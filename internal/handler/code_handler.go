package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
	"github.com/noah-isme/loopwar-api/pkg/judge"
)

// CodeHandler runs code in the sandbox and asks the AI reviewer to grade it.
// Neither endpoint persists anything; clients record results through /code-submissions.
type CodeHandler struct {
	runner  service.CodeRunService
	checker service.CodeCheckService
	errors  errorResponder
}

// NewCodeHandler constructs the handler.
func NewCodeHandler(runner service.CodeRunService, checker service.CodeCheckService, logger zerolog.Logger, debug bool) *CodeHandler {
	return &CodeHandler{
		runner:  runner,
		checker: checker,
		errors: errorResponder{
			logger: logger.With().Str("component", "code_handler").Logger(),
			debug:  debug,
		},
	}
}

// Register wires the handler endpoints into the authenticated API group.
func (h *CodeHandler) Register(router fiber.Router) {
	router.Post("/code/execute", h.execute)
	router.Post("/code/check", h.check)
}

func (h *CodeHandler) execute(c *fiber.Ctx) error {
	var payload dto.CodeRunRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.runner.Execute(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "code executed", result)
}

func (h *CodeHandler) check(c *fiber.Ctx) error {
	var payload dto.CodeCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	review, err := h.checker.Check(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "code reviewed", review)
}

func (h *CodeHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return h.errors.validation(c, err)
	case errors.Is(err, judge.ErrUnsupportedLanguage), errors.Is(err, service.ErrNoTestCases):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrJudgeUnavailable), errors.Is(err, service.ErrAIUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrAIResponseInvalid):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	default:
		return h.errors.internal(c, err, "code operation")
	}
}
