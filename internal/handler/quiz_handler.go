package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

// QuizHandler exposes AI generated quizzes.
type QuizHandler struct {
	service service.QuizService
	errors  errorResponder
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(service service.QuizService, logger zerolog.Logger, debug bool) *QuizHandler {
	return &QuizHandler{
		service: service,
		errors: errorResponder{
			logger: logger.With().Str("component", "quiz_handler").Logger(),
			debug:  debug,
		},
	}
}

// Register wires the handler endpoints into the authenticated API group.
func (h *QuizHandler) Register(router fiber.Router) {
	router.Post("/quiz/generate", h.generate)
	router.Get("/quiz/:id", h.get)
	router.Post("/quiz/:id/result", h.submitResult)
}

func (h *QuizHandler) generate(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	var payload dto.QuizGenerateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	quiz, err := h.service.Generate(withRequestContext(c), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "quiz generated", quiz)
}

func (h *QuizHandler) get(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	quiz, err := h.service.Get(withRequestContext(c), userID, id)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "quiz retrieved", quiz)
}

func (h *QuizHandler) submitResult(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.QuizResultRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SubmitResult(withRequestContext(c), userID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "quiz graded", result)
}

func (h *QuizHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return h.errors.validation(c, err)
	case errors.Is(err, service.ErrQuizAnswerCount):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrQuizNotFound), errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAIUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrQuizGenerationEmpty):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	default:
		return h.errors.internal(c, err, "quiz operation")
	}
}
