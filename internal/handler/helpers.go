package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/middleware"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	id, _ := c.Locals(middleware.LocalUserID).(uint)
	return id
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// errorResponder writes the failure envelopes shared by every handler.
type errorResponder struct {
	logger zerolog.Logger
	debug  bool
}

func (r errorResponder) validation(c *fiber.Ctx, err error) error {
	return utils.Fail(c, fiber.StatusBadRequest, "validation failed", utils.ValidationDetails(err))
}

// internal logs err and answers 500. The error text is only exposed in development.
func (r errorResponder) internal(c *fiber.Ctx, err error, action string) error {
	requestLogger(r.logger, c).Error().Err(err).Str("path", c.Path()).Msg(action + " failed")
	var details interface{}
	if r.debug {
		details = fiber.Map{"error": err.Error()}
	}
	return utils.Fail(c, fiber.StatusInternalServerError, "internal server error", details)
}
