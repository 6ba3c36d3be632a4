package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

// AuthHandler exposes account registration, verification and token endpoints.
type AuthHandler struct {
	service service.AuthService
	errors  errorResponder
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger, debug bool) *AuthHandler {
	return &AuthHandler{
		service: service,
		errors: errorResponder{
			logger: logger.With().Str("component", "auth_handler").Logger(),
			debug:  debug,
		},
	}
}

// RegisterPublic wires the unauthenticated endpoints into the /auth group.
func (h *AuthHandler) RegisterPublic(router fiber.Router) {
	router.Post("/signup", h.signup)
	router.Post("/verify", h.verify)
	router.Post("/resend-verification", h.resend)
	router.Post("/login", h.login)
	router.Post("/refresh", h.refresh)
}

// RegisterUserLookup wires the public username availability check.
func (h *AuthHandler) RegisterUserLookup(router fiber.Router, limiter fiber.Handler) {
	router.Post("/users/check", limiter, h.checkUsername)
}

// Register wires the profile endpoints into the authenticated group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Get("/users/me", h.me)
	router.Post("/users/me/avatar", h.avatar)
}

func (h *AuthHandler) signup(c *fiber.Ctx) error {
	var payload dto.SignupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Signup(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created, check your email for the verification code", resp)
}

func (h *AuthHandler) verify(c *fiber.Ctx) error {
	var payload dto.VerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.service.Verify(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "account verified", user)
}

func (h *AuthHandler) resend(c *fiber.Ctx) error {
	var payload dto.ResendVerificationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.service.ResendVerification(withRequestContext(c), payload); err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "verification code sent", nil)
}

func (h *AuthHandler) checkUsername(c *fiber.Ctx) error {
	var payload dto.UsernameCheckRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.CheckUsername(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "username checked", resp)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Login(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "login successful", resp)
}

func (h *AuthHandler) refresh(c *fiber.Ctx) error {
	var payload dto.RefreshRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Refresh(withRequestContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "token refreshed", resp)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	user, err := h.service.Me(withRequestContext(c), userID)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "profile retrieved", user)
}

func (h *AuthHandler) avatar(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return h.handleError(c, service.ErrAvatarRequired)
	}

	user, err := h.service.UploadAvatar(withRequestContext(c), userID, file)
	if err != nil {
		return h.handleError(c, err)
	}
	return utils.SendSuccess(c, "avatar updated", user)
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return h.errors.validation(c, err)
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRefreshToken):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountNotVerified):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidVerificationCode),
		errors.Is(err, service.ErrAlreadyVerified),
		errors.Is(err, service.ErrAvatarRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrAvatarTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrAvatarTypeNotAllowed):
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, service.ErrAvatarStorageUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return h.errors.internal(c, err, "auth operation")
	}
}
