package utils_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/utils"
)

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

func call(t *testing.T, handler fiber.Handler) (int, envelope, map[string]json.RawMessage) {
	t.Helper()
	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	body, err := json.Marshal(raw)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env))
	return resp.StatusCode, env, raw
}

func TestOKIncludesMetaAndDefaultMessage(t *testing.T) {
	status, env, _ := call(t, func(c *fiber.Ctx) error {
		return utils.OK(c, fiber.Map{"title": "Two Sum"}, "", fiber.Map{"page": 1, "totalPages": 3})
	})

	require.Equal(t, fiber.StatusOK, status)
	require.True(t, env.Success)
	require.Equal(t, "success", env.Message)
	require.Equal(t, "Two Sum", env.Data["title"])
	require.Equal(t, float64(3), env.Meta["totalPages"])
}

func TestSendSuccessWithStatusOmitsEmptyFields(t *testing.T) {
	status, env, raw := call(t, func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", fiber.Map{"userId": 7})
	})

	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, "account created", env.Message)
	require.NotContains(t, raw, "meta")
	require.NotContains(t, raw, "details")
}

func TestFailCarriesValidationDetails(t *testing.T) {
	validate := utils.NewValidator()
	type submission struct {
		ProblemID uint   `validate:"required"`
		Code      string `validate:"required"`
	}
	err := fmt.Errorf("submit: %w", validate.Struct(submission{Code: "print(1)"}))

	status, env, raw := call(t, func(c *fiber.Ctx) error {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", utils.ValidationDetails(err))
	})

	require.Equal(t, fiber.StatusBadRequest, status)
	require.False(t, env.Success)
	require.Equal(t, "validation failed", env.Message)
	require.Equal(t, "required", env.Details["ProblemID"])
	require.NotContains(t, env.Details, "Code")
	require.NotContains(t, raw, "data")
}

func TestSendErrorDefaultsMessage(t *testing.T) {
	status, env, _ := call(t, func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "")
	})

	require.Equal(t, fiber.StatusServiceUnavailable, status)
	require.Equal(t, "error", env.Message)
}
