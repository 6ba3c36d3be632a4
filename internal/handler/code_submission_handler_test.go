package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/loopwar-api/internal/handler"
	"github.com/noah-isme/loopwar-api/internal/middleware"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/repository"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func openHandlerDB(t *testing.T, tables ...interface{}) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func authenticateAs(userID uint, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals(middleware.LocalUserID, userID)
			c.Locals(middleware.LocalUserRole, role)
		}
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = strings.NewReader(v)
		default:
			payload, err := json.Marshal(v)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()

	var env envelope
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	return resp, env
}

func setupSubmissionApp(t *testing.T) (*fiber.App, *gorm.DB, models.User) {
	t.Helper()
	db := openHandlerDB(t, &models.User{}, &models.CodeSubmission{}, &models.CodeProgress{})
	user := models.User{Username: "ada", Email: "ada@example.com", PasswordHash: "x", Role: models.RoleStudent, IsVerified: true}
	require.NoError(t, db.Create(&user).Error)
	return submissionApp(db, user.ID), db, user
}

func submissionApp(db *gorm.DB, userID uint) *fiber.App {
	svc := service.NewCodeSubmissionService(
		repository.NewCodeSubmissionRepository(db),
		repository.NewUserRepository(db),
		service.NewEventPublisher(nil, zerolog.Nop()),
		utils.NewValidator(),
		zerolog.Nop(),
	)
	app := fiber.New()
	handler.NewCodeSubmissionHandler(svc, zerolog.Nop(), false).Register(app.Group("/api/v1", authenticateAs(userID, models.RoleStudent)))
	return app
}

func TestCodeSubmissionHandlerAcceptedScenario(t *testing.T) {
	app, _, _ := setupSubmissionApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/code-submissions", map[string]interface{}{
		"problemId": 10,
		"code":      "def solve(): pass",
		"language":  "python",
		"result":    map[string]interface{}{"isCorrect": true, "detailedAnalysis": map[string]interface{}{"testCases": map[string]int{"total": 5, "passed": 5}}},
		"category":  "arrays",
		"sortOrder": 1,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var result struct {
		SubmissionID   uint   `json:"submissionId"`
		Status         string `json:"status"`
		TotalTestCases int    `json:"totalTestCases"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Equal(t, "Accepted", result.Status)
	require.Equal(t, 5, result.TotalTestCases)

	resp, env = doJSON(t, app, http.MethodGet, "/api/v1/progress/10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var progress struct {
		AttemptsCount    int   `json:"attemptsCount"`
		IsSolved         bool  `json:"isSolved"`
		BestSubmissionID *uint `json:"bestSubmissionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	require.Equal(t, 1, progress.AttemptsCount)
	require.True(t, progress.IsSolved)
	require.Equal(t, result.SubmissionID, *progress.BestSubmissionID)

	resp, env = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/code-submissions/%d", result.SubmissionID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail struct {
		Code   string          `json:"code"`
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Equal(t, "def solve(): pass", detail.Code)
	require.JSONEq(t, `{"isCorrect":true,"detailedAnalysis":{"testCases":{"total":5,"passed":5}}}`, string(detail.Result))
}

func TestCodeSubmissionHandlerResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("testdata", "code_submission_result.schema.json"))
	require.NoError(t, err)
	schema, err := jsonschema.NewCompiler().Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)

	app, _, _ := setupSubmissionApp(t)
	payloads := []string{
		`{"problemId":3,"code":"x","language":"go","result":{"success":false,"error":"Time limit exceeded on test 3"}}`,
		`{"problemId":3,"code":"x","language":"go","result":{"success":false,"results":[{"passed":true,"executionTime":"0.5","memory":100}]}}`,
	}
	for _, payload := range payloads {
		resp, err := app.Test(func() *http.Request {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/code-submissions", strings.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			return req
		}(), -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		require.NoError(t, schema.Validate(body))
	}
}

func TestCodeSubmissionHandlerErrors(t *testing.T) {
	app, db, user := setupSubmissionApp(t)

	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/code-submissions", `{"problemId":1,"language":"go","result":{"isCorrect":true}}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, env.Success)
	require.Contains(t, string(env.Details), "Code")

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/code-submissions", `{"problemId":1,"code":"x","language":"go","result":"passed"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/code-submissions/999", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/code-submissions?problemId=abc", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ghost := submissionApp(db, user.ID+50)
	resp, _ = doJSON(t, ghost, http.MethodPost, "/api/v1/code-submissions", `{"problemId":1,"code":"x","language":"go","result":{"isCorrect":true}}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	anonymous := fiber.New()
	svc := service.NewCodeSubmissionService(nil, nil, nil, utils.NewValidator(), zerolog.Nop())
	handler.NewCodeSubmissionHandler(svc, zerolog.Nop(), false).Register(anonymous.Group("/api/v1"))
	resp, _ = doJSON(t, anonymous, http.MethodGet, "/api/v1/code-submissions", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCodeSubmissionHandlerListNewestFirst(t *testing.T) {
	app, _, _ := setupSubmissionApp(t)

	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/code-submissions", fmt.Sprintf(`{"problemId":%d,"code":"x","language":"go","result":{"isCorrect":false}}`, i+1))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, env := doJSON(t, app, http.MethodGet, "/api/v1/code-submissions?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []struct {
		ProblemID uint   `json:"problemId"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 2)
	require.Equal(t, uint(3), items[0].ProblemID)
	require.Equal(t, "Wrong Answer", items[0].Status)

	resp, env = doJSON(t, app, http.MethodGet, "/api/v1/code-submissions?problemId=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
}
