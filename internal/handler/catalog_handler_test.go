package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/handler"
	"github.com/noah-isme/loopwar-api/internal/middleware"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/repository"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

func setupCatalogApp(t *testing.T, role string) *fiber.App {
	t.Helper()
	db := openHandlerDB(t, &models.Category{}, &models.Topic{}, &models.Subtopic{}, &models.Problem{})
	svc := service.NewCatalogService(repository.NewCatalogRepository(db), nil, time.Minute, utils.NewValidator(), zerolog.Nop())
	h := handler.NewCatalogHandler(svc, zerolog.Nop(), false)

	app := fiber.New()
	api := app.Group("/api/v1", authenticateAs(1, role))
	h.Register(api)
	h.RegisterAdmin(api.Group("/admin", middleware.RequireRole(models.RoleAdmin)))
	return app
}

func createCatalogEntry(t *testing.T, app *fiber.App, path string, body interface{}) uint {
	t.Helper()
	resp, env := doJSON(t, app, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.NotZero(t, created.ID)
	return created.ID
}

func TestCatalogHandlerAdminFlow(t *testing.T) {
	app := setupCatalogApp(t, models.RoleAdmin)

	categoryID := createCatalogEntry(t, app, "/api/v1/admin/categories", dto.CategoryCreateRequest{Name: "Algorithms", SortOrder: 1})
	topicID := createCatalogEntry(t, app, "/api/v1/admin/topics", dto.TopicCreateRequest{CategoryID: categoryID, Name: "Sorting", SortOrder: 1})
	subtopicID := createCatalogEntry(t, app, "/api/v1/admin/subtopics", dto.SubtopicCreateRequest{TopicID: topicID, Name: "Merge Sort", SortOrder: 1})
	problemID := createCatalogEntry(t, app, "/api/v1/admin/problems", dto.ProblemUpsertRequest{
		SubtopicID:  subtopicID,
		Title:       "Merge Two Halves",
		Description: "<b>merge</b><script>x</script>",
		Difficulty:  models.DifficultyMedium,
		SortOrder:   2,
		TestCases:   []dto.ProblemTestCaseInput{{Input: "1 3\n2 4", Expected: "1 2 3 4"}},
	})

	resp, env := doJSON(t, app, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tree []dto.CategoryNode
	require.NoError(t, json.Unmarshal(env.Data, &tree))
	require.Len(t, tree, 1)
	require.Equal(t, "merge-sort", tree[0].Topics[0].Subtopics[0].Slug)

	resp, env = doJSON(t, app, http.MethodGet, "/api/v1/problems/by-location?category=algorithms&topic=sorting&subtopic=merge-sort&sortOrder=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail dto.ProblemDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Equal(t, problemID, detail.ID)
	require.Equal(t, "<b>merge</b>", detail.Description)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/problems/by-location?category=algorithms&topic=sorting&subtopic=merge-sort&sortOrder=9", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/api/v1/problems?difficulty=medium&pageSize=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var meta dto.CatalogPagination
	require.NoError(t, json.Unmarshal(env.Meta, &meta))
	require.Equal(t, int64(1), meta.TotalItems)
	require.Equal(t, 5, meta.PageSize)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/problems?difficulty=impossible", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/admin/problems/%d", problemID), dto.ProblemUpsertRequest{
		SubtopicID:  subtopicID,
		Title:       "Merge Halves",
		Description: "merge",
		Difficulty:  models.DifficultyHard,
		SortOrder:   2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	require.Equal(t, "Merge Halves", detail.Title)

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/admin/problems/%d", problemID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/problems/%d", problemID), nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCatalogHandlerAdminErrors(t *testing.T) {
	app := setupCatalogApp(t, models.RoleAdmin)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/admin/topics", dto.TopicCreateRequest{CategoryID: 77, Name: "Orphan"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	createCatalogEntry(t, app, "/api/v1/admin/categories", dto.CategoryCreateRequest{Name: "Graphs"})
	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/admin/categories", dto.CategoryCreateRequest{Name: "Graphs"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/admin/categories", dto.CategoryCreateRequest{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, string(env.Details), "Name")

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/problems/0", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogHandlerRejectsNonAdminMutations(t *testing.T) {
	app := setupCatalogApp(t, models.RoleStudent)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/admin/categories", dto.CategoryCreateRequest{Name: "Graphs"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
