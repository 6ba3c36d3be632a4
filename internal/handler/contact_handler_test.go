package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/loopwar-api/internal/dto"
	"github.com/noah-isme/loopwar-api/internal/handler"
	"github.com/noah-isme/loopwar-api/internal/models"
	"github.com/noah-isme/loopwar-api/internal/service"
	"github.com/noah-isme/loopwar-api/internal/utils"
)

type stubContactService struct {
	err  error
	last dto.ContactRequest
}

func (s *stubContactService) Submit(_ context.Context, req dto.ContactRequest) (dto.ContactResponse, error) {
	s.last = req
	if s.err != nil {
		return dto.ContactResponse{}, s.err
	}
	if err := utils.NewValidator().Struct(req); err != nil {
		return dto.ContactResponse{}, err
	}
	return dto.ContactResponse{ReferenceID: "ref-1", Status: models.ContactStatusSent}, nil
}

func newContactApp(stub *stubContactService, userID uint) *fiber.App {
	app := fiber.New()
	h := handler.NewContactHandler(stub, zerolog.Nop(), false)
	group := app.Group("/api/v1/contact")
	if userID > 0 {
		group = app.Group("/api/v1/contact", authenticateAs(userID, models.RoleStudent))
	}
	h.Register(group)
	return app
}

func validContact() dto.ContactRequest {
	return dto.ContactRequest{Name: "Ada", Email: "ada@example.com", Subject: "Hello", Message: "Loving the arrays track."}
}

func TestContactHandlerSubmit(t *testing.T) {
	stub := &stubContactService{}
	app := newContactApp(stub, 9)

	resp, env := doJSON(t, app, http.MethodPost, "/api/v1/contact", validContact())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	var body dto.ContactResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Equal(t, "ref-1", body.ReferenceID)
	require.NotNil(t, stub.last.UserID)
	require.Equal(t, uint(9), *stub.last.UserID)
}

func TestContactHandlerAnonymousSubmitCarriesNoUser(t *testing.T) {
	stub := &stubContactService{}
	app := newContactApp(stub, 0)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/v1/contact", validContact())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Nil(t, stub.last.UserID)
}

func TestContactHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		stub *stubContactService
		body interface{}
		want int
	}{
		{"missing fields", &stubContactService{}, dto.ContactRequest{Name: "Ada"}, http.StatusBadRequest},
		{"malformed body", &stubContactService{}, `{"name":`, http.StatusBadRequest},
		{"spam", &stubContactService{err: service.ErrContactSpam}, validContact(), http.StatusBadRequest},
		{"duplicate", &stubContactService{err: service.ErrContactDuplicate}, validContact(), http.StatusTooManyRequests},
		{"storage failure", &stubContactService{err: errors.New("db down")}, validContact(), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, env := doJSON(t, newContactApp(tc.stub, 0), http.MethodPost, "/api/v1/contact", tc.body)
			require.Equal(t, tc.want, resp.StatusCode)
			require.False(t, env.Success)
		})
	}
}
