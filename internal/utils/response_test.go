package utils_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orbit-admin-api/internal/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func serve(t *testing.T, h fiber.Handler) (int, envelope, map[string]json.RawMessage) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body envelope
	require.NoError(t, json.Unmarshal(raw, &body))
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &keys))
	return resp.StatusCode, body, keys
}

func TestListEnvelopeCarriesPagination(t *testing.T) {
	status, body, _ := serve(t, func(c *fiber.Ctx) error {
		jobs := []map[string]string{{"_id": "job-1"}, {"_id": "job-2"}}
		return utils.OK(c, jobs, "", fiber.Map{"cache_hit": true, "count": 2})
	})

	require.Equal(t, fiber.StatusOK, status)
	require.True(t, body.Success)
	require.Equal(t, "success", body.Message)
	require.JSONEq(t, `[{"_id":"job-1"},{"_id":"job-2"}]`, string(body.Data))
	require.JSONEq(t, `{"cache_hit":true,"count":2}`, string(body.Meta))
}

func TestCreatedStatusIsKept(t *testing.T) {
	status, body, keys := serve(t, func(c *fiber.Ctx) error {
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Assignment created successfully!", fiber.Map{"created": true})
	})

	require.Equal(t, fiber.StatusCreated, status)
	require.Equal(t, "Assignment created successfully!", body.Message)
	require.JSONEq(t, `{"created":true}`, string(body.Data))
	require.NotContains(t, keys, "meta")
}

func TestFailListsProblems(t *testing.T) {
	status, body, keys := serve(t, func(c *fiber.Ctx) error {
		problems := []map[string]string{{"path": "/sections/0/questions/0/correctAnswer", "message": "does not match any option key"}}
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "assignment has 1 problem", problems)
	})

	require.Equal(t, fiber.StatusUnprocessableEntity, status)
	require.False(t, body.Success)
	require.Equal(t, "assignment has 1 problem", body.Message)
	require.Contains(t, string(body.Details), "/sections/0/questions/0/correctAnswer")
	require.NotContains(t, keys, "data")
}

func TestSendErrorDefaultsMessage(t *testing.T) {
	status, body, keys := serve(t, func(c *fiber.Ctx) error {
		return utils.SendError(c, fiber.StatusBadGateway, "")
	})

	require.Equal(t, fiber.StatusBadGateway, status)
	require.False(t, body.Success)
	require.Equal(t, "error", body.Message)
	require.NotContains(t, keys, "data")
	require.NotContains(t, keys, "details")
}
