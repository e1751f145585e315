package rest

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvergaraf/wacrm/pkg/liveness"
	"github.com/dvergaraf/wacrm/pkg/utils"
)

func newChatTestApp() (*fiber.App, *liveness.Registry) {
	app := fiber.New()
	registry := liveness.New()
	InitRestChat(app.Group("/api"), registry, nil)
	return app, registry
}

func doRequest(t *testing.T, app *fiber.App, method, path string) (int, utils.ResponseData) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var data utils.ResponseData
	require.NoError(t, json.Unmarshal(body, &data))
	return resp.StatusCode, data
}

func TestChatActivateDeactivate(t *testing.T) {
	app, registry := newChatTestApp()

	code, _ := doRequest(t, app, "POST", "/api/chats/5215550001@s.whatsapp.net/activate")
	assert.Equal(t, 200, code)
	assert.True(t, registry.IsActive("5215550001@s.whatsapp.net"))

	code, _ = doRequest(t, app, "POST", "/api/chats/5215550001@s.whatsapp.net/deactivate")
	assert.Equal(t, 200, code)
	assert.False(t, registry.IsActive("5215550001@s.whatsapp.net"))
}

func TestChatStatusUnknownChat(t *testing.T) {
	app, _ := newChatTestApp()

	code, data := doRequest(t, app, "GET", "/api/chats/5215559999@s.whatsapp.net")
	assert.Equal(t, 200, code)

	raw, err := json.Marshal(data.Results)
	require.NoError(t, err)
	var state liveness.ChatState
	require.NoError(t, json.Unmarshal(raw, &state))
	// Un chat nunca visto es inactivo.
	assert.False(t, state.Active)
}

func TestChatListSnapshot(t *testing.T) {
	app, registry := newChatTestApp()
	registry.Activate("a@s.whatsapp.net")
	registry.Activate("b@s.whatsapp.net")
	registry.Deactivate("b@s.whatsapp.net")

	code, data := doRequest(t, app, "GET", "/api/chats/")
	assert.Equal(t, 200, code)

	raw, err := json.Marshal(data.Results)
	require.NoError(t, err)
	var states []liveness.ChatState
	require.NoError(t, json.Unmarshal(raw, &states))
	require.Len(t, states, 2)
	// Los activos van primero.
	assert.Equal(t, "a@s.whatsapp.net", states[0].ChatID)
	assert.True(t, states[0].Active)
}
