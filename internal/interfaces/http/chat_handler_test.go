package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/TelarIA-api/internal/application/agent"
	"github.com/jhoicas/TelarIA-api/internal/application/dto"
	"github.com/jhoicas/TelarIA-api/internal/application/ports"
	apphttp "github.com/jhoicas/TelarIA-api/internal/interfaces/http"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// fakeRunner guion de un turno del asistente: emite tokens y herramientas por
// los callbacks y devuelve la respuesta armada.
type fakeRunner struct {
	gotIdentity agent.Identity
	gotHistory  []ports.Message
	answer      *agent.Answer
	err         error
}

func (f *fakeRunner) Run(ctx context.Context, id agent.Identity, history []ports.Message, ev agent.Events) (*agent.Answer, error) {
	f.gotIdentity = id
	f.gotHistory = history
	if f.err != nil {
		return nil, f.err
	}
	if ev.OnToken != nil {
		ev.OnToken("Las ventas ")
		ev.OnToken("subieron 12%.")
	}
	if ev.OnToolCall != nil {
		ev.OnToolCall("get_sales_totals")
	}
	return f.answer, nil
}

func buildChatApp(runner apphttp.ChatRunner) *fiber.App {
	app := fiber.New()
	handler := apphttp.NewChatHandler(runner, logger.Nop())
	app.Post("/api/chat", apphttp.AuthMiddleware(testJWTSecret), handler.Chat)
	return app
}

func postChat(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenFor(t, testPartyCode, "customer"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestChat_ValidacionDeEntrada(t *testing.T) {
	app := buildChatApp(&fakeRunner{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"sin mensajes", `{"messages":[]}`, "vacío"},
		{"rol inválido", `{"messages":[{"role":"system","content":"hola"}]}`, "user o assistant"},
		{"contenido vacío", `{"messages":[{"role":"user","content":"  "}]}`, "content"},
		{"último no es user", `{"messages":[{"role":"user","content":"hola"},{"role":"assistant","content":"hola, dime"}]}`, "último"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postChat(t, app, tc.body)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Contains(t, string(body), "VALIDATION")
		})
	}
}

func TestChat_CuerpoIlegible(t *testing.T) {
	app := buildChatApp(&fakeRunner{})
	resp := postChat(t, app, `{"messages": [`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_BODY")
}

func TestChat_SinToken_Retorna401(t *testing.T) {
	app := buildChatApp(&fakeRunner{})
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"hola"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChat_TurnoCompletoPorSSE(t *testing.T) {
	runner := &fakeRunner{answer: &agent.Answer{
		Text:     "Las ventas subieron 12%.",
		Provider: "anthropic",
		Steps:    2,
		ToolCalls: []dto.ToolCallSummary{
			{Name: "get_sales_totals", DurationMs: 42, Success: true},
		},
	}}
	app := buildChatApp(runner)

	resp := postChat(t, app, `{"messages":[{"role":"user","content":"¿cómo van las ventas?"}]}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, `"type":"token"`)
	assert.Contains(t, body, "Las ventas ")
	assert.Contains(t, body, `"type":"tool"`)
	assert.Contains(t, body, `"name":"get_sales_totals"`)
	assert.Contains(t, body, `"type":"meta"`)
	assert.Contains(t, body, `"provider":"anthropic"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "data: [DONE]"),
		"el stream siempre termina con [DONE]")

	// La identidad del JWT llega al orquestador tal cual.
	assert.Equal(t, testPartyCode, runner.gotIdentity.BillToPartyCode)
	assert.Equal(t, "customer", runner.gotIdentity.Role)

	// El historial conserva el orden y los roles.
	require.Len(t, runner.gotHistory, 1)
	assert.Equal(t, ports.RoleUser, runner.gotHistory[0].Role)
}

func TestChat_ErrorDelProveedorEmiteEventoError(t *testing.T) {
	runner := &fakeRunner{err: context.DeadlineExceeded}
	app := buildChatApp(runner)

	resp := postChat(t, app, `{"messages":[{"role":"user","content":"hola"}]}`)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	assert.Contains(t, body, `"type":"error"`)
	assert.Contains(t, body, "data: [DONE]", "también el error cierra el stream con [DONE]")
	assert.NotContains(t, body, `"type":"meta"`)
}
