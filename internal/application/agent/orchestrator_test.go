package agent

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/TelarIA-api/internal/application/dto"
	"github.com/jhoicas/TelarIA-api/internal/application/ports"
	"github.com/jhoicas/TelarIA-api/pkg/config"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Modelo guionado: cada Stream entrega el siguiente guion; si el guion se
// acaba, repite el último (para los tests de presupuesto de rondas).
// ──────────────────────────────────────────────────────────────────────────────

type scriptedStream struct {
	chunks []ports.Chunk
	i      int
}

func (s *scriptedStream) Recv() (ports.Chunk, error) {
	if s.i >= len(s.chunks) {
		return ports.Chunk{}, io.EOF
	}
	c := s.chunks[s.i]
	s.i++
	return c, nil
}

func (s *scriptedStream) Close() error { return nil }

type scriptedModel struct {
	turns    [][]ports.Chunk
	requests []ports.ChatRequest
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Stream(ctx context.Context, req ports.ChatRequest) (ports.ChatStream, error) {
	m.requests = append(m.requests, req)
	i := len(m.requests) - 1
	if i >= len(m.turns) {
		i = len(m.turns) - 1
	}
	return &scriptedStream{chunks: m.turns[i]}, nil
}

func textChunk(s string) ports.Chunk { return ports.Chunk{Text: s} }

func toolChunk(id, name, args string) ports.Chunk {
	return ports.Chunk{ToolCalls: []ports.ToolCall{{ID: id, Name: name, Arguments: args}}}
}

func usageChunk(in, out int64) ports.Chunk {
	return ports.Chunk{Usage: &ports.Usage{InputTokens: &in, OutputTokens: &out}}
}

// toolCatalog arma un catálogo mínimo con una herramienta que responde según
// el guion: cada llamada consume el siguiente resultado (o error de Go).
type scriptedTool struct {
	results []ToolResult
	errs    []error
	calls   int
}

func (s *scriptedTool) catalog() *Catalog {
	c := NewCatalog()
	c.Register(Tool{
		Name:        "lookup",
		Description: "herramienta guionada",
		InputSchema: objectSchema(map[string]any{}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			i := s.calls
			s.calls++
			var err error
			if i < len(s.errs) {
				err = s.errs[i]
			}
			var res ToolResult
			if i < len(s.results) {
				res = s.results[i]
			}
			return res, err
		},
	})
	return c
}

func newTestOrchestrator(model ports.ChatModel, c *Catalog) *Orchestrator {
	return NewOrchestrator(model, c, logger.Nop(), config.AgentConfig{
		MaxRounds:          7,
		ToolTimeoutSeconds: 5,
		MaxToolFailures:    3,
	})
}

func userTurn(text string) []ports.Message {
	return []ports.Message{{Role: ports.RoleUser, Content: text}}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_RespuestaDirectaSinHerramientas(t *testing.T) {
	model := &scriptedModel{turns: [][]ports.Chunk{
		{textChunk("Hola, "), textChunk("¿en qué te ayudo?"), usageChunk(10, 5)},
	}}
	o := newTestOrchestrator(model, NewCatalog())

	var streamed strings.Builder
	ans, err := o.Run(context.Background(), adminID(), userTurn("hola"), Events{
		OnToken: func(s string) { streamed.WriteString(s) },
	})
	require.NoError(t, err)

	assert.Equal(t, "Hola, ¿en qué te ayudo?", ans.Text)
	assert.Equal(t, ans.Text, streamed.String(), "lo transmitido y el texto final son idénticos")
	assert.Equal(t, 1, ans.Steps)
	assert.Equal(t, "scripted", ans.Provider)
	assert.Empty(t, ans.ToolCalls)
}

func TestRun_HerramientaYRespuesta(t *testing.T) {
	model := &scriptedModel{turns: [][]ports.Chunk{
		{toolChunk("call-1", "lookup", `{}`), usageChunk(100, 20)},
		{textChunk("Las ventas del norte subieron."), usageChunk(150, 30)},
	}}
	tool := &scriptedTool{results: []ToolResult{OK(map[string]any{"net": "1000"})}}
	o := newTestOrchestrator(model, tool.catalog())

	var toolsSeen []string
	ans, err := o.Run(context.Background(), adminID(), userTurn("¿cómo va el norte?"), Events{
		OnToolCall: func(name string) { toolsSeen = append(toolsSeen, name) },
	})
	require.NoError(t, err)

	assert.Equal(t, "Las ventas del norte subieron.", ans.Text)
	assert.Equal(t, 2, ans.Steps)
	assert.Equal(t, []string{"lookup"}, toolsSeen)
	require.Len(t, ans.ToolCalls, 1)
	assert.True(t, ans.ToolCalls[0].Success)

	// La segunda petición lleva el turno assistant con sus invocaciones y el
	// resultado como mensaje rol tool apuntando a la invocación.
	require.Len(t, model.requests, 2)
	msgs := model.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, ports.RoleAssistant, msgs[1].Role)
	require.Len(t, msgs[1].ToolCalls, 1)
	assert.Equal(t, "call-1", msgs[1].ToolCalls[0].ID)
	assert.Equal(t, ports.RoleTool, msgs[2].Role)
	assert.Equal(t, "call-1", msgs[2].ToolCallID)
	assert.Equal(t, "lookup", msgs[2].Name)
	assert.Contains(t, msgs[2].Content, `"success":true`)
}

func TestRun_PresupuestoDeRondasAgotado(t *testing.T) {
	// El modelo siempre pide otra herramienta: nunca cierra.
	model := &scriptedModel{turns: [][]ports.Chunk{
		{textChunk("consultando... "), toolChunk("call-x", "lookup", `{}`)},
	}}
	tool := &scriptedTool{}
	o := newTestOrchestrator(model, tool.catalog())

	var streamed strings.Builder
	ans, err := o.Run(context.Background(), adminID(), userTurn("dame todo"), Events{
		OnToken: func(s string) { streamed.WriteString(s) },
	})
	require.NoError(t, err, "presupuesto agotado es respuesta parcial, no error")

	assert.Equal(t, 7, ans.Steps, "exactamente el máximo de rondas")
	assert.Len(t, model.requests, 7)
	assert.Equal(t, 7, tool.calls)
	assert.Contains(t, ans.Text, "step limit")
	assert.Equal(t, ans.Text, streamed.String(), "la nota final también se transmite")
}

func TestRun_TresFallasSeguidasCortanElTurno(t *testing.T) {
	model := &scriptedModel{turns: [][]ports.Chunk{
		{toolChunk("call-x", "lookup", `{}`)},
	}}
	infra := errors.New("conexión rechazada")
	tool := &scriptedTool{errs: []error{infra, infra, infra, infra}}
	o := newTestOrchestrator(model, tool.catalog())

	ans, err := o.Run(context.Background(), adminID(), userTurn("ventas"), Events{})
	require.NoError(t, err)

	assert.Equal(t, 3, tool.calls, "a la tercera falla seguida se corta")
	assert.Contains(t, ans.Text, "could not reach the data source")
	require.Len(t, ans.ToolCalls, 3)
	for _, tc := range ans.ToolCalls {
		assert.False(t, tc.Success)
	}
}

func TestRun_FallaTipadaNoCuentaComoFallaDeInfra(t *testing.T) {
	// Fallas tipadas (Success=false, err nil) no avanzan el contador: el
	// modelo puede corregir y seguir indefinidamente hasta el presupuesto.
	model := &scriptedModel{turns: [][]ports.Chunk{
		{toolChunk("call-1", "lookup", `{}`)},
		{toolChunk("call-2", "lookup", `{}`)},
		{toolChunk("call-3", "lookup", `{}`)},
		{toolChunk("call-4", "lookup", `{}`)},
		{textChunk("listo")},
	}}
	denied := Fail("invoice 1 not found in your account")
	tool := &scriptedTool{results: []ToolResult{denied, denied, denied, denied}}
	o := newTestOrchestrator(model, tool.catalog())

	ans, err := o.Run(context.Background(), adminID(), userTurn("factura 1"), Events{})
	require.NoError(t, err)

	assert.Equal(t, "listo", ans.Text)
	assert.NotContains(t, ans.Text, "could not reach the data source")
	assert.Equal(t, 4, tool.calls)
}

func TestRun_FallasDeInfraNoConsecutivasNoCortan(t *testing.T) {
	model := &scriptedModel{turns: [][]ports.Chunk{
		{toolChunk("call-1", "lookup", `{}`)},
		{toolChunk("call-2", "lookup", `{}`)},
		{toolChunk("call-3", "lookup", `{}`)},
		{toolChunk("call-4", "lookup", `{}`)},
		{textChunk("recuperado")},
	}}
	infra := errors.New("timeout")
	tool := &scriptedTool{
		results: []ToolResult{{}, OK("dato"), {}, OK("dato")},
		errs:    []error{infra, nil, infra, nil},
	}
	o := newTestOrchestrator(model, tool.catalog())

	ans, err := o.Run(context.Background(), adminID(), userTurn("ventas"), Events{})
	require.NoError(t, err)

	assert.Equal(t, "recuperado", ans.Text, "un éxito reinicia el contador de fallas")
	assert.Equal(t, 4, tool.calls)
}

func TestRun_AcumulaUsoSinInventarCeros(t *testing.T) {
	reasoning := int64(7)
	model := &scriptedModel{turns: [][]ports.Chunk{
		{toolChunk("call-1", "lookup", `{}`), usageChunk(100, 20)},
		{textChunk("fin"), usageChunk(150, 30), {Usage: &ports.Usage{ReasoningTokens: &reasoning}}},
	}}
	tool := &scriptedTool{results: []ToolResult{OK("dato")}}
	o := newTestOrchestrator(model, tool.catalog())

	ans, err := o.Run(context.Background(), adminID(), userTurn("ventas"), Events{})
	require.NoError(t, err)

	require.NotNil(t, ans.Usage.InputTokens)
	assert.EqualValues(t, 250, *ans.Usage.InputTokens)
	require.NotNil(t, ans.Usage.OutputTokens)
	assert.EqualValues(t, 50, *ans.Usage.OutputTokens)
	require.NotNil(t, ans.Usage.ReasoningTokens)
	assert.EqualValues(t, 7, *ans.Usage.ReasoningTokens)
	assert.Nil(t, ans.Usage.TotalTokens, "el proveedor no lo reportó: queda null")
	assert.Nil(t, ans.Usage.CachedInputTokens)
}

func TestRun_RecogeEnlacesDePDF(t *testing.T) {
	link := dto.InvoiceLink{BillingDocument: "91234567", URL: "https://docs.example/invoices/91234567.pdf"}
	model := &scriptedModel{turns: [][]ports.Chunk{
		{toolChunk("call-1", "lookup", `{}`)},
		{textChunk("aquí está tu factura")},
	}}
	tool := &scriptedTool{results: []ToolResult{OK(link)}}
	o := newTestOrchestrator(model, tool.catalog())

	ans, err := o.Run(context.Background(), adminID(), userTurn("pdf de la 91234567"), Events{})
	require.NoError(t, err)

	require.Len(t, ans.Links, 1)
	assert.Equal(t, link, ans.Links[0])

	meta := ans.Meta()
	require.Len(t, meta.Links, 1)
}

func TestRun_ContextoCanceladoDevuelveError(t *testing.T) {
	model := &scriptedModel{turns: [][]ports.Chunk{{textChunk("hola")}}}
	o := newTestOrchestrator(model, NewCatalog())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Run(ctx, adminID(), userTurn("hola"), Events{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_CatalogoCompletoParaCualquierIdentidad(t *testing.T) {
	inv := &fakeInvoiceRepo{}
	c := testCatalog(inv, &fakeStockRepo{})
	model := &scriptedModel{turns: [][]ports.Chunk{{textChunk("hola")}}}
	o := newTestOrchestrator(model, c)

	_, err := o.Run(context.Background(), customerID(testParty), userTurn("hola"), Events{})
	require.NoError(t, err)

	require.Len(t, model.requests, 1)
	assert.Len(t, model.requests[0].Tools, c.Len(), "el catálogo entero viaja en cada petición al modelo")
	assert.Contains(t, model.requests[0].System, "Gupta Textiles")
}

func TestMeta_SlicesNuncaNulos(t *testing.T) {
	ans := &Answer{Provider: "scripted"}
	meta := ans.Meta()
	assert.NotNil(t, meta.ToolCalls)
	assert.NotNil(t, meta.Links)
}

func TestMergeToolCalls(t *testing.T) {
	a := []ports.ToolCall{{ID: "1", Name: "x", Arguments: `{}`}}
	merged := mergeToolCalls(a, []ports.ToolCall{
		{ID: "1", Name: "x", Arguments: `{"limit":5}`}, // mismo ID reemplaza
		{ID: "2", Name: "y"},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, `{"limit":5}`, merged[0].Arguments)
	assert.Equal(t, "2", merged[1].ID)
}
