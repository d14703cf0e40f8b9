package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jhoicas/TelarIA-api/internal/application/dto"
	"github.com/jhoicas/TelarIA-api/internal/application/ports"
	"github.com/jhoicas/TelarIA-api/pkg/config"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// Presupuestos del turno cuando la config no dice otra cosa.
const (
	defaultMaxRounds   = 7
	defaultToolTimeout = 15 * time.Second
	defaultMaxFailures = 3
	defaultMaxTokens   = 2048
)

// Notas finales cuando el turno no puede continuar. Se anexan a la respuesta
// parcial; nunca son errores.
const (
	budgetNote  = "I reached the step limit for this request, so the answer above may be incomplete. Ask again to continue."
	failureNote = "I could not reach the data source after several attempts. Please try again in a moment."
)

// Events son los callbacks de streaming hacia la capa HTTP. Se invocan en la
// goroutine del turno; cualquier callback puede ser nil.
type Events struct {
	OnToken    func(text string)
	OnToolCall func(name string)
}

// Orchestrator corre el lazo de conversación: modelo → herramientas → modelo,
// acotado en rondas, con timeout por herramienta y corte por fallas seguidas.
// Una instancia es segura para uso concurrente; todo el estado del turno es
// local a Run.
type Orchestrator struct {
	model       ports.ChatModel
	catalog     *Catalog
	log         *logger.Logger
	maxRounds   int
	toolTimeout time.Duration
	maxFailures int
	maxTokens   int
	now         func() time.Time
}

// NewOrchestrator arma el orquestador con los presupuestos de la config.
func NewOrchestrator(model ports.ChatModel, catalog *Catalog, log *logger.Logger, cfg config.AgentConfig) *Orchestrator {
	o := &Orchestrator{
		model:       model,
		catalog:     catalog,
		log:         log,
		maxRounds:   cfg.MaxRounds,
		toolTimeout: time.Duration(cfg.ToolTimeoutSeconds) * time.Second,
		maxFailures: cfg.MaxToolFailures,
		maxTokens:   defaultMaxTokens,
		now:         time.Now,
	}
	if o.maxRounds <= 0 {
		o.maxRounds = defaultMaxRounds
	}
	if o.toolTimeout <= 0 {
		o.toolTimeout = defaultToolTimeout
	}
	if o.maxFailures <= 0 {
		o.maxFailures = defaultMaxFailures
	}
	return o
}

// Run ejecuta un turno completo: historial + pregunta ya vienen en history.
// El texto se entrega incremental por ev.OnToken y completo en Answer.Text.
// Run devuelve error solo ante fallas de proveedor o cancelación; presupuesto
// agotado y fuente de datos caída son respuestas parciales con nota.
func (o *Orchestrator) Run(ctx context.Context, id Identity, history []ports.Message, ev Events) (*Answer, error) {
	msgs := make([]ports.Message, len(history))
	copy(msgs, history)

	ans := &Answer{Provider: o.model.Name()}
	system := systemPrompt(id, o.now().UTC())
	tools := o.catalog.Definitions()
	failures := 0

	for round := 0; round < o.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		stream, err := o.model.Stream(ctx, ports.ChatRequest{
			System:    system,
			Messages:  msgs,
			Tools:     tools,
			MaxTokens: o.maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("agent: abrir stream: %w", err)
		}

		text, calls, err := o.drain(stream, ans, ev)
		if err != nil {
			return nil, err
		}
		ans.Steps++
		ans.Text += text

		if len(calls) == 0 {
			o.logTurn(id, ans)
			return ans, nil
		}

		msgs = append(msgs, ports.Message{Role: ports.RoleAssistant, Content: text, ToolCalls: calls})

		for _, call := range calls {
			result, failed := o.execute(ctx, id, call, ev, ans)
			if failed {
				failures++
			} else if result.Success {
				failures = 0
			}
			payload, merr := json.Marshal(result)
			if merr != nil {
				payload = []byte(`{"success":false,"error":"internal result encoding error"}`)
			}
			msgs = append(msgs, ports.Message{
				Role:       ports.RoleTool,
				Content:    string(payload),
				Name:       call.Name,
				ToolCallID: call.ID,
			})
			if failures >= o.maxFailures {
				break
			}
		}
		if failures >= o.maxFailures {
			appendNote(ans, ev, failureNote)
			o.logTurn(id, ans)
			return ans, nil
		}
	}

	// Presupuesto de rondas agotado con herramientas aún pendientes.
	appendNote(ans, ev, budgetNote)
	o.logTurn(id, ans)
	return ans, nil
}

// drain consume el stream completo: texto a los callbacks, invocaciones
// acumuladas, uso de tokens al acumulado del turno.
func (o *Orchestrator) drain(stream ports.ChatStream, ans *Answer, ev Events) (string, []ports.ToolCall, error) {
	defer stream.Close()

	var text strings.Builder
	var calls []ports.ToolCall
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("agent: leer stream: %w", err)
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
			if ev.OnToken != nil {
				ev.OnToken(chunk.Text)
			}
		}
		calls = mergeToolCalls(calls, chunk.ToolCalls)
		if chunk.Usage != nil {
			accumulateUsage(&ans.Usage, chunk.Usage)
		}
	}
	return text.String(), calls, nil
}

// execute corre una herramienta con su propio timeout. failed=true solo ante
// error de infraestructura; el modelo recibe entonces un mensaje genérico y
// el contador de fallas seguidas avanza.
func (o *Orchestrator) execute(ctx context.Context, id Identity, call ports.ToolCall, ev Events, ans *Answer) (ToolResult, bool) {
	if ev.OnToolCall != nil {
		ev.OnToolCall(call.Name)
	}

	started := o.now()
	tctx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	result, err := o.catalog.Dispatch(tctx, id, call)
	cancel()

	ans.ToolCalls = append(ans.ToolCalls, dto.ToolCallSummary{
		Name:       call.Name,
		DurationMs: o.now().Sub(started).Milliseconds(),
		Success:    err == nil && result.Success,
	})

	if err != nil {
		o.log.Error().Err(err).Str("tool", call.Name).Msg("herramienta falló contra la fuente de datos")
		return Fail("data source unavailable, try again"), true
	}
	if result.Success {
		if link, ok := result.Data.(dto.InvoiceLink); ok {
			ans.Links = append(ans.Links, link)
		}
	} else {
		o.log.Debug().Str("tool", call.Name).Str("reason", result.Error).Msg("herramienta devolvió fallo tipado")
	}
	return result, false
}

func (o *Orchestrator) logTurn(id Identity, ans *Answer) {
	o.log.Info().
		Str("user", id.UserID).
		Str("provider", ans.Provider).
		Int("steps", ans.Steps).
		Int("tools", len(ans.ToolCalls)).
		Msg("turno del agente completado")
}

// appendNote anexa una nota final y la emite también por el callback, para
// que el texto transmitido y Answer.Text queden idénticos.
func appendNote(ans *Answer, ev Events, note string) {
	text := note
	if ans.Text != "" {
		text = "\n\n" + note
	}
	ans.Text += text
	if ev.OnToken != nil {
		ev.OnToken(text)
	}
}

// mergeToolCalls integra las invocaciones de un chunk. Mismo ID reemplaza la
// invocación completa: los adaptadores emiten cada invocación ya armada,
// nunca por pedazos.
func mergeToolCalls(existing, incoming []ports.ToolCall) []ports.ToolCall {
	for _, in := range incoming {
		replaced := false
		for i := range existing {
			if existing[i].ID == in.ID {
				existing[i] = in
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, in)
		}
	}
	return existing
}

// accumulateUsage suma lo reportado al acumulado del turno, campo a campo.
// nil + valor = valor; nunca se materializa un cero que el proveedor no dio.
func accumulateUsage(dst *dto.ChatUsage, u *ports.Usage) {
	dst.TotalTokens = addTokens(dst.TotalTokens, u.TotalTokens)
	dst.InputTokens = addTokens(dst.InputTokens, u.InputTokens)
	dst.OutputTokens = addTokens(dst.OutputTokens, u.OutputTokens)
	dst.ReasoningTokens = addTokens(dst.ReasoningTokens, u.ReasoningTokens)
	dst.CachedInputTokens = addTokens(dst.CachedInputTokens, u.CachedInputTokens)
}

func addTokens(acc, add *int64) *int64 {
	if add == nil {
		return acc
	}
	v := *add
	if acc != nil {
		v += *acc
	}
	return &v
}
