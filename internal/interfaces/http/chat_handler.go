package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/TelarIA-api/internal/application/agent"
	"github.com/jhoicas/TelarIA-api/internal/application/dto"
	"github.com/jhoicas/TelarIA-api/internal/application/ports"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// chatTurnTimeout acota el turno completo: siete rondas de modelo más
// herramientas caben holgadas; pasado esto el stream se corta con error.
const chatTurnTimeout = 3 * time.Minute

// ChatRunner es lo que el handler necesita del orquestador del asistente.
type ChatRunner interface {
	Run(ctx context.Context, id agent.Identity, history []ports.Message, ev agent.Events) (*agent.Answer, error)
}

// ChatHandler expone el asistente conversacional por SSE.
type ChatHandler struct {
	runner ChatRunner
	log    *logger.Logger
}

// NewChatHandler construye el handler de chat.
func NewChatHandler(runner ChatRunner, log *logger.Logger) *ChatHandler {
	return &ChatHandler{runner: runner, log: log}
}

// Chat godoc
// @Summary      Conversar con el asistente de ventas y bodega
// @Description  Recibe la conversación completa y responde por SSE: eventos token, tool, meta y error, terminados con [DONE].
// @Tags         chat
// @Accept       json
// @Produce      text/event-stream
// @Param        body  body  dto.ChatRequest  true  "messages: lista ordenada de turnos user/assistant"
// @Success      200  {string}  string  "stream SSE"
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var in dto.ChatRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if msg := validateChatRequest(in); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: msg})
	}

	// Capturar identidad y mensajes antes de retornar: c se recicla cuando el
	// handler termina y el stream writer corre después.
	id := IdentityFromCtx(c)
	history := toPortMessages(in.Messages)
	runner := h.runner
	log := h.log

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithTimeout(context.Background(), chatTurnTimeout)
		defer cancel()

		write := func(ev dto.StreamEvent) bool {
			payload, err := json.Marshal(ev)
			if err != nil {
				return false
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return false
			}
			return w.Flush() == nil
		}

		events := agent.Events{
			OnToken: func(text string) {
				if !write(dto.StreamEvent{Type: "token", Content: text}) {
					cancel() // cliente desconectado: cortar modelo y herramientas
				}
			},
			OnToolCall: func(name string) {
				if !write(dto.StreamEvent{Type: "tool", Name: name}) {
					cancel()
				}
			},
		}

		ans, err := runner.Run(ctx, id, history, events)
		if err != nil {
			log.Error().Err(err).Str("user_id", id.UserID).Msg("turno de chat fallido")
			write(dto.StreamEvent{Type: "error", Content: "The assistant is unavailable right now. Please try again."})
			_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
			_ = w.Flush()
			return
		}

		meta := ans.Meta()
		write(dto.StreamEvent{Type: "meta", Meta: &meta})
		_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
		_ = w.Flush()
	})
	return nil
}

// validateChatRequest devuelve el mensaje de error, o "" si la entrada es válida.
func validateChatRequest(in dto.ChatRequest) string {
	if len(in.Messages) == 0 {
		return "messages no puede estar vacío"
	}
	if len(in.Messages) > 40 {
		return "messages supera los 40 turnos"
	}
	for _, t := range in.Messages {
		if t.Role != "user" && t.Role != "assistant" {
			return "role debe ser user o assistant"
		}
		if strings.TrimSpace(t.Content) == "" {
			return "content no puede estar vacío"
		}
		if len(t.Content) > 4000 {
			return "content supera los 4000 caracteres"
		}
	}
	if in.Messages[len(in.Messages)-1].Role != "user" {
		return "el último mensaje debe ser del usuario"
	}
	return ""
}

func toPortMessages(turns []dto.ChatTurn) []ports.Message {
	msgs := make([]ports.Message, 0, len(turns))
	for _, t := range turns {
		role := ports.RoleUser
		if t.Role == "assistant" {
			role = ports.RoleAssistant
		}
		msgs = append(msgs, ports.Message{Role: role, Content: t.Content})
	}
	return msgs
}
