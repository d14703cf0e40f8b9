package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jhoicas/TelarIA-api/internal/application/ports"
)

// Verificar en tiempo de compilación que AnthropicService implementa ChatModel.
var _ ports.ChatModel = (*AnthropicService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"
)

// AnthropicService adaptador de streaming sobre la API Messages de Anthropic.
// Implementa ports.ChatModel con net/http y SSE, sin SDK oficial.
type AnthropicService struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicService construye el adaptador. model suele ser "claude-3-5-haiku-latest".
func NewAnthropicService(apiKey, model string) *AnthropicService {
	return &AnthropicService{
		apiKey: apiKey,
		model:  model,
		// sin Timeout global: cortaría streams SSE largos; la cancelación llega por contexto
		httpClient: &http.Client{},
	}
}

// Name identifica al proveedor en logs y metadatos de respuesta.
func (s *AnthropicService) Name() string { return "anthropic" }

// ── Estructuras del protocolo Messages ────────────────────────────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
	Stream    bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

// anthropicBlock cubre los tres tipos de bloque que usamos: text, tool_use
// en turnos del asistente y tool_result en turnos user sintéticos.
type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// anthropicEvent es la unión de todos los eventos SSE que nos interesan.
// Los campos que un tipo de evento no trae quedan en cero.
type anthropicEvent struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Message *struct {
		Usage *anthropicUsage `json:"usage"`
	} `json:"message"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
	Usage *anthropicUsage `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// anthropicUsage usa punteros: un campo ausente queda nil y nunca se
// convierte en un cero inventado.
type anthropicUsage struct {
	InputTokens          *int64 `json:"input_tokens"`
	OutputTokens         *int64 `json:"output_tokens"`
	CacheReadInputTokens *int64 `json:"cache_read_input_tokens"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// Stream abre una conversación en streaming contra la API Messages.
// El ChatStream devuelto emite texto token a token, tool calls completas
// (cada una exactamente una vez) y uso de tokens cuando la API lo reporta.
func (s *AnthropicService) Stream(ctx context.Context, req ports.ChatRequest) (ports.ChatStream, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	msgs, err := buildAnthropicMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  msgs,
		Stream:    true,
	}
	for _, t := range req.Tools {
		payload.Tools = append(payload.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	httpReq.Header.Set("x-api-key", s.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		rawBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		var errResp anthropicErrorResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("AI: Anthropic %d (%s): %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("AI: Anthropic HTTP %d", resp.StatusCode)
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &anthropicStream{
		body:    resp.Body,
		scanner: sc,
		blocks:  make(map[int]*anthropicToolBlock),
	}, nil
}

// buildAnthropicMessages traduce el historial neutro al formato de bloques de
// la API. Los resultados de herramientas consecutivos se agrupan en un único
// mensaje user porque la API exige alternancia estricta de roles.
func buildAnthropicMessages(msgs []ports.Message) ([]anthropicMessage, error) {
	out := make([]anthropicMessage, 0, len(msgs))
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		switch m.Role {
		case ports.RoleUser:
			out = append(out, anthropicMessage{
				Role:    "user",
				Content: []anthropicBlock{{Type: "text", Text: m.Content}},
			})
		case ports.RoleAssistant:
			blocks := make([]anthropicBlock, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				blocks = append(blocks, anthropicBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, anthropicBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			if len(blocks) == 0 {
				continue // un turno de asistente vacío no es representable
			}
			out = append(out, anthropicMessage{Role: "assistant", Content: blocks})
		case ports.RoleTool:
			blocks := []anthropicBlock{}
			for ; i < len(msgs) && msgs[i].Role == ports.RoleTool; i++ {
				blocks = append(blocks, anthropicBlock{
					Type:      "tool_result",
					ToolUseID: msgs[i].ToolCallID,
					Content:   msgs[i].Content,
				})
			}
			i-- // el bucle externo vuelve a incrementar
			out = append(out, anthropicMessage{Role: "user", Content: blocks})
		default:
			return nil, fmt.Errorf("AI: rol de mensaje desconocido: %q", m.Role)
		}
	}
	return out, nil
}

// ── Stream SSE ────────────────────────────────────────────────────────────────

// anthropicToolBlock acumula una tool call mientras llegan sus deltas JSON.
type anthropicToolBlock struct {
	id    string
	name  string
	input strings.Builder
}

type anthropicStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	blocks  map[int]*anthropicToolBlock
	done    bool
}

// Recv avanza el stream hasta el siguiente chunk con contenido.
// Devuelve io.EOF en message_stop o al agotarse el cuerpo.
func (st *anthropicStream) Recv() (ports.Chunk, error) {
	if st.done {
		return ports.Chunk{}, io.EOF
	}
	for st.scanner.Scan() {
		line := strings.TrimSpace(st.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue // líneas "event:", comentarios y separadores
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}

		var ev anthropicEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return ports.Chunk{}, fmt.Errorf("AI: evento SSE malformado: %w", err)
		}

		switch ev.Type {
		case "message_start":
			// Solo tokens de entrada: output_tokens llega acumulado en
			// message_delta y sumarlo dos veces lo inflaría.
			if ev.Message != nil && ev.Message.Usage != nil {
				u := ev.Message.Usage
				if u.InputTokens != nil || u.CacheReadInputTokens != nil {
					return ports.Chunk{Usage: &ports.Usage{
						InputTokens:       u.InputTokens,
						CachedInputTokens: u.CacheReadInputTokens,
					}}, nil
				}
			}
		case "content_block_start":
			if ev.ContentBlock != nil && ev.ContentBlock.Type == "tool_use" {
				st.blocks[ev.Index] = &anthropicToolBlock{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
			}
		case "content_block_delta":
			if ev.Delta == nil {
				continue
			}
			switch ev.Delta.Type {
			case "text_delta":
				if ev.Delta.Text != "" {
					return ports.Chunk{Text: ev.Delta.Text}, nil
				}
			case "input_json_delta":
				if b, ok := st.blocks[ev.Index]; ok {
					b.input.WriteString(ev.Delta.PartialJSON)
				}
			}
		case "content_block_stop":
			if b, ok := st.blocks[ev.Index]; ok {
				delete(st.blocks, ev.Index)
				args := b.input.String()
				if args == "" {
					args = "{}"
				}
				return ports.Chunk{ToolCalls: []ports.ToolCall{{ID: b.id, Name: b.name, Arguments: args}}}, nil
			}
		case "message_delta":
			if ev.Usage != nil && ev.Usage.OutputTokens != nil {
				return ports.Chunk{Usage: &ports.Usage{OutputTokens: ev.Usage.OutputTokens}}, nil
			}
		case "message_stop":
			st.done = true
			return ports.Chunk{}, io.EOF
		case "error":
			st.done = true
			if ev.Error != nil {
				return ports.Chunk{}, fmt.Errorf("AI: Anthropic stream: %s: %s", ev.Error.Type, ev.Error.Message)
			}
			return ports.Chunk{}, fmt.Errorf("AI: Anthropic stream interrumpido")
		}
		// ping y eventos desconocidos se ignoran
	}
	if err := st.scanner.Err(); err != nil {
		return ports.Chunk{}, fmt.Errorf("AI: leer stream: %w", err)
	}
	st.done = true
	return ports.Chunk{}, io.EOF
}

func (st *anthropicStream) Close() error {
	st.done = true
	return st.body.Close()
}
