package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/TelarIA-api/internal/application/ports"
)

// Verificar en tiempo de compilación que GeminiService implementa ChatModel.
var _ ports.ChatModel = (*GeminiService)(nil)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s"

// GeminiService adaptador sobre la API REST generateContent de Google Gemini.
// generateContent no hace streaming: la respuesta completa se entrega como un
// único chunk y el orquestador trata a ambos proveedores por igual.
type GeminiService struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiService construye el adaptador. model suele ser "gemini-2.0-flash".
func NewGeminiService(apiKey, model string) *GeminiService {
	return &GeminiService{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // timeout de red; el caller también pone WithTimeout
		},
	}
}

// Name identifica al proveedor en logs y metadatos de respuesta.
func (s *GeminiService) Name() string { return "gemini" }

// ── Estructuras del protocolo generateContent ─────────────────────────────────

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiToolSet `json:"tools,omitempty"`
	GenerationConfig  genConfig       `json:"generationConfig"`
}

type geminiToolSet struct {
	FunctionDeclarations []geminiFunction `json:"functionDeclarations"`
}

type geminiFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string          `json:"text,omitempty"`
	FunctionCall     *geminiFuncCall `json:"functionCall,omitempty"`
	FunctionResponse *geminiFuncResp `json:"functionResponse,omitempty"`
}

type geminiFuncCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type geminiFuncResp struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type genConfig struct {
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *geminiUsage `json:"usageMetadata"`
	Error         *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// geminiUsage usa punteros: un campo ausente queda nil y nunca se convierte
// en un cero inventado.
type geminiUsage struct {
	PromptTokenCount        *int64 `json:"promptTokenCount"`
	CandidatesTokenCount    *int64 `json:"candidatesTokenCount"`
	TotalTokenCount         *int64 `json:"totalTokenCount"`
	ThoughtsTokenCount      *int64 `json:"thoughtsTokenCount"`
	CachedContentTokenCount *int64 `json:"cachedContentTokenCount"`
}

// ── Implementación del puerto ─────────────────────────────────────────────────

// Stream envía la conversación completa a generateContent y devuelve un
// pseudo-stream de un solo chunk con el texto, las tool calls y el uso.
func (s *GeminiService) Stream(ctx context.Context, req ports.ChatRequest) (ports.ChatStream, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: GEMINI_API_KEY no configurado")
	}

	contents, err := buildGeminiContents(req.Messages)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	payload := geminiRequest{
		Contents: contents,
		GenerationConfig: genConfig{
			Temperature:     0.2,
			MaxOutputTokens: maxTokens,
		},
	}
	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		fns := make([]geminiFunction, 0, len(req.Tools))
		for _, t := range req.Tools {
			fns = append(fns, geminiFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  sanitizeGeminiSchema(t.InputSchema),
			})
		}
		payload.Tools = []geminiToolSet{{FunctionDeclarations: fns}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	url := fmt.Sprintf(geminiBaseURL, s.model, s.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("AI: leer respuesta: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp geminiResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("AI: Gemini error %d: %s", errResp.Error.Code, errResp.Error.Message)
		}
		return nil, fmt.Errorf("AI: Gemini HTTP %d", resp.StatusCode)
	}

	var gemResp geminiResponse
	if err := json.Unmarshal(rawBody, &gemResp); err != nil {
		return nil, fmt.Errorf("AI: deserializar respuesta Gemini: %w", err)
	}
	if len(gemResp.Candidates) == 0 {
		return nil, fmt.Errorf("AI: Gemini devolvió respuesta vacía")
	}

	var chunk ports.Chunk
	var text strings.Builder
	for _, p := range gemResp.Candidates[0].Content.Parts {
		if p.Text != "" {
			text.WriteString(p.Text)
		}
		if p.FunctionCall != nil {
			args := string(p.FunctionCall.Args)
			if args == "" {
				args = "{}"
			}
			chunk.ToolCalls = append(chunk.ToolCalls, ports.ToolCall{
				// la API no emite id; el nombre correlaciona la respuesta
				ID:        p.FunctionCall.Name,
				Name:      p.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	chunk.Text = text.String()
	chunk.Usage = usageFromGemini(gemResp.UsageMetadata)

	return &geminiStream{chunk: chunk}, nil
}

// buildGeminiContents traduce el historial neutro al formato contents de la
// API. Los resultados de herramientas consecutivos se agrupan en un único
// turno user con varias functionResponse.
func buildGeminiContents(msgs []ports.Message) ([]geminiContent, error) {
	out := make([]geminiContent, 0, len(msgs))
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		switch m.Role {
		case ports.RoleUser:
			out = append(out, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		case ports.RoleAssistant:
			parts := make([]geminiPart, 0, 1+len(m.ToolCalls))
			if m.Content != "" {
				parts = append(parts, geminiPart{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				args := json.RawMessage(tc.Arguments)
				if !json.Valid(args) {
					args = json.RawMessage("{}")
				}
				parts = append(parts, geminiPart{FunctionCall: &geminiFuncCall{Name: tc.Name, Args: args}})
			}
			if len(parts) == 0 {
				continue // un turno de asistente vacío no es representable
			}
			out = append(out, geminiContent{Role: "model", Parts: parts})
		case ports.RoleTool:
			parts := []geminiPart{}
			for ; i < len(msgs) && msgs[i].Role == ports.RoleTool; i++ {
				name := msgs[i].Name
				if name == "" {
					name = msgs[i].ToolCallID
				}
				parts = append(parts, geminiPart{FunctionResponse: &geminiFuncResp{
					Name:     name,
					Response: toolResponseObject(msgs[i].Content),
				}})
			}
			i-- // el bucle externo vuelve a incrementar
			out = append(out, geminiContent{Role: "user", Parts: parts})
		default:
			return nil, fmt.Errorf("AI: rol de mensaje desconocido: %q", m.Role)
		}
	}
	return out, nil
}

// toolResponseObject garantiza que functionResponse.response sea un objeto
// JSON, que es lo único que la API acepta en ese campo.
func toolResponseObject(content string) json.RawMessage {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	wrapped, _ := json.Marshal(map[string]string{"content": content})
	return wrapped
}

// sanitizeGeminiSchema elimina claves de JSON Schema que el esquema OpenAPI
// de Gemini rechaza (additionalProperties), descendiendo en properties e items.
func sanitizeGeminiSchema(schema map[string]any) map[string]any {
	if schema == nil {
		return nil
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if k == "additionalProperties" {
			continue
		}
		switch k {
		case "properties":
			if props, ok := v.(map[string]any); ok {
				clean := make(map[string]any, len(props))
				for name, sub := range props {
					if subMap, ok := sub.(map[string]any); ok {
						clean[name] = sanitizeGeminiSchema(subMap)
					} else {
						clean[name] = sub
					}
				}
				out[k] = clean
				continue
			}
		case "items":
			if subMap, ok := v.(map[string]any); ok {
				out[k] = sanitizeGeminiSchema(subMap)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func usageFromGemini(u *geminiUsage) *ports.Usage {
	if u == nil {
		return nil
	}
	if u.PromptTokenCount == nil && u.CandidatesTokenCount == nil && u.TotalTokenCount == nil &&
		u.ThoughtsTokenCount == nil && u.CachedContentTokenCount == nil {
		return nil
	}
	return &ports.Usage{
		TotalTokens:       u.TotalTokenCount,
		InputTokens:       u.PromptTokenCount,
		OutputTokens:      u.CandidatesTokenCount,
		ReasoningTokens:   u.ThoughtsTokenCount,
		CachedInputTokens: u.CachedContentTokenCount,
	}
}

// ── Stream de un solo chunk ───────────────────────────────────────────────────

type geminiStream struct {
	chunk  ports.Chunk
	served bool
}

func (st *geminiStream) Recv() (ports.Chunk, error) {
	if st.served {
		return ports.Chunk{}, io.EOF
	}
	st.served = true
	return st.chunk, nil
}

func (st *geminiStream) Close() error { return nil }
