package ports

import "context"

// Roles de los mensajes del historial. "tool" lleva el resultado de una
// herramienta de vuelta al modelo, con ToolCallID apuntando a la invocación.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message es un turno del historial de conversación. Un turno assistant que
// invocó herramientas conserva sus ToolCalls: el proveedor los necesita para
// reconstruir el turno al reenviar el historial.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`         // nombre de la herramienta (rol tool)
	ToolCallID string     `json:"tool_call_id,omitempty"` // invocación que responde (rol tool)
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // invocaciones emitidas (rol assistant)
}

// Tool es la definición de una herramienta que el modelo puede invocar.
// InputSchema es JSON Schema (draft 2020-12) como mapa genérico.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall es una invocación de herramienta emitida por el modelo.
// Arguments llega como JSON crudo; quien ejecuta decide cómo decodificarlo.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage métricas de tokens reportadas por el proveedor. Todos los campos son
// opcionales: cada proveedor llena los que conoce y deja el resto en nil.
// Nunca inventar un cero donde el proveedor no reportó nada.
type Usage struct {
	TotalTokens       *int64 `json:"total_tokens,omitempty"`
	InputTokens       *int64 `json:"input_tokens,omitempty"`
	OutputTokens      *int64 `json:"output_tokens,omitempty"`
	ReasoningTokens   *int64 `json:"reasoning_tokens,omitempty"`
	CachedInputTokens *int64 `json:"cached_input_tokens,omitempty"`
}

// Chunk es un fragmento de la respuesta en streaming: texto incremental,
// invocaciones de herramientas completas, o métricas de uso al final.
type Chunk struct {
	Text      string
	ToolCalls []ToolCall
	Usage     *Usage
}

// ChatStream entrega la respuesta del modelo por fragmentos.
// Recv devuelve io.EOF cuando el turno terminó. Close siempre debe llamarse.
type ChatStream interface {
	Recv() (Chunk, error)
	Close() error
}

// ChatRequest es un turno completo hacia el modelo.
type ChatRequest struct {
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int
}

// ChatModel define el puerto de salida hacia el modelo conversacional.
// Cualquier adaptador (Anthropic, Gemini, mock) debe implementar esta interfaz.
// El contexto debe llevar timeout o cancelación: la llamada sale a la red.
type ChatModel interface {
	// Name identifica al proveedor en logs y metadatos ("anthropic", "gemini").
	Name() string

	// Stream envía el turno y devuelve la respuesta en streaming.
	Stream(ctx context.Context, req ChatRequest) (ChatStream, error)
}
