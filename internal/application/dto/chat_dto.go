package dto

// ChatTurn un mensaje de la conversación, tal como lo envía el cliente.
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

// ChatRequest entrada del endpoint de chat: la conversación completa en orden.
// El último mensaje debe ser del usuario; es la pregunta a responder.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages" validate:"required,min=1,max=40,dive"`
}

// ChatUsage tokens consumidos en el turno. Cada campo es null cuando el
// proveedor no lo reportó; nunca se rellena con cero.
type ChatUsage struct {
	TotalTokens       *int64 `json:"total_tokens"`
	InputTokens       *int64 `json:"input_tokens"`
	OutputTokens      *int64 `json:"output_tokens"`
	ReasoningTokens   *int64 `json:"reasoning_tokens"`
	CachedInputTokens *int64 `json:"cached_input_tokens"`
}

// ToolCallSummary resumen de una herramienta ejecutada durante el turno.
type ToolCallSummary struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Success    bool   `json:"success"`
}

// InvoiceLink enlace de descarga del PDF de una factura, para que la UI lo
// pinte como botón junto a la respuesta.
type InvoiceLink struct {
	BillingDocument string `json:"billing_document"`
	URL             string `json:"url"`
}

// ChatMeta metadatos del turno: pasos del agente, herramientas, uso y enlaces.
type ChatMeta struct {
	Provider  string            `json:"provider"`
	Steps     int               `json:"steps"`
	ToolCalls []ToolCallSummary `json:"tool_calls"`
	Usage     ChatUsage         `json:"usage"`
	Links     []InvoiceLink     `json:"links"`
}

// ChatResponse respuesta completa (modo sin streaming).
type ChatResponse struct {
	Answer string   `json:"answer"`
	Meta   ChatMeta `json:"meta"`
}

// StreamEvent evento SSE del chat. Type: "token" (Content), "tool" (Name),
// "meta" (Meta) o "error" (Content con el mensaje).
type StreamEvent struct {
	Type    string    `json:"type"`
	Content string    `json:"content,omitempty"`
	Name    string    `json:"name,omitempty"`
	Meta    *ChatMeta `json:"meta,omitempty"`
}
