package agent

import "fmt"

// ToolResult es lo que el modelo ve tras ejecutar una herramienta.
// Autorización negada, documento inexistente o parámetro faltante son
// resultados con Success=false y Error legible, nunca errores de Go: el
// modelo debe poder leerlos y reformular. Los errores de infraestructura
// (base de datos caída, timeout) sí viajan como error de Go, para que el
// orquestador aplique su política de reintentos.
type ToolResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK construye un resultado exitoso.
func OK(data any) ToolResult {
	return ToolResult{Success: true, Data: data}
}

// Fail construye un resultado fallido con mensaje para el modelo (en inglés:
// es el idioma de la conversación).
func Fail(msg string) ToolResult {
	return ToolResult{Success: false, Error: msg}
}

// Failf es Fail con formato.
func Failf(format string, args ...any) ToolResult {
	return ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}
