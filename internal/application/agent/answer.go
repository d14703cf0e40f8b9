package agent

import "github.com/jhoicas/TelarIA-api/internal/application/dto"

// Answer es el turno completo ya empaquetado: texto final, cuántas rondas de
// modelo tomó, qué herramientas corrieron, tokens y enlaces de PDF recogidos.
type Answer struct {
	Text      string
	Provider  string
	Steps     int
	ToolCalls []dto.ToolCallSummary
	Usage     dto.ChatUsage
	Links     []dto.InvoiceLink
}

// Meta proyecta el Answer como metadatos de respuesta (sin el texto).
// Slices siempre no-nil: el JSON lleva [] en vez de null.
func (a *Answer) Meta() dto.ChatMeta {
	meta := dto.ChatMeta{
		Provider:  a.Provider,
		Steps:     a.Steps,
		ToolCalls: a.ToolCalls,
		Usage:     a.Usage,
		Links:     a.Links,
	}
	if meta.ToolCalls == nil {
		meta.ToolCalls = []dto.ToolCallSummary{}
	}
	if meta.Links == nil {
		meta.Links = []dto.InvoiceLink{}
	}
	return meta
}

// Response proyecta el Answer como respuesta completa (modo sin streaming).
func (a *Answer) Response() dto.ChatResponse {
	return dto.ChatResponse{Answer: a.Text, Meta: a.Meta()}
}
