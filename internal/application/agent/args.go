package agent

import (
	"time"

	"github.com/shopspring/decimal"
)

// Formatos de fecha aceptados en argumentos. El canónico va primero: la
// normalización es idempotente.
var dateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}

// stringArg lee un argumento string; "" si falta o no es string.
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// intArg lee un argumento numérico como entero; def si falta o no es número.
func intArg(args map[string]any, key string, def int) int {
	f, ok := args[key].(float64)
	if !ok {
		return def
	}
	return int(f)
}

// decimalArg lee un argumento numérico como decimal; nil si falta.
func decimalArg(args map[string]any, key string) *decimal.Decimal {
	f, ok := args[key].(float64)
	if !ok {
		return nil
	}
	d := decimal.NewFromFloat(f)
	return &d
}

// dateArg lee y normaliza una fecha. Fecha ausente o imposible de interpretar
// es filtro ausente (nil), nunca error: la conversación no se cae por un
// formato raro, simplemente consulta sin ese límite.
func dateArg(args map[string]any, key string) *time.Time {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}

// dateRange lee fromDate/toDate. Ambos extremos son inclusivos: las columnas
// de fecha son DATE, así que comparar <= toDate cubre el día completo.
func dateRange(args map[string]any) (from, to *time.Time) {
	return dateArg(args, "fromDate"), dateArg(args, "toDate")
}

// clampLimit satura un límite pedido: no positivo toma el default, por encima
// del tope se recorta en silencio. Nunca error.
func clampLimit(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// ── Constructores de esquema ──
// Los esquemas del catálogo son JSON Schema plano: objeto, propiedades
// primitivas, additionalProperties en false para que el validador rechace
// argumentos inventados.

func objectSchema(props map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func strProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func enumProp(desc string, values []string) map[string]any {
	return map[string]any{"type": "string", "description": desc, "enum": values}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func numProp(desc string) map[string]any {
	return map[string]any{"type": "number", "description": desc}
}
