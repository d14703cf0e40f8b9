package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/TelarIA-api/internal/application/ports"
)

// HandlerFunc ejecuta una herramienta con argumentos ya decodificados y
// validados contra el esquema.
type HandlerFunc func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error)

// Tool es una herramienta registrada en el catálogo. El catálogo se expone
// completo a toda identidad autenticada; el scoping por cliente vive dentro
// de cada herramienta de cuenta propia, no en el registro.
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     HandlerFunc
}

// Catalog es el registro de herramientas por nombre. El registro valida en el
// arranque (nombre, descripción, esquema y handler obligatorios; duplicados
// prohibidos) y Dispatch valida nombre y forma de los argumentos en runtime,
// antes de tocar el handler.
type Catalog struct {
	tools map[string]Tool
	order []string // orden de registro, para definiciones estables
}

// NewCatalog crea un catálogo vacío.
func NewCatalog() *Catalog {
	return &Catalog{tools: map[string]Tool{}}
}

// Register agrega una herramienta. Panic ante registro inválido: es un bug de
// arranque, no una condición de runtime.
func (c *Catalog) Register(t Tool) {
	if t.Name == "" {
		panic("agent: herramienta sin nombre")
	}
	if t.Description == "" {
		panic("agent: herramienta " + t.Name + " sin descripción")
	}
	if typ, _ := t.InputSchema["type"].(string); typ != "object" {
		panic("agent: herramienta " + t.Name + " con esquema que no es objeto")
	}
	if t.Handler == nil {
		panic("agent: herramienta " + t.Name + " sin handler")
	}
	if _, dup := c.tools[t.Name]; dup {
		panic("agent: herramienta duplicada " + t.Name)
	}
	c.tools[t.Name] = t
	c.order = append(c.order, t.Name)
}

// Len devuelve cuántas herramientas hay registradas.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Definitions devuelve todas las definiciones en orden de registro. La
// agrupación de herramientas (analítica, cuenta propia, stock) es solo
// organización del código: el modelo recibe el catálogo entero y el prompt
// de sistema lo orienta según la identidad.
func (c *Catalog) Definitions() []ports.Tool {
	defs := make([]ports.Tool, 0, len(c.order))
	for _, name := range c.order {
		t := c.tools[name]
		defs = append(defs, ports.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return defs
}

// Dispatch ejecuta una invocación del modelo. Nombre desconocido o argumentos
// malformados devuelven ToolResult fallido con error nil: el modelo puede
// leerlo y corregir. Un error de Go solo sale del handler, y significa falla
// de infraestructura.
func (c *Catalog) Dispatch(ctx context.Context, id Identity, call ports.ToolCall) (ToolResult, error) {
	t, ok := c.tools[call.Name]
	if !ok {
		return Failf("unknown tool: %s", call.Name), nil
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return Failf("invalid tool arguments: %v", err), nil
		}
	}
	if err := validateArgs(t.InputSchema, args); err != nil {
		return Fail(err.Error()), nil
	}
	return t.Handler(ctx, id, args)
}

// validateArgs valida los argumentos contra el esquema del registro:
// requeridos presentes, nombres conocidos y tipos primitivos correctos.
// No es un validador JSON Schema completo; cubre lo que los esquemas del
// catálogo usan (object plano, string/integer/number/boolean, enum).
func validateArgs(schema, args map[string]any) error {
	props, _ := schema["properties"].(map[string]any)

	for _, req := range requiredKeys(schema) {
		if _, present := args[req]; !present {
			return fmt.Errorf("missing required parameter: %s", req)
		}
	}

	for key, val := range args {
		rawProp, known := props[key]
		if !known {
			return fmt.Errorf("unknown parameter: %s", key)
		}
		prop, _ := rawProp.(map[string]any)
		if err := checkType(key, prop, val); err != nil {
			return err
		}
	}
	return nil
}

func requiredKeys(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		keys := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				keys = append(keys, s)
			}
		}
		return keys
	}
	return nil
}

func checkType(key string, prop map[string]any, val any) error {
	if val == nil {
		return fmt.Errorf("parameter %s is null", key)
	}
	typ, _ := prop["type"].(string)
	switch typ {
	case "string":
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("parameter %s must be a string", key)
		}
		if enum, has := prop["enum"]; has && !enumContains(enum, s) {
			return fmt.Errorf("parameter %s must be one of the allowed values", key)
		}
	case "integer":
		// JSON decodifica números como float64; entero = sin parte fraccional.
		f, ok := val.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("parameter %s must be an integer", key)
		}
	case "number":
		if _, ok := val.(float64); !ok {
			return fmt.Errorf("parameter %s must be a number", key)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("parameter %s must be a boolean", key)
		}
	}
	return nil
}

func enumContains(enum any, s string) bool {
	switch vals := enum.(type) {
	case []string:
		for _, v := range vals {
			if v == s {
				return true
			}
		}
	case []any:
		for _, v := range vals {
			if str, ok := v.(string); ok && str == s {
				return true
			}
		}
	}
	return false
}
