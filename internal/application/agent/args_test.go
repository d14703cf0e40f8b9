package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateArg_FormatosAceptados(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string // YYYY-MM-DD esperado; "" = filtro ausente
	}{
		{"canónico", "2025-03-01", "2025-03-01"},
		{"puntos dd.mm.yyyy", "01.03.2025", "2025-03-01"},
		{"barras dd/mm/yyyy", "01/03/2025", "2025-03-01"},
		{"vacío", "", ""},
		{"basura", "el mes pasado", ""},
		{"mes fuera de rango", "2025-13-01", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dateArg(map[string]any{"fromDate": tc.raw}, "fromDate")
			if tc.want == "" {
				assert.Nil(t, got, "entrada ilegible debe ser filtro ausente, no error")
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Format("2006-01-02"))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

// La normalización es idempotente: normalizar lo ya normalizado no cambia nada.
func TestDateArg_Idempotente(t *testing.T) {
	once := dateArg(map[string]any{"d": "15.08.2025"}, "d")
	require.NotNil(t, once)

	twice := dateArg(map[string]any{"d": once.Format("2006-01-02")}, "d")
	require.NotNil(t, twice)
	assert.True(t, once.Equal(*twice))
}

func TestDateArg_TipoNoString(t *testing.T) {
	assert.Nil(t, dateArg(map[string]any{"d": 20250301.0}, "d"))
	assert.Nil(t, dateArg(map[string]any{}, "d"))
}

func TestClampLimit(t *testing.T) {
	cases := []struct {
		name string
		n    int
		want int
	}{
		{"ausente toma el default", 0, 50},
		{"negativo toma el default", -3, 50},
		{"dentro del rango pasa", 120, 120},
		{"sobre el tope se recorta", 10000, 200},
		{"exactamente el tope", 200, 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, clampLimit(tc.n, 50, 200))
		})
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]any{"limit": float64(25), "texto": "no"}
	assert.Equal(t, 25, intArg(args, "limit", 10))
	assert.Equal(t, 10, intArg(args, "texto", 10))
	assert.Equal(t, 10, intArg(args, "ausente", 10))
}

func TestDecimalArg(t *testing.T) {
	args := map[string]any{"min_gsm": 120.5}
	d := decimalArg(args, "min_gsm")
	require.NotNil(t, d)
	assert.Equal(t, "120.5", d.String())
	assert.Nil(t, decimalArg(args, "ausente"))
}
