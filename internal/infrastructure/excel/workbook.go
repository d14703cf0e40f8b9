// Package excel implementa los loaders de ingest sobre libros .xlsx del ERP.
// El mapeo de columnas es por encabezado, no por posición: los exports cambian
// de orden entre versiones del ERP pero conservan los nombres.
package excel

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// workbookDateLayouts formatos de fecha aceptados en celdas del export.
var workbookDateLayouts = []string{"2006-01-02", "02.01.2006", "02/01/2006"}

// normalizeHeader reduce un encabezado a minúsculas alfanuméricas:
// "Billing Document", "BILLING_DOCUMENT" y "BillingDocument" son equivalentes.
func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// headerIndex mapea encabezado normalizado a índice de columna.
// Ante encabezados duplicados gana el primero.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// cellAt devuelve la celda de la columna key, o "" si la columna no existe o
// la fila es corta (GetRows omite celdas vacías al final).
func cellAt(row []string, idx map[string]int, key string) string {
	i, ok := idx[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseWorkbookDate intenta los formatos conocidos. La fecha queda en UTC a
// medianoche, igual que las fechas que entran por la API.
func parseWorkbookDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range workbookDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseWorkbookDatePtr(s string) *time.Time {
	if t, ok := parseWorkbookDate(s); ok {
		return &t
	}
	return nil
}

// nullDecimalCell parsea con tolerancia: celda vacía o ilegible queda como
// null, nunca aborta la fila. Se aceptan separadores de miles con coma.
func nullDecimalCell(s string) decimal.NullDecimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// decimalCellOrZero igual que nullDecimalCell pero para columnas NOT NULL.
func decimalCellOrZero(s string) decimal.Decimal {
	if nd := nullDecimalCell(s); nd.Valid {
		return nd.Decimal
	}
	return decimal.Zero
}

func intCellPtr(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
