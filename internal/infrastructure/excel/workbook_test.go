package excel

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// buildWorkbook arma un .xlsx en memoria con las filas dadas en la primera hoja.
func buildWorkbook(t *testing.T, rows [][]any) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de celdas
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "billingdocument", normalizeHeader("Billing Document"))
	assert.Equal(t, "billingdocument", normalizeHeader("BILLING_DOCUMENT"))
	assert.Equal(t, "billingdocument", normalizeHeader("BillingDocument"))
	assert.Equal(t, "gsm", normalizeHeader(" GSM "))
	assert.Equal(t, "", normalizeHeader("___"))
}

func TestParseWorkbookDate(t *testing.T) {
	for _, raw := range []string{"2025-03-01", "01.03.2025", "01/03/2025"} {
		d, ok := parseWorkbookDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, "2025-03-01", d.Format("2006-01-02"))
	}
	_, ok := parseWorkbookDate("marzo 2025")
	assert.False(t, ok)
	_, ok = parseWorkbookDate("")
	assert.False(t, ok)
}

func TestNullDecimalCell(t *testing.T) {
	nd := nullDecimalCell("1,250.75")
	require.True(t, nd.Valid, "las comas de miles se toleran")
	assert.Equal(t, "1250.75", nd.Decimal.String())

	assert.False(t, nullDecimalCell("").Valid)
	assert.False(t, nullDecimalCell("n/a").Valid)

	assert.Equal(t, "0", decimalCellOrZero("ilegible").String())
}

func TestIntCellPtr(t *testing.T) {
	n := intCellPtr("45")
	require.NotNil(t, n)
	assert.Equal(t, 45, *n)
	assert.Nil(t, intCellPtr(""))
	assert.Nil(t, intCellPtr("quince"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Loader de facturación
// ──────────────────────────────────────────────────────────────────────────────

func TestLoadInvoiceLines(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"Billing Document", "Item", "Invoice Date", "Bill To Party", "Bill To Party Code", "Material", "Billed Qty", "Net Amount", "GSM"},
		{"91234567", "10", "2025-06-14", "Gupta Textiles", "CUST-GUPTA-01", "FAB-AIRJET-120", "250", "42,500.50", "120"},
		{"91234567", "20", "14.06.2025", "Gupta Textiles", "CUST-GUPTA-01", "FAB-SULZER-90", "", "", ""},
		{"", "10", "2025-06-15", "Mehta Fabrics", "CUST-MEHTA-02", "FAB-X", "10", "100", ""}, // sin documento
		{"91234568", "", "2025-06-15", "Mehta Fabrics", "CUST-MEHTA-02", "FAB-X", "10", "100", ""}, // sin ítem
		{"91234569", "10", "algún día", "Mehta Fabrics", "CUST-MEHTA-02", "FAB-X", "10", "100", ""}, // fecha ilegible
		{"", "", "", "", "", "", "", "", ""}, // fila vacía: ni se cuenta
	})

	loader := NewInvoiceWorkbookLoader(logger.Nop())
	lines, report, err := loader.LoadInvoiceLines(r)
	require.NoError(t, err)

	assert.Equal(t, 5, report.RowsRead)
	assert.Equal(t, 3, report.RowsSkipped)
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "91234567", first.BillingDocument)
	assert.Equal(t, "10", first.Item)
	assert.Equal(t, "2025-06-14", first.InvoiceDate.Format("2006-01-02"))
	assert.Equal(t, "CUST-GUPTA-01", first.BillToPartyCode)
	require.True(t, first.BilledQty.Valid)
	assert.Equal(t, "250", first.BilledQty.Decimal.String())
	require.True(t, first.NetAmount.Valid)
	assert.Equal(t, "42500.5", first.NetAmount.Decimal.String())

	second := lines[1]
	assert.Equal(t, "2025-06-14", second.InvoiceDate.Format("2006-01-02"), "formato dd.mm.yyyy también entra")
	assert.False(t, second.BilledQty.Valid, "celda vacía queda null, no cero")
	assert.False(t, second.GSM.Valid)
}

func TestLoadInvoiceLines_FaltaColumnaObligatoria(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"Billing Document", "Invoice Date"}, // sin Item
		{"91234567", "2025-06-14"},
	})

	loader := NewInvoiceWorkbookLoader(logger.Nop())
	_, _, err := loader.LoadInvoiceLines(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Item")
}

func TestLoadInvoiceLines_LibroIlegible(t *testing.T) {
	loader := NewInvoiceWorkbookLoader(logger.Nop())
	_, _, err := loader.LoadInvoiceLines(bytes.NewReader([]byte("esto no es un xlsx")))
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Loader de existencias
// ──────────────────────────────────────────────────────────────────────────────

func TestLoadStockItems(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"Material", "Stock In Meters", "Basic Price", "Lead Time Days", "Replenishment Date", "Loom Type"},
		{"FAB-AIRJET-120", "1,200.5", "170.00", "45", "01.07.2025", "airjet"},
		{"FAB-SULZER-90", "", "", "", "", "sulzer"}, // metros vacíos → cero
		{"", "50", "10", "", "", ""},                // sin material: descartada
	})

	loader := NewStockWorkbookLoader(logger.Nop())
	items, report, err := loader.LoadStockItems(r)
	require.NoError(t, err)

	assert.Equal(t, 3, report.RowsRead)
	assert.Equal(t, 1, report.RowsSkipped)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "FAB-AIRJET-120", first.Material)
	assert.Equal(t, "1200.5", first.StockInMeters.String())
	require.True(t, first.BasicPrice.Valid)
	require.NotNil(t, first.LeadTimeDays)
	assert.Equal(t, 45, *first.LeadTimeDays)
	require.NotNil(t, first.ReplenishmentDate)
	assert.Equal(t, "2025-07-01", first.ReplenishmentDate.Format("2006-01-02"))
	assert.Equal(t, "airjet", first.LoomType)

	second := items[1]
	assert.Equal(t, "0", second.StockInMeters.String(), "metros vacíos entran como cero")
	assert.False(t, second.BasicPrice.Valid)
	assert.Nil(t, second.LeadTimeDays)
	assert.Nil(t, second.ReplenishmentDate)
}

func TestLoadStockItems_FaltaMaterial(t *testing.T) {
	r := buildWorkbook(t, [][]any{
		{"Stock In Meters"},
		{"100"},
	})

	loader := NewStockWorkbookLoader(logger.Nop())
	_, _, err := loader.LoadStockItems(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Material")
}
