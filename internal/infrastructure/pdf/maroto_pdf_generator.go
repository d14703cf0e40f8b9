// Package pdf implementa el reporte de ventas descargable con Maroto v2.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Ainocular Fabrics  │  SALES REPORT + período       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: ingresos / metros / facturas / clientes / GST     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Top regiones        │  TABLA: Top clientes          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Serie mensual (12 meses)                            │
//	│  FOOTER: fecha de generación                                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/TelarIA-api/internal/application/reports"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

// Verificar en tiempo de compilación que implementa el puerto de reports.
var _ reports.SalesPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa reports.SalesPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateSalesReport genera el PDF del reporte y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateSalesReport(_ context.Context, data *reports.SalesReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Sales Report", true).
		WithAuthor("Ainocular Fabrics", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(totalsRows(data.Totals)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitleRow("TOP REGIONS BY NET REVENUE"))
	m.AddRows(dimensionTableRows("Region", data.TopRegions)...)

	m.AddRows(sectionTitleRow("TOP CUSTOMERS BY NET REVENUE"))
	m.AddRows(dimensionTableRows("Customer", data.TopCustomers)...)

	m.AddRows(sectionTitleRow("MONTHLY SALES, LAST 12 MONTHS"))
	m.AddRows(monthlyTableRows(data.Monthly)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(data.GeneratedAt))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: marca (izq) y título del reporte + período (der).
func headerRow(data *reports.SalesReportData) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("Ainocular Fabrics", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Textile sales analytics", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("SALES REPORT", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Period: "+periodLabel(data.From, data.To), props.Text{
				Size: 8, Align: align.Right, Top: 10, Color: colorGray,
			}),
		),
	)
}

// totalsRows: bloque de indicadores del período en dos filas de cuatro.
func totalsRows(t repository.SalesTotalsResult) []core.Row {
	metric := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
		)
	}
	return []core.Row{
		row.New(12).Add(
			metric("Net revenue", "Rs. "+formatINR(t.NetRevenue.StringFixed(0))),
			metric("Billed quantity", formatINR(t.BilledQty.StringFixed(0))+" m"),
			metric("Invoices", fmt.Sprintf("%d", t.InvoiceCount)),
			metric("Customers", fmt.Sprintf("%d", t.CustomerCount)),
		),
		row.New(12).Add(
			metric("GST collected", "Rs. "+formatINR(t.GSTAmount.StringFixed(0))),
			metric("TCS collected", "Rs. "+formatINR(t.TCSAmount.StringFixed(0))),
			metric("Discounts", "Rs. "+formatINR(t.DiscountAmount.StringFixed(0))),
			metric("Avg line value", "Rs. "+formatINR(t.AvgLineValue.StringFixed(0))),
		),
	}
}

func sectionTitleRow(title string) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 3,
		}),
	))
}

// dimensionTableRows: cabecera + una fila por región o cliente.
func dimensionTableRows(keyLabel string, rows []repository.DimensionSalesResult) []core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1,
		}))
	}
	result := []core.Row{row.New(6).Add(
		h(keyLabel, 5, align.Left),
		h("Net revenue", 3, align.Right),
		h("Meters", 2, align.Right),
		h("Invoices", 2, align.Right),
	)}

	if len(rows) == 0 {
		return append(result, row.New(6).Add(col.New(12).Add(
			text.New("No sales in this period.", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}

	for _, r := range rows {
		result = append(result, row.New(6).Add(
			col.New(5).Add(text.New(r.Label, props.Text{Size: 8, Top: 1})),
			col.New(3).Add(text.New("Rs. "+formatINR(r.NetRevenue.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(formatINR(r.BilledQty.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(fmt.Sprintf("%d", r.InvoiceCount), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return result
}

// monthlyTableRows: cabecera + una fila por mes.
func monthlyTableRows(rows []repository.MonthlySalesResult) []core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 1,
		}))
	}
	result := []core.Row{row.New(6).Add(
		h("Month", 3, align.Left),
		h("Net revenue", 4, align.Right),
		h("Meters", 3, align.Right),
		h("Invoices", 2, align.Right),
	)}

	if len(rows) == 0 {
		return append(result, row.New(6).Add(col.New(12).Add(
			text.New("No sales in this period.", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}

	for _, r := range rows {
		result = append(result, row.New(6).Add(
			col.New(3).Add(text.New(r.Month, props.Text{Size: 8, Top: 1})),
			col.New(4).Add(text.New("Rs. "+formatINR(r.NetRevenue.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(3).Add(text.New(formatINR(r.BilledQty.StringFixed(0)), props.Text{Size: 8, Align: align.Right, Top: 1})),
			col.New(2).Add(text.New(fmt.Sprintf("%d", r.InvoiceCount), props.Text{Size: 8, Align: align.Right, Top: 1})),
		))
	}
	return result
}

func footerRow(generatedAt time.Time) core.Row {
	return row.New(8).Add(col.New(12).Add(
		text.New(
			"Generated on "+generatedAt.Format("02 Jan 2006 15:04")+". Amounts in INR; quantities in meters.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

// periodLabel arma la etiqueta del período. Extremos nil = sin acotar.
func periodLabel(from, to *time.Time) string {
	const layout = "02 Jan 2006"
	switch {
	case from == nil && to == nil:
		return "all time"
	case from == nil:
		return "up to " + to.Format(layout)
	case to == nil:
		return "from " + from.Format(layout)
	default:
		return from.Format(layout) + " to " + to.Format(layout)
	}
}

// formatINR agrupa un entero al estilo indio: "10000000" → "1,00,00,000"
// (los últimos tres dígitos, luego grupos de dos).
func formatINR(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	out := s[n-3:]
	rest := s[:n-3]
	for len(rest) > 2 {
		out = rest[len(rest)-2:] + "," + out
		rest = rest[:len(rest)-2]
	}
	out = rest + "," + out
	if neg {
		return "-" + out
	}
	return out
}
