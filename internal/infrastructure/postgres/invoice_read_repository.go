package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/TelarIA-api/internal/domain"
	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

// InvoiceReadRepo implementa repository.InvoiceReadRepository sobre PostgreSQL.
// Todas las consultas de filtro usan guardas ($N = '' OR col = $N): un
// parámetro vacío o NULL desactiva su condición sin cambiar el SQL.
type InvoiceReadRepo struct {
	q Querier
}

var _ repository.InvoiceReadRepository = (*InvoiceReadRepo)(nil)

// NewInvoiceReadRepo crea el repositorio de lectura de facturas.
// Pasar pool o tx según el contexto.
func NewInvoiceReadRepo(q Querier) *InvoiceReadRepo {
	return &InvoiceReadRepo{q: q}
}

// invoiceLineColumns es la lista completa de columnas de invoice_lines, en el
// orden que espera scanInvoiceLine.
const invoiceLineColumns = `
    sales_org, billing_document, item, fiscal_year, document_type, invoice_date,
    bill_to_party, bill_to_party_code, bill_to_city,
    material, ainocular_design, ainocular_design_desc, ainocular_shade, ainocular_shade_desc,
    loom_type, dye_type, stock_type, width_inches, gsm, repeats, composition,
    basic_price, billed_qty, net_amount, gross_amount, discount_amount, taxable_amount, gst_amount, tcs_amount,
    region, agent, broker, end_use, pattern, colour_family, created_at`

// invoiceFilterWhere aplica repository.InvoiceFilter como guardas opcionales.
// Orden de argumentos: $1 desde, $2 hasta, $3 código de cliente, $4 nombre de
// cliente (parcial), $5 material, $6 diseño, $7 región, $8 agente, $9 uso final.
const invoiceFilterWhere = `
      ($1::date IS NULL OR invoice_date >= $1)
  AND ($2::date IS NULL OR invoice_date <= $2)
  AND ($3 = '' OR bill_to_party_code = $3)
  AND ($4 = '' OR bill_to_party ILIKE '%' || $4 || '%')
  AND ($5 = '' OR material = $5)
  AND ($6 = '' OR ainocular_design = $6)
  AND ($7 = '' OR region = $7)
  AND ($8 = '' OR agent = $8)
  AND ($9 = '' OR end_use = $9)`

func invoiceFilterArgs(f repository.InvoiceFilter) []any {
	return []any{
		f.FromDate, f.ToDate,
		f.BillToPartyCode, f.BillToParty,
		f.Material, f.Design, f.Region, f.Agent, f.EndUse,
	}
}

// dimensionColumns es la lista blanca de dimensiones de agrupación. Los nombres
// se interpolan en el SQL, por eso solo se aceptan valores de este mapa.
var dimensionColumns = map[string]struct{ key, label string }{
	repository.DimRegion:   {key: "region", label: "region"},
	repository.DimCustomer: {key: "bill_to_party_code", label: "bill_to_party"},
	repository.DimAgent:    {key: "agent", label: "agent"},
	repository.DimDesign:   {key: "ainocular_design", label: "ainocular_design_desc"},
	repository.DimEndUse:   {key: "end_use", label: "end_use"},
	repository.DimMaterial: {key: "material", label: "material"},
}

const searchInvoiceLinesSQL = `
SELECT` + invoiceLineColumns + `
FROM invoice_lines
WHERE` + invoiceFilterWhere + `
ORDER BY invoice_date DESC, billing_document DESC, item ASC
LIMIT $10 OFFSET $11`

// Search lista renglones de factura que cumplen el filtro, más recientes primero.
func (r *InvoiceReadRepo) Search(ctx context.Context, f repository.InvoiceFilter, limit, offset int) ([]*entity.InvoiceLine, error) {
	args := append(invoiceFilterArgs(f), limit, offset)
	rows, err := r.q.Query(ctx, searchInvoiceLinesSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres.SearchInvoices: %w", err)
	}
	defer rows.Close()

	var lines []*entity.InvoiceLine
	for rows.Next() {
		line, err := scanInvoiceLine(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.SearchInvoices scan: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.SearchInvoices rows: %w", err)
	}
	if lines == nil {
		lines = []*entity.InvoiceLine{}
	}
	return lines, nil
}

const invoiceByDocumentSQL = `
SELECT` + invoiceLineColumns + `
FROM invoice_lines
WHERE billing_document = $1
ORDER BY item ASC`

// GetByBillingDocument devuelve todos los renglones de una factura.
// Si la factura no existe devuelve slice vacío, no error.
func (r *InvoiceReadRepo) GetByBillingDocument(ctx context.Context, billingDocument string) ([]*entity.InvoiceLine, error) {
	rows, err := r.q.Query(ctx, invoiceByDocumentSQL, billingDocument)
	if err != nil {
		return nil, fmt.Errorf("postgres.GetByBillingDocument: %w", err)
	}
	defer rows.Close()

	var lines []*entity.InvoiceLine
	for rows.Next() {
		line, err := scanInvoiceLine(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.GetByBillingDocument scan: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.GetByBillingDocument rows: %w", err)
	}
	if lines == nil {
		lines = []*entity.InvoiceLine{}
	}
	return lines, nil
}

const salesTotalsSQL = `
SELECT
    COALESCE(SUM(net_amount), 0)          AS net_revenue,
    COALESCE(SUM(gross_amount), 0)        AS gross_amount,
    COALESCE(SUM(billed_qty), 0)          AS billed_qty,
    COALESCE(SUM(gst_amount), 0)          AS gst_amount,
    COALESCE(SUM(tcs_amount), 0)          AS tcs_amount,
    COALESCE(SUM(discount_amount), 0)     AS discount_amount,
    COUNT(DISTINCT billing_document)      AS invoice_count,
    COUNT(*)                              AS line_count,
    COUNT(DISTINCT bill_to_party_code)    AS customer_count,
    CASE WHEN COUNT(*) > 0
         THEN ROUND(COALESCE(SUM(net_amount), 0) / COUNT(*), 2)
         ELSE 0
    END                                   AS avg_line_value
FROM invoice_lines
WHERE` + invoiceFilterWhere

// SalesTotals agrega ventas bajo el filtro dado. Sin filas devuelve ceros.
func (r *InvoiceReadRepo) SalesTotals(ctx context.Context, f repository.InvoiceFilter) (*repository.SalesTotalsResult, error) {
	var res repository.SalesTotalsResult
	err := r.q.QueryRow(ctx, salesTotalsSQL, invoiceFilterArgs(f)...).Scan(
		&res.NetRevenue, &res.GrossAmount, &res.BilledQty,
		&res.GSTAmount, &res.TCSAmount, &res.DiscountAmount,
		&res.InvoiceCount, &res.LineCount, &res.CustomerCount,
		&res.AvgLineValue,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.SalesTotals: %w", err)
	}
	return &res, nil
}

// SalesByDimension agrupa ventas por una dimensión de la lista blanca y
// devuelve los topN grupos por ingreso neto.
func (r *InvoiceReadRepo) SalesByDimension(ctx context.Context, f repository.InvoiceFilter, dimension string, topN int) ([]repository.DimensionSalesResult, error) {
	cols, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("postgres.SalesByDimension: %w: dimensión %q", domain.ErrInvalidInput, dimension)
	}
	query := fmt.Sprintf(`
SELECT %[1]s                                   AS key,
       COALESCE(NULLIF(MAX(%[2]s), ''), %[1]s) AS label,
       COALESCE(SUM(net_amount), 0)            AS net_revenue,
       COALESCE(SUM(billed_qty), 0)            AS billed_qty,
       COUNT(DISTINCT billing_document)        AS invoice_count
FROM invoice_lines
WHERE`, cols.key, cols.label) + invoiceFilterWhere + fmt.Sprintf(`
  AND %[1]s <> ''
GROUP BY %[1]s
ORDER BY net_revenue DESC
LIMIT $10`, cols.key)

	args := append(invoiceFilterArgs(f), topN)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres.SalesByDimension: %w", err)
	}
	defer rows.Close()

	var results []repository.DimensionSalesResult
	for rows.Next() {
		var it repository.DimensionSalesResult
		if err := rows.Scan(&it.Key, &it.Label, &it.NetRevenue, &it.BilledQty, &it.InvoiceCount); err != nil {
			return nil, fmt.Errorf("postgres.SalesByDimension scan: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.SalesByDimension rows: %w", err)
	}
	if results == nil {
		results = []repository.DimensionSalesResult{}
	}
	return results, nil
}

const monthlySalesTrendSQL = `
SELECT to_char(date_trunc('month', invoice_date), 'YYYY-MM') AS month,
       COALESCE(SUM(net_amount), 0)                          AS net_revenue,
       COALESCE(SUM(billed_qty), 0)                          AS billed_qty,
       COUNT(DISTINCT billing_document)                      AS invoice_count
FROM invoice_lines
WHERE` + invoiceFilterWhere + `
  AND invoice_date >= $10
GROUP BY 1
ORDER BY 1 ASC`

// MonthlyTrend devuelve la serie mensual de ventas de los últimos `months`
// meses calendario, incluido el mes en curso. Meses sin ventas no aparecen.
func (r *InvoiceReadRepo) MonthlyTrend(ctx context.Context, f repository.InvoiceFilter, months int) ([]repository.MonthlySalesResult, error) {
	if months <= 0 {
		months = 12
	}
	now := time.Now().UTC()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := firstOfMonth.AddDate(0, -(months - 1), 0)

	args := append(invoiceFilterArgs(f), since)
	rows, err := r.q.Query(ctx, monthlySalesTrendSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres.MonthlyTrend: %w", err)
	}
	defer rows.Close()

	var results []repository.MonthlySalesResult
	for rows.Next() {
		var it repository.MonthlySalesResult
		if err := rows.Scan(&it.Month, &it.NetRevenue, &it.BilledQty, &it.InvoiceCount); err != nil {
			return nil, fmt.Errorf("postgres.MonthlyTrend scan: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.MonthlyTrend rows: %w", err)
	}
	if results == nil {
		results = []repository.MonthlySalesResult{}
	}
	return results, nil
}

// GrowthWindows devuelve, por cada valor de la dimensión, el ingreso neto de
// los 12 meses que terminan en reference y el de los 12 meses anteriores.
// Ambas ventanas en una sola pasada vía FILTER.
func (r *InvoiceReadRepo) GrowthWindows(ctx context.Context, dimension string, reference time.Time) ([]repository.GrowthWindowResult, error) {
	cols, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("postgres.GrowthWindows: %w: dimensión %q", domain.ErrInvalidInput, dimension)
	}
	query := fmt.Sprintf(`
SELECT %[1]s                                                           AS key,
       COALESCE(NULLIF(MAX(%[2]s), ''), %[1]s)                         AS label,
       COALESCE(SUM(net_amount) FILTER (WHERE invoice_date >  $2), 0)  AS current_revenue,
       COALESCE(SUM(net_amount) FILTER (WHERE invoice_date <= $2), 0)  AS previous_revenue
FROM invoice_lines
WHERE invoice_date >  $3
  AND invoice_date <= $1
  AND %[1]s <> ''
GROUP BY %[1]s
ORDER BY current_revenue DESC`, cols.key, cols.label)

	windowEnd := reference
	windowMid := reference.AddDate(-1, 0, 0)
	windowStart := reference.AddDate(-2, 0, 0)

	rows, err := r.q.Query(ctx, query, windowEnd, windowMid, windowStart)
	if err != nil {
		return nil, fmt.Errorf("postgres.GrowthWindows: %w", err)
	}
	defer rows.Close()

	var results []repository.GrowthWindowResult
	for rows.Next() {
		var it repository.GrowthWindowResult
		if err := rows.Scan(&it.Key, &it.Label, &it.CurrentRevenue, &it.PreviousRevenue); err != nil {
			return nil, fmt.Errorf("postgres.GrowthWindows scan: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.GrowthWindows rows: %w", err)
	}
	if results == nil {
		results = []repository.GrowthWindowResult{}
	}
	return results, nil
}

const materialBuyersSQL = `
SELECT bill_to_party_code,
       MAX(bill_to_party)            AS bill_to_party,
       COALESCE(SUM(billed_qty), 0)  AS billed_qty,
       COALESCE(SUM(net_amount), 0)  AS net_revenue,
       MAX(invoice_date)             AS last_purchase
FROM invoice_lines
WHERE material = $1
  AND bill_to_party_code <> ''
GROUP BY bill_to_party_code
ORDER BY billed_qty DESC
LIMIT $2`

// MaterialBuyers lista los clientes que más compraron un material, por cantidad.
func (r *InvoiceReadRepo) MaterialBuyers(ctx context.Context, material string, topN int) ([]repository.MaterialBuyerResult, error) {
	rows, err := r.q.Query(ctx, materialBuyersSQL, material, topN)
	if err != nil {
		return nil, fmt.Errorf("postgres.MaterialBuyers: %w", err)
	}
	defer rows.Close()

	var results []repository.MaterialBuyerResult
	for rows.Next() {
		var it repository.MaterialBuyerResult
		if err := rows.Scan(&it.BillToPartyCode, &it.BillToParty, &it.BilledQty, &it.NetRevenue, &it.LastPurchase); err != nil {
			return nil, fmt.Errorf("postgres.MaterialBuyers scan: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.MaterialBuyers rows: %w", err)
	}
	if results == nil {
		results = []repository.MaterialBuyerResult{}
	}
	return results, nil
}

// DistinctValues lista los valores distintos no vacíos de una dimensión.
func (r *InvoiceReadRepo) DistinctValues(ctx context.Context, dimension string) ([]string, error) {
	cols, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("postgres.DistinctValues: %w: dimensión %q", domain.ErrInvalidInput, dimension)
	}
	query := fmt.Sprintf(`SELECT DISTINCT %[1]s FROM invoice_lines WHERE %[1]s <> '' ORDER BY 1 ASC`, cols.key)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres.DistinctValues: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("postgres.DistinctValues scan: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.DistinctValues rows: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

const fabricAttributesSQL = `
SELECT ARRAY(SELECT DISTINCT loom_type     FROM invoice_lines WHERE loom_type     <> '' ORDER BY 1),
       ARRAY(SELECT DISTINCT dye_type      FROM invoice_lines WHERE dye_type      <> '' ORDER BY 1),
       ARRAY(SELECT DISTINCT stock_type    FROM invoice_lines WHERE stock_type    <> '' ORDER BY 1),
       ARRAY(SELECT DISTINCT colour_family FROM invoice_lines WHERE colour_family <> '' ORDER BY 1),
       ARRAY(SELECT DISTINCT pattern       FROM invoice_lines WHERE pattern       <> '' ORDER BY 1)`

// FabricAttributes devuelve los valores distintos de los atributos de tela en
// un solo viaje a la base.
func (r *InvoiceReadRepo) FabricAttributes(ctx context.Context) (*repository.FabricAttributesResult, error) {
	var res repository.FabricAttributesResult
	err := r.q.QueryRow(ctx, fabricAttributesSQL).Scan(
		&res.LoomTypes, &res.DyeTypes, &res.StockTypes, &res.ColourFamilies, &res.Patterns,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.FabricAttributes: %w", err)
	}
	return &res, nil
}

const qtySoldByMaterialSQL = `
SELECT material,
       COALESCE(SUM(billed_qty), 0) AS qty_sold
FROM invoice_lines
WHERE invoice_date >= $1
  AND material <> ''
GROUP BY material`

// QtySoldByMaterial devuelve la cantidad vendida por material desde una fecha.
func (r *InvoiceReadRepo) QtySoldByMaterial(ctx context.Context, since time.Time) ([]repository.MaterialSalesResult, error) {
	rows, err := r.q.Query(ctx, qtySoldByMaterialSQL, since)
	if err != nil {
		return nil, fmt.Errorf("postgres.QtySoldByMaterial: %w", err)
	}
	defer rows.Close()

	var results []repository.MaterialSalesResult
	for rows.Next() {
		var it repository.MaterialSalesResult
		if err := rows.Scan(&it.Material, &it.QtySold); err != nil {
			return nil, fmt.Errorf("postgres.QtySoldByMaterial scan: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.QtySoldByMaterial rows: %w", err)
	}
	if results == nil {
		results = []repository.MaterialSalesResult{}
	}
	return results, nil
}

const totalQtySoldSQL = `
SELECT COALESCE(SUM(billed_qty), 0) AS qty_sold
FROM invoice_lines
WHERE invoice_date >= $1`

// TotalQtySold devuelve la cantidad total vendida desde una fecha.
func (r *InvoiceReadRepo) TotalQtySold(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	var qty decimal.Decimal
	if err := r.q.QueryRow(ctx, totalQtySoldSQL, since).Scan(&qty); err != nil {
		return decimal.Zero, fmt.Errorf("postgres.TotalQtySold: %w", err)
	}
	return qty, nil
}

// scanInvoiceLine lee una fila con invoiceLineColumns en ese orden exacto.
// pgx.Rows también satisface pgx.Row, así que sirve para listas y fila única.
func scanInvoiceLine(row pgx.Row) (*entity.InvoiceLine, error) {
	l := &entity.InvoiceLine{}
	err := row.Scan(
		&l.SalesOrg, &l.BillingDocument, &l.Item, &l.FiscalYear, &l.DocumentType, &l.InvoiceDate,
		&l.BillToParty, &l.BillToPartyCode, &l.BillToCity,
		&l.Material, &l.AinocularDesign, &l.AinocularDesignDesc, &l.AinocularShade, &l.AinocularShadeDesc,
		&l.LoomType, &l.DyeType, &l.StockType, &l.WidthInches, &l.GSM, &l.Repeats, &l.Composition,
		&l.BasicPrice, &l.BilledQty, &l.NetAmount, &l.GrossAmount, &l.DiscountAmount, &l.TaxableAmount, &l.GSTAmount, &l.TCSAmount,
		&l.Region, &l.Agent, &l.Broker, &l.EndUse, &l.Pattern, &l.ColourFamily, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}
