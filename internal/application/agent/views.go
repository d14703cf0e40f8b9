package agent

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

// Vistas JSON de los datos hacia el modelo. Los listados usan la vista
// compacta; el detalle de factura usa la completa. Los decimales serializan
// como string (shopspring) y los NullDecimal como null cuando no hay valor.

const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// invoiceSummaryView fila compacta para listados de facturas.
type invoiceSummaryView struct {
	BillingDocument string              `json:"billing_document"`
	Item            string              `json:"item"`
	InvoiceDate     string              `json:"invoice_date"`
	BillToParty     string              `json:"bill_to_party,omitempty"`
	BillToPartyCode string              `json:"bill_to_party_code,omitempty"`
	Material        string              `json:"material,omitempty"`
	Design          string              `json:"design,omitempty"`
	BilledQty       decimal.NullDecimal `json:"billed_qty"`
	NetAmount       decimal.NullDecimal `json:"net_amount"`
	Region          string              `json:"region,omitempty"`
	Agent           string              `json:"agent,omitempty"`
}

func invoiceSummaries(lines []*entity.InvoiceLine) []invoiceSummaryView {
	out := make([]invoiceSummaryView, 0, len(lines))
	for _, l := range lines {
		out = append(out, invoiceSummaryView{
			BillingDocument: l.BillingDocument,
			Item:            l.Item,
			InvoiceDate:     fmtDate(l.InvoiceDate),
			BillToParty:     l.BillToParty,
			BillToPartyCode: l.BillToPartyCode,
			Material:        l.Material,
			Design:          l.AinocularDesign,
			BilledQty:       l.BilledQty,
			NetAmount:       l.NetAmount,
			Region:          l.Region,
			Agent:           l.Agent,
		})
	}
	return out
}

// invoiceLineView fila completa para el detalle de una factura.
type invoiceLineView struct {
	Item           string              `json:"item"`
	Material       string              `json:"material,omitempty"`
	Design         string              `json:"design,omitempty"`
	DesignDesc     string              `json:"design_desc,omitempty"`
	Shade          string              `json:"shade,omitempty"`
	ShadeDesc      string              `json:"shade_desc,omitempty"`
	LoomType       string              `json:"loom_type,omitempty"`
	DyeType        string              `json:"dye_type,omitempty"`
	StockType      string              `json:"stock_type,omitempty"`
	WidthInches    decimal.NullDecimal `json:"width_inches"`
	GSM            decimal.NullDecimal `json:"gsm"`
	Repeats        string              `json:"repeats,omitempty"`
	Composition    string              `json:"composition,omitempty"`
	BasicPrice     decimal.NullDecimal `json:"basic_price"`
	BilledQty      decimal.NullDecimal `json:"billed_qty"`
	NetAmount      decimal.NullDecimal `json:"net_amount"`
	GrossAmount    decimal.NullDecimal `json:"gross_amount"`
	DiscountAmount decimal.NullDecimal `json:"discount_amount"`
	TaxableAmount  decimal.NullDecimal `json:"taxable_amount"`
	GSTAmount      decimal.NullDecimal `json:"gst_amount"`
	TCSAmount      decimal.NullDecimal `json:"tcs_amount"`
	Pattern        string              `json:"pattern,omitempty"`
	ColourFamily   string              `json:"colour_family,omitempty"`
	EndUse         string              `json:"end_use,omitempty"`
}

// invoiceHeaderView encabezado del detalle con totales del documento.
type invoiceHeaderView struct {
	BillingDocument string          `json:"billing_document"`
	InvoiceDate     string          `json:"invoice_date"`
	DocumentType    string          `json:"document_type,omitempty"`
	FiscalYear      string          `json:"fiscal_year,omitempty"`
	BillToParty     string          `json:"bill_to_party,omitempty"`
	BillToPartyCode string          `json:"bill_to_party_code,omitempty"`
	BillToCity      string          `json:"bill_to_city,omitempty"`
	Region          string          `json:"region,omitempty"`
	Agent           string          `json:"agent,omitempty"`
	Broker          string          `json:"broker,omitempty"`
	LineCount       int             `json:"line_count"`
	TotalQty        decimal.Decimal `json:"total_qty"`
	TotalNet        decimal.Decimal `json:"total_net"`
	TotalGross      decimal.Decimal `json:"total_gross"`
	TotalGST        decimal.Decimal `json:"total_gst"`
	TotalTCS        decimal.Decimal `json:"total_tcs"`
}

// invoiceDetailView documento completo: encabezado + líneas.
type invoiceDetailView struct {
	Header invoiceHeaderView `json:"header"`
	Lines  []invoiceLineView `json:"lines"`
}

// invoiceDetail arma el detalle desde las líneas de un mismo documento.
// Asume len(lines) > 0; el caller ya trató el caso vacío.
func invoiceDetail(lines []*entity.InvoiceLine) invoiceDetailView {
	first := lines[0]
	header := invoiceHeaderView{
		BillingDocument: first.BillingDocument,
		InvoiceDate:     fmtDate(first.InvoiceDate),
		DocumentType:    first.DocumentType,
		FiscalYear:      first.FiscalYear,
		BillToParty:     first.BillToParty,
		BillToPartyCode: first.BillToPartyCode,
		BillToCity:      first.BillToCity,
		Region:          first.Region,
		Agent:           first.Agent,
		Broker:          first.Broker,
		LineCount:       len(lines),
	}
	views := make([]invoiceLineView, 0, len(lines))
	for _, l := range lines {
		header.TotalQty = addNull(header.TotalQty, l.BilledQty)
		header.TotalNet = addNull(header.TotalNet, l.NetAmount)
		header.TotalGross = addNull(header.TotalGross, l.GrossAmount)
		header.TotalGST = addNull(header.TotalGST, l.GSTAmount)
		header.TotalTCS = addNull(header.TotalTCS, l.TCSAmount)
		views = append(views, invoiceLineView{
			Item:           l.Item,
			Material:       l.Material,
			Design:         l.AinocularDesign,
			DesignDesc:     l.AinocularDesignDesc,
			Shade:          l.AinocularShade,
			ShadeDesc:      l.AinocularShadeDesc,
			LoomType:       l.LoomType,
			DyeType:        l.DyeType,
			StockType:      l.StockType,
			WidthInches:    l.WidthInches,
			GSM:            l.GSM,
			Repeats:        l.Repeats,
			Composition:    l.Composition,
			BasicPrice:     l.BasicPrice,
			BilledQty:      l.BilledQty,
			NetAmount:      l.NetAmount,
			GrossAmount:    l.GrossAmount,
			DiscountAmount: l.DiscountAmount,
			TaxableAmount:  l.TaxableAmount,
			GSTAmount:      l.GSTAmount,
			TCSAmount:      l.TCSAmount,
			Pattern:        l.Pattern,
			ColourFamily:   l.ColourFamily,
			EndUse:         l.EndUse,
		})
	}
	return invoiceDetailView{Header: header, Lines: views}
}

func addNull(acc decimal.Decimal, d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return acc
	}
	return acc.Add(d.Decimal)
}

// salesTotalsView rollup de ventas del período.
type salesTotalsView struct {
	NetRevenue     decimal.Decimal `json:"net_revenue"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	BilledQty      decimal.Decimal `json:"billed_qty_meters"`
	GSTAmount      decimal.Decimal `json:"gst_amount"`
	TCSAmount      decimal.Decimal `json:"tcs_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	InvoiceCount   int             `json:"invoice_count"`
	LineCount      int             `json:"line_count"`
	CustomerCount  int             `json:"customer_count"`
	AvgLineValue   decimal.Decimal `json:"avg_line_value"`
}

func totalsView(t *repository.SalesTotalsResult) salesTotalsView {
	return salesTotalsView{
		NetRevenue:     t.NetRevenue,
		GrossAmount:    t.GrossAmount,
		BilledQty:      t.BilledQty,
		GSTAmount:      t.GSTAmount,
		TCSAmount:      t.TCSAmount,
		DiscountAmount: t.DiscountAmount,
		InvoiceCount:   t.InvoiceCount,
		LineCount:      t.LineCount,
		CustomerCount:  t.CustomerCount,
		AvgLineValue:   t.AvgLineValue,
	}
}

// dimensionRowView fila de ranking por dimensión, con participación sobre el
// total del período filtrado.
type dimensionRowView struct {
	Key          string          `json:"key"`
	Label        string          `json:"label"`
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	BilledQty    decimal.Decimal `json:"billed_qty_meters"`
	InvoiceCount int             `json:"invoice_count"`
	SharePercent decimal.Decimal `json:"share_percent"`
}

// monthRowView fila de la serie mensual.
type monthRowView struct {
	Month        string          `json:"month"`
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	BilledQty    decimal.Decimal `json:"billed_qty_meters"`
	InvoiceCount int             `json:"invoice_count"`
}

// growthRowView crecimiento interanual por clave.
type growthRowView struct {
	Key             string          `json:"key"`
	Label           string          `json:"label"`
	CurrentRevenue  decimal.Decimal `json:"current_12m_revenue"`
	PreviousRevenue decimal.Decimal `json:"previous_12m_revenue"`
	Change          decimal.Decimal `json:"change"`
	GrowthPercent   decimal.Decimal `json:"growth_percent"`
}

// buyerRowView cliente que compró un material.
type buyerRowView struct {
	CustomerCode string          `json:"customer_code"`
	Customer     string          `json:"customer"`
	BilledQty    decimal.Decimal `json:"billed_qty_meters"`
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	LastPurchase string          `json:"last_purchase"`
}

// stockItemView existencia de un material.
type stockItemView struct {
	Material          string              `json:"material"`
	StockInMeters     decimal.Decimal     `json:"stock_in_meters"`
	BasicPrice        decimal.NullDecimal `json:"basic_price"`
	LeadTimeDays      *int                `json:"lead_time_days"`
	ReplenishmentDate *string             `json:"replenishment_date"`
	Design            string              `json:"design,omitempty"`
	Shade             string              `json:"shade,omitempty"`
	LoomType          string              `json:"loom_type,omitempty"`
	DyeType           string              `json:"dye_type,omitempty"`
	StockType         string              `json:"stock_type,omitempty"`
	Colour            string              `json:"colour,omitempty"`
	Pattern           string              `json:"pattern,omitempty"`
	EndUse            string              `json:"end_use,omitempty"`
	GSM               decimal.NullDecimal `json:"gsm"`
	Repeats           string              `json:"repeats,omitempty"`
	Composition       string              `json:"composition,omitempty"`
}

func stockItemViews(items []*entity.StockItem) []stockItemView {
	out := make([]stockItemView, 0, len(items))
	for _, it := range items {
		out = append(out, stockItemView{
			Material:          it.Material,
			StockInMeters:     it.StockInMeters,
			BasicPrice:        it.BasicPrice,
			LeadTimeDays:      it.LeadTimeDays,
			ReplenishmentDate: fmtDatePtr(it.ReplenishmentDate),
			Design:            it.AinocularDesign,
			Shade:             it.AinocularShade,
			LoomType:          it.LoomType,
			DyeType:           it.DyeType,
			StockType:         it.StockType,
			Colour:            it.Colour,
			Pattern:           it.Pattern,
			EndUse:            it.EndUse,
			GSM:               it.GSM,
			Repeats:           it.Repeats,
			Composition:       it.Composition,
		})
	}
	return out
}

// agingRowView antigüedad de stock de un material.
type agingRowView struct {
	Material      string          `json:"material"`
	Design        string          `json:"design,omitempty"`
	StockInMeters decimal.Decimal `json:"stock_in_meters"`
	DaysSinceRepl int             `json:"days_since_replenishment"`
}

// stockHealthRowView material clasificado frente a su ritmo de venta.
// CoverageMonths es null cuando la cobertura es infinita (hay tela y no hay
// ventas); InfiniteCoverage lo señala explícitamente.
type stockHealthRowView struct {
	Material         string          `json:"material"`
	Design           string          `json:"design,omitempty"`
	OnHandMeters     decimal.Decimal `json:"on_hand_meters"`
	QtySoldWindow    decimal.Decimal `json:"qty_sold_window"`
	MonthlyVelocity  decimal.Decimal `json:"monthly_velocity"`
	CoverageMonths   *string         `json:"coverage_months"`
	InfiniteCoverage bool            `json:"infinite_coverage,omitempty"`
	Classification   string          `json:"classification"`
	HighSalesNoStock bool            `json:"high_sales_zero_stock,omitempty"`

	covSort decimal.Decimal // cobertura cruda, solo para ordenar
}

// excessRowView material con cobertura por encima del umbral.
type excessRowView struct {
	Material        string          `json:"material"`
	Design          string          `json:"design,omitempty"`
	OnHandMeters    decimal.Decimal `json:"on_hand_meters"`
	QtySoldWindow   decimal.Decimal `json:"qty_sold_window"`
	MonthlyVelocity decimal.Decimal `json:"monthly_velocity"`
	CoverageMonths  *string         `json:"coverage_months"`
	NoRecentSales   bool            `json:"no_recent_sales,omitempty"`

	covSort decimal.Decimal // cobertura cruda, solo para ordenar
}
