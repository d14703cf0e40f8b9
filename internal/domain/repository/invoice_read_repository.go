package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
)

// Dimensiones válidas para agrupaciones y descubrimiento de valores.
// La implementación mapea cada una a su columna; cualquier otro valor es ErrInvalidInput.
const (
	DimRegion   = "region"
	DimCustomer = "customer"
	DimAgent    = "agent"
	DimDesign   = "design"
	DimEndUse   = "end_use"
	DimMaterial = "material"
)

// InvoiceFilter filtros opcionales para consultas de facturación.
// String vacío / puntero nil = filtro ausente. Las fechas son inclusivas
// en ambos extremos (la capa de herramientas ya las normalizó a día).
type InvoiceFilter struct {
	FromDate        *time.Time
	ToDate          *time.Time
	BillToPartyCode string // match exacto; lo inyecta la capa de scoping
	BillToParty     string // búsqueda por nombre (ILIKE parcial)
	Material        string
	Design          string // código de diseño Ainocular
	Region          string
	Agent           string
	EndUse          string
}

// SalesTotalsResult rollup de ventas del período filtrado.
type SalesTotalsResult struct {
	NetRevenue     decimal.Decimal
	GrossAmount    decimal.Decimal
	BilledQty      decimal.Decimal // metros
	GSTAmount      decimal.Decimal
	TCSAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	InvoiceCount   int // documentos distintos
	LineCount      int
	CustomerCount  int // bill_to_party_code distintos
	AvgLineValue   decimal.Decimal
}

// DimensionSalesResult fila agrupada por una dimensión (región, cliente, agente, diseño…).
type DimensionSalesResult struct {
	Key          string // valor crudo de la dimensión (código o nombre)
	Label        string // nombre a mostrar; igual a Key si la dimensión no tiene descripción
	NetRevenue   decimal.Decimal
	BilledQty    decimal.Decimal
	InvoiceCount int
}

// MonthlySalesResult fila de la serie mensual.
type MonthlySalesResult struct {
	Month        string // YYYY-MM
	NetRevenue   decimal.Decimal
	BilledQty    decimal.Decimal
	InvoiceCount int
}

// GrowthWindowResult ingresos por clave en dos ventanas de 12 meses consecutivas.
// El porcentaje lo calcula el dominio (sales.GrowthPercent), no SQL.
type GrowthWindowResult struct {
	Key             string
	Label           string
	CurrentRevenue  decimal.Decimal // últimos 12 meses hasta la fecha de referencia
	PreviousRevenue decimal.Decimal // los 12 meses anteriores a esa ventana
}

// MaterialBuyerResult quién compró un material: desglose por cliente.
type MaterialBuyerResult struct {
	BillToPartyCode string
	BillToParty     string
	BilledQty       decimal.Decimal
	NetRevenue      decimal.Decimal
	LastPurchase    time.Time
}

// MaterialSalesResult metros vendidos por material desde una fecha (para cruces con stock).
type MaterialSalesResult struct {
	Material string
	QtySold  decimal.Decimal
}

// FabricAttributesResult valores únicos de los atributos de tela, en una sola pasada.
type FabricAttributesResult struct {
	LoomTypes      []string
	DyeTypes       []string
	StockTypes     []string
	ColourFamilies []string
	Patterns       []string
}

// InvoiceReadRepository consultas de solo lectura sobre líneas de factura.
// Las implementaciones nunca modifican datos.
type InvoiceReadRepository interface {
	// Search lista líneas que cumplen el filtro, más recientes primero.
	// limit/offset ya vienen saneados por el caller.
	Search(ctx context.Context, filter InvoiceFilter, limit, offset int) ([]*entity.InvoiceLine, error)

	// GetByBillingDocument devuelve todas las líneas de un documento.
	// Slice vacío si el documento no existe.
	GetByBillingDocument(ctx context.Context, billingDocument string) ([]*entity.InvoiceLine, error)

	// SalesTotals calcula el rollup de ventas del período filtrado.
	SalesTotals(ctx context.Context, filter InvoiceFilter) (*SalesTotalsResult, error)

	// SalesByDimension agrupa ingresos y metros por la dimensión dada,
	// ordenado por ingreso descendente, máximo topN filas.
	SalesByDimension(ctx context.Context, filter InvoiceFilter, dimension string, topN int) ([]DimensionSalesResult, error)

	// MonthlyTrend agrupa por mes calendario los últimos `months` meses.
	MonthlyTrend(ctx context.Context, filter InvoiceFilter, months int) ([]MonthlySalesResult, error)

	// GrowthWindows devuelve, por clave de la dimensión, los ingresos de los
	// últimos 12 meses y de los 12 anteriores, respecto a la fecha de referencia.
	GrowthWindows(ctx context.Context, dimension string, reference time.Time) ([]GrowthWindowResult, error)

	// MaterialBuyers desglosa qué clientes compraron un material.
	MaterialBuyers(ctx context.Context, material string, topN int) ([]MaterialBuyerResult, error)

	// DistinctValues lista los valores únicos no vacíos de una dimensión.
	DistinctValues(ctx context.Context, dimension string) ([]string, error)

	// FabricAttributes lista los valores únicos de atributos de tela.
	FabricAttributes(ctx context.Context) (*FabricAttributesResult, error)

	// QtySoldByMaterial suma metros vendidos por material desde la fecha dada.
	QtySoldByMaterial(ctx context.Context, since time.Time) ([]MaterialSalesResult, error)

	// TotalQtySold suma los metros vendidos desde la fecha dada.
	TotalQtySold(ctx context.Context, since time.Time) (decimal.Decimal, error)
}

// InvoiceWriteRepository escritura de la importación (única vía de escritura).
type InvoiceWriteRepository interface {
	// UpsertLines inserta o actualiza líneas por su clave natural
	// (billing_document, item). Devuelve cuántas filas procesó.
	UpsertLines(ctx context.Context, lines []*entity.InvoiceLine) (int, error)
}
