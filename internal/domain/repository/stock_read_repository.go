package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
)

// StockFilter filtros opcionales para búsqueda de existencias.
// String vacío / puntero nil = filtro ausente.
type StockFilter struct {
	Material  string
	Design    string // código de diseño Ainocular
	Shade     string
	Colour    string
	LoomType  string
	DyeType   string
	StockType string
	MinGSM    *decimal.Decimal
	MaxGSM    *decimal.Decimal
}

// StockTypeCount existencias agrupadas por tipo de stock.
type StockTypeCount struct {
	StockType   string
	ItemCount   int
	TotalMeters decimal.Decimal
}

// StockSummaryResult resumen global de bodega.
// TotalValue = Σ metros × precio básico, solo sobre materiales con precio.
type StockSummaryResult struct {
	ItemCount   int
	TotalMeters decimal.Decimal
	TotalValue  decimal.Decimal
	ByStockType []StockTypeCount
}

// StockAgingResult días transcurridos desde el último reabastecimiento.
// Solo incluye materiales con fecha conocida.
type StockAgingResult struct {
	Material        string
	AinocularDesign string
	StockInMeters   decimal.Decimal
	DaysSinceRepl   int
}

// MaterialOnHandResult existencia por material (para cruces con ventas).
type MaterialOnHandResult struct {
	Material        string
	AinocularDesign string
	OnHand          decimal.Decimal
}

// StockReadRepository consultas de solo lectura sobre existencias.
type StockReadRepository interface {
	// Search lista materiales que cumplen el filtro, mayor existencia primero.
	Search(ctx context.Context, filter StockFilter, limit int) ([]*entity.StockItem, error)

	// Summary calcula el resumen global de bodega.
	Summary(ctx context.Context) (*StockSummaryResult, error)

	// LowStock lista materiales con existencia positiva bajo el piso fijo de 100 m.
	LowStock(ctx context.Context, limit int) ([]*entity.StockItem, error)

	// OutOfStock lista materiales con existencia <= 0.
	OutOfStock(ctx context.Context, limit int) ([]*entity.StockItem, error)

	// ReplenishmentDue lista materiales con reabastecimiento programado dentro
	// del horizonte (días), el más próximo primero.
	ReplenishmentDue(ctx context.Context, withinDays, limit int) ([]*entity.StockItem, error)

	// Aging lista la antigüedad del stock, el más viejo primero.
	// Excluye materiales sin fecha de reabastecimiento.
	Aging(ctx context.Context, limit int) ([]StockAgingResult, error)

	// OnHandByMaterial devuelve la existencia de todos los materiales.
	OnHandByMaterial(ctx context.Context) ([]MaterialOnHandResult, error)

	// TotalOnHand suma los metros en bodega de todos los materiales.
	TotalOnHand(ctx context.Context) (decimal.Decimal, error)
}

// StockWriteRepository escritura de la importación.
type StockWriteRepository interface {
	// UpsertItems inserta o actualiza por material: importar dos veces el mismo
	// material actualiza en sitio, nunca duplica. Devuelve filas procesadas.
	UpsertItems(ctx context.Context, items []*entity.StockItem) (int, error)
}
