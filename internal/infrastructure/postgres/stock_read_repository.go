package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/inventory"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

// StockReadRepo implementa repository.StockReadRepository sobre PostgreSQL.
type StockReadRepo struct {
	q Querier
}

var _ repository.StockReadRepository = (*StockReadRepo)(nil)

// NewStockReadRepo crea el repositorio de lectura de existencias.
// Pasar pool o tx según el contexto.
func NewStockReadRepo(q Querier) *StockReadRepo {
	return &StockReadRepo{q: q}
}

const stockItemColumns = `
    material, stock_in_meters, basic_price, lead_time_days, replenishment_date,
    ainocular_design, ainocular_shade, loom_type, dye_type, stock_type,
    colour, pattern, end_use, gsm, repeats, composition, updated_at`

// stockFilterWhere aplica repository.StockFilter como guardas opcionales.
// Orden: $1 material, $2 diseño, $3 tono, $4 color, $5 telar, $6 teñido,
// $7 tipo de stock, $8 GSM mínimo, $9 GSM máximo.
const stockFilterWhere = `
      ($1 = '' OR material ILIKE '%' || $1 || '%')
  AND ($2 = '' OR ainocular_design = $2)
  AND ($3 = '' OR ainocular_shade = $3)
  AND ($4 = '' OR colour ILIKE '%' || $4 || '%')
  AND ($5 = '' OR loom_type = $5)
  AND ($6 = '' OR dye_type = $6)
  AND ($7 = '' OR stock_type = $7)
  AND ($8::numeric IS NULL OR gsm >= $8)
  AND ($9::numeric IS NULL OR gsm <= $9)`

func stockFilterArgs(f repository.StockFilter) []any {
	return []any{
		f.Material, f.Design, f.Shade, f.Colour,
		f.LoomType, f.DyeType, f.StockType,
		f.MinGSM, f.MaxGSM,
	}
}

const searchStockSQL = `
SELECT` + stockItemColumns + `
FROM stock_items
WHERE` + stockFilterWhere + `
ORDER BY stock_in_meters DESC, material ASC
LIMIT $10`

// Search lista materiales que cumplen el filtro, mayor existencia primero.
func (r *StockReadRepo) Search(ctx context.Context, f repository.StockFilter, limit int) ([]*entity.StockItem, error) {
	args := append(stockFilterArgs(f), limit)
	rows, err := r.q.Query(ctx, searchStockSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres.SearchStock: %w", err)
	}
	defer rows.Close()
	return collectStockItems(rows, "postgres.SearchStock")
}

const stockSummarySQL = `
SELECT COUNT(*)                                                      AS item_count,
       COALESCE(SUM(stock_in_meters), 0)                             AS total_meters,
       COALESCE(SUM(stock_in_meters * COALESCE(basic_price, 0)), 0)  AS total_value
FROM stock_items`

const stockByTypeSQL = `
SELECT stock_type,
       COUNT(*)                          AS item_count,
       COALESCE(SUM(stock_in_meters), 0) AS total_meters
FROM stock_items
WHERE stock_type <> ''
GROUP BY stock_type
ORDER BY total_meters DESC`

// Summary calcula el resumen global de bodega: totales y desglose por tipo de stock.
func (r *StockReadRepo) Summary(ctx context.Context) (*repository.StockSummaryResult, error) {
	var res repository.StockSummaryResult
	err := r.q.QueryRow(ctx, stockSummarySQL).Scan(&res.ItemCount, &res.TotalMeters, &res.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("postgres.StockSummary: %w", err)
	}

	rows, err := r.q.Query(ctx, stockByTypeSQL)
	if err != nil {
		return nil, fmt.Errorf("postgres.StockSummary tipos: %w", err)
	}
	defer rows.Close()

	res.ByStockType = []repository.StockTypeCount{}
	for rows.Next() {
		var tc repository.StockTypeCount
		if err := rows.Scan(&tc.StockType, &tc.ItemCount, &tc.TotalMeters); err != nil {
			return nil, fmt.Errorf("postgres.StockSummary scan: %w", err)
		}
		res.ByStockType = append(res.ByStockType, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.StockSummary rows: %w", err)
	}
	return &res, nil
}

const lowStockSQL = `
SELECT` + stockItemColumns + `
FROM stock_items
WHERE stock_in_meters > 0
  AND stock_in_meters < $1
ORDER BY stock_in_meters ASC
LIMIT $2`

// LowStock lista materiales con existencia positiva bajo el piso fijo,
// los más escasos primero.
func (r *StockReadRepo) LowStock(ctx context.Context, limit int) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, lowStockSQL, inventory.LowStockMaxMeters, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.LowStock: %w", err)
	}
	defer rows.Close()
	return collectStockItems(rows, "postgres.LowStock")
}

const outOfStockSQL = `
SELECT` + stockItemColumns + `
FROM stock_items
WHERE stock_in_meters <= 0
ORDER BY material ASC
LIMIT $1`

// OutOfStock lista materiales con existencia igual o menor que cero.
func (r *StockReadRepo) OutOfStock(ctx context.Context, limit int) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, outOfStockSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.OutOfStock: %w", err)
	}
	defer rows.Close()
	return collectStockItems(rows, "postgres.OutOfStock")
}

const replenishmentDueSQL = `
SELECT` + stockItemColumns + `
FROM stock_items
WHERE replenishment_date IS NOT NULL
  AND replenishment_date <= CURRENT_DATE + $1::int
ORDER BY replenishment_date ASC, material ASC
LIMIT $2`

// ReplenishmentDue lista materiales con reabastecimiento programado dentro del
// horizonte en días, el más próximo primero. Incluye fechas ya vencidas.
func (r *StockReadRepo) ReplenishmentDue(ctx context.Context, withinDays, limit int) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, replenishmentDueSQL, withinDays, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.ReplenishmentDue: %w", err)
	}
	defer rows.Close()
	return collectStockItems(rows, "postgres.ReplenishmentDue")
}

const stockAgingSQL = `
SELECT material,
       ainocular_design,
       stock_in_meters,
       (CURRENT_DATE - replenishment_date)::int AS days_since_repl
FROM stock_items
WHERE replenishment_date IS NOT NULL
  AND replenishment_date <= CURRENT_DATE
ORDER BY days_since_repl DESC, material ASC
LIMIT $1`

// Aging lista la antigüedad del stock, el más viejo primero.
// Materiales sin fecha de reabastecimiento quedan fuera: sin fecha no hay edad.
func (r *StockReadRepo) Aging(ctx context.Context, limit int) ([]repository.StockAgingResult, error) {
	rows, err := r.q.Query(ctx, stockAgingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres.StockAging: %w", err)
	}
	defer rows.Close()

	var results []repository.StockAgingResult
	for rows.Next() {
		var it repository.StockAgingResult
		if err := rows.Scan(&it.Material, &it.AinocularDesign, &it.StockInMeters, &it.DaysSinceRepl); err != nil {
			return nil, fmt.Errorf("postgres.StockAging scan: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.StockAging rows: %w", err)
	}
	if results == nil {
		results = []repository.StockAgingResult{}
	}
	return results, nil
}

const onHandByMaterialSQL = `
SELECT material,
       ainocular_design,
       stock_in_meters AS on_hand
FROM stock_items`

// OnHandByMaterial devuelve la existencia de todos los materiales, para
// cruzarla en memoria con las ventas.
func (r *StockReadRepo) OnHandByMaterial(ctx context.Context) ([]repository.MaterialOnHandResult, error) {
	rows, err := r.q.Query(ctx, onHandByMaterialSQL)
	if err != nil {
		return nil, fmt.Errorf("postgres.OnHandByMaterial: %w", err)
	}
	defer rows.Close()

	var results []repository.MaterialOnHandResult
	for rows.Next() {
		var it repository.MaterialOnHandResult
		if err := rows.Scan(&it.Material, &it.AinocularDesign, &it.OnHand); err != nil {
			return nil, fmt.Errorf("postgres.OnHandByMaterial scan: %w", err)
		}
		results = append(results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.OnHandByMaterial rows: %w", err)
	}
	if results == nil {
		results = []repository.MaterialOnHandResult{}
	}
	return results, nil
}

const totalOnHandSQL = `
SELECT COALESCE(SUM(stock_in_meters), 0) AS total_on_hand
FROM stock_items`

// TotalOnHand suma los metros en bodega sobre todas las filas, incluidas las
// de ajuste negativas: es el neto real, no la suma de positivos.
func (r *StockReadRepo) TotalOnHand(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, totalOnHandSQL).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("postgres.TotalOnHand: %w", err)
	}
	return total, nil
}

// collectStockItems agota rows con stockItemColumns en ese orden exacto.
func collectStockItems(rows pgx.Rows, op string) ([]*entity.StockItem, error) {
	var items []*entity.StockItem
	for rows.Next() {
		it := &entity.StockItem{}
		err := rows.Scan(
			&it.Material, &it.StockInMeters, &it.BasicPrice, &it.LeadTimeDays, &it.ReplenishmentDate,
			&it.AinocularDesign, &it.AinocularShade, &it.LoomType, &it.DyeType, &it.StockType,
			&it.Colour, &it.Pattern, &it.EndUse, &it.GSM, &it.Repeats, &it.Composition, &it.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	if items == nil {
		items = []*entity.StockItem{}
	}
	return items, nil
}
