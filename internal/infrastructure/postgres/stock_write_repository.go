package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

var _ repository.StockWriteRepository = (*StockWriteRepo)(nil)

// StockWriteRepo escritura de existencias (solo la importación escribe).
type StockWriteRepo struct {
	q Querier
}

// NewStockWriteRepo construye el adaptador de escritura. Pasar pool o tx.
func NewStockWriteRepo(q Querier) *StockWriteRepo {
	return &StockWriteRepo{q: q}
}

const upsertStockItemSQL = `
INSERT INTO stock_items (
    material, stock_in_meters, basic_price, lead_time_days, replenishment_date,
    ainocular_design, ainocular_shade, loom_type, dye_type, stock_type,
    colour, pattern, end_use, gsm, repeats, composition, updated_at
) VALUES (
    $1, $2, $3, $4, $5,
    $6, $7, $8, $9, $10,
    $11, $12, $13, $14, $15, $16, now()
)
ON CONFLICT (material) DO UPDATE SET
    stock_in_meters     = EXCLUDED.stock_in_meters,
    basic_price         = EXCLUDED.basic_price,
    lead_time_days      = EXCLUDED.lead_time_days,
    replenishment_date  = EXCLUDED.replenishment_date,
    ainocular_design    = EXCLUDED.ainocular_design,
    ainocular_shade     = EXCLUDED.ainocular_shade,
    loom_type           = EXCLUDED.loom_type,
    dye_type            = EXCLUDED.dye_type,
    stock_type          = EXCLUDED.stock_type,
    colour              = EXCLUDED.colour,
    pattern             = EXCLUDED.pattern,
    end_use             = EXCLUDED.end_use,
    gsm                 = EXCLUDED.gsm,
    repeats             = EXCLUDED.repeats,
    composition         = EXCLUDED.composition,
    updated_at          = now()`

// UpsertItems inserta o actualiza existencias por material.
func (r *StockWriteRepo) UpsertItems(ctx context.Context, items []*entity.StockItem) (int, error) {
	processed := 0
	for _, it := range items {
		_, err := r.q.Exec(ctx, upsertStockItemSQL,
			it.Material, it.StockInMeters, it.BasicPrice, it.LeadTimeDays, it.ReplenishmentDate,
			it.AinocularDesign, it.AinocularShade, it.LoomType, it.DyeType, it.StockType,
			it.Colour, it.Pattern, it.EndUse, it.GSM, it.Repeats, it.Composition,
		)
		if err != nil {
			return processed, fmt.Errorf("postgres.UpsertItems (%s): %w", it.Material, err)
		}
		processed++
	}
	return processed, nil
}
