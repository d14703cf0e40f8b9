package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem representa la existencia actual de un material (tela) en bodega.
// Material es único: la importación hace upsert por material, nunca duplica.
type StockItem struct {
	Material      string
	StockInMeters decimal.Decimal
	BasicPrice    decimal.NullDecimal
	LeadTimeDays  *int
	// ReplenishmentDate es la fecha del último reabastecimiento. Puede ser nil
	// (material sin historial); el reporte de antigüedad excluye esos casos.
	ReplenishmentDate *time.Time

	// Atributos del material
	AinocularDesign string
	AinocularShade  string
	LoomType        string
	DyeType         string
	StockType       string
	Colour          string
	Pattern         string
	EndUse          string
	GSM             decimal.NullDecimal
	Repeats         string
	Composition     string

	UpdatedAt time.Time
}
