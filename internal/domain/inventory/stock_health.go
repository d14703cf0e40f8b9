package inventory

import "github.com/shopspring/decimal"

// Clasificaciones de salud de stock de un material.
const (
	HealthOutOfStock     = "out_of_stock"      // existencia <= 0
	HealthLikelyStockOut = "likely_stock_out"  // existencia menor a un mes de venta
	HealthLowStock       = "low_stock"         // existencia positiva por debajo del piso fijo
	HealthExcessStock    = "excess_stock"      // cobertura >= umbral de meses
	HealthOK             = "ok"
)

// LowStockMaxMeters es el piso fijo de "stock bajo": existencia positiva
// por debajo de 100 metros. Umbral de negocio acordado con el distribuidor;
// no es configurable.
var LowStockMaxMeters = decimal.NewFromInt(100)

// MonthlyVelocity calcula la velocidad de venta mensual: metros vendidos en la
// ventana dividido por la cantidad de meses. Con months <= 0 devuelve cero.
func MonthlyVelocity(qtySold decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	return qtySold.Div(decimal.NewFromInt(int64(months)))
}

// Coverage devuelve los meses de cobertura (existencia / velocidad mensual).
// Si la velocidad es cero con existencia positiva la cobertura es infinita:
// el material no rota, así que devuelve (0, true) y el caller lo marca aparte.
func Coverage(onHand, velocity decimal.Decimal) (months decimal.Decimal, infinite bool) {
	if velocity.IsZero() || velocity.IsNegative() {
		if onHand.IsPositive() {
			return decimal.Zero, true
		}
		return decimal.Zero, false
	}
	return onHand.Div(velocity).Round(2), false
}

// Classify asigna la clasificación de salud según existencia y velocidad mensual.
// Precedencia: agotado > quiebre probable > stock bajo > ok. El quiebre probable
// le gana al stock bajo porque es la condición más urgente cuando ambas aplican.
func Classify(onHand, velocity decimal.Decimal) string {
	if onHand.LessThanOrEqual(decimal.Zero) {
		return HealthOutOfStock
	}
	if velocity.IsPositive() && onHand.LessThan(velocity) {
		return HealthLikelyStockOut
	}
	if onHand.LessThan(LowStockMaxMeters) {
		return HealthLowStock
	}
	return HealthOK
}

// HighSalesZeroStock indica el caso crítico para compras: sin existencia pero
// con ventas en la ventana reciente. Se reporta junto a out_of_stock.
func HighSalesZeroStock(onHand, qtySoldWindow decimal.Decimal) bool {
	return onHand.LessThanOrEqual(decimal.Zero) && qtySoldWindow.IsPositive()
}

// IsExcess indica sobre-stock: cobertura (en meses) mayor o igual al umbral.
// Materiales con cobertura infinita (sin rotación) se evalúan aparte con Coverage.
func IsExcess(coverageMonths decimal.Decimal, thresholdMonths int) bool {
	if thresholdMonths <= 0 {
		return false
	}
	return coverageMonths.GreaterThanOrEqual(decimal.NewFromInt(int64(thresholdMonths)))
}
