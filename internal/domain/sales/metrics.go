package sales

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// GrowthPercent calcula el crecimiento porcentual entre dos ventanas:
// (actual - anterior) / anterior * 100, redondeado a 2 decimales.
// Con base cero no hay división: 100% si hubo venta nueva, 0% si tampoco la hay.
func GrowthPercent(previous, current decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsPositive() {
			return hundred
		}
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
}

// SharePercent calcula la participación de una parte sobre el total (0 si el total no es positivo).
func SharePercent(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred).Round(2)
}

// StockTurn calcula la rotación anual: metros vendidos en 12 meses / existencia total.
// Devuelve (0, false) cuando no hay existencia: sin denominador no hay ratio.
func StockTurn(qtySold12m, totalOnHand decimal.Decimal) (ratio decimal.Decimal, ok bool) {
	if !totalOnHand.IsPositive() {
		return decimal.Zero, false
	}
	return qtySold12m.Div(totalOnHand).Round(2), true
}
