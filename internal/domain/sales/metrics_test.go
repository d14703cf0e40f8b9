package sales_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/TelarIA-api/internal/domain/sales"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestGrowthPercent(t *testing.T) {
	cases := []struct {
		name string
		prev string
		cur  string
		want string
	}{
		{"crecimiento simple", "100", "150", "50"},
		{"caída: 200 a 150", "200", "150", "-25"},
		{"base cero con venta nueva", "0", "5000", "100"},
		{"base cero sin venta", "0", "0", "0"},
		{"redondeo a dos decimales", "300", "400", "33.33"},
		{"caída total", "80", "0", "-100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := sales.GrowthPercent(dec(tc.prev), dec(tc.cur))
			assert.True(t, got.Equal(dec(tc.want)), "esperado %s, obtuve %s", tc.want, got)
		})
	}
}

func TestSharePercent(t *testing.T) {
	got := sales.SharePercent(dec("25"), dec("200"))
	assert.True(t, got.Equal(dec("12.5")))

	assert.True(t, sales.SharePercent(dec("25"), decimal.Zero).IsZero(),
		"total cero no debe dividir")
}

func TestStockTurn(t *testing.T) {
	ratio, ok := sales.StockTurn(dec("24000"), dec("8000"))
	assert.True(t, ok)
	assert.True(t, ratio.Equal(dec("3")), "24000 vendidos / 8000 en mano = 3 vueltas, obtuve %s", ratio)

	_, ok = sales.StockTurn(dec("24000"), decimal.Zero)
	assert.False(t, ok, "sin existencia no hay ratio que calcular")
}
