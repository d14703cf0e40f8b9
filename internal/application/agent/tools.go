package agent

import (
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

// Límites de los listados. Pedidos por encima del tope se recortan en
// silencio; no positivos toman el default.
const (
	defaultInvoiceLimit = 50
	maxInvoiceLimit     = 200
	defaultTopN         = 10
	maxTopN             = 100
	defaultStockLimit   = 20
	maxStockLimit       = 50
	defaultTrendMonths  = 12
	maxTrendMonths      = 36
)

// Deps son las dependencias compartidas por todas las herramientas.
type Deps struct {
	Invoices     repository.InvoiceReadRepository
	Stock        repository.StockReadRepository
	PDFBaseURL   string // base de los enlaces de descarga de facturas
	ExcessMonths int    // umbral de cobertura para marcar exceso de stock
}

// BuildCatalog registra el catálogo completo: analítica de ventas (admin),
// cuenta propia (cualquier identidad) y existencias (admin).
func BuildCatalog(d Deps) *Catalog {
	c := NewCatalog()
	registerSalesTools(c, d)
	registerAccountTools(c, d)
	registerStockTools(c, d)
	return c
}

// invoiceFilterFromArgs arma el filtro de facturación desde los argumentos
// de la herramienta. Claves ausentes quedan como filtro ausente.
func invoiceFilterFromArgs(args map[string]any) repository.InvoiceFilter {
	from, to := dateRange(args)
	return repository.InvoiceFilter{
		FromDate:        from,
		ToDate:          to,
		BillToPartyCode: stringArg(args, "customer_code"),
		BillToParty:     stringArg(args, "customer"),
		Material:        stringArg(args, "material"),
		Design:          stringArg(args, "design"),
		Region:          stringArg(args, "region"),
		Agent:           stringArg(args, "agent"),
		EndUse:          stringArg(args, "end_use"),
	}
}
