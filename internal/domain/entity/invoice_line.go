package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceLine representa una línea de factura de venta de tela.
// Clave natural: (BillingDocument, Item). La fuente es el export del ERP del
// distribuidor; este sistema solo la lee (la escritura ocurre en la importación).
//
// Los montos comerciales son NullDecimal porque el export trae celdas vacías
// con frecuencia; las agregaciones aplican COALESCE en SQL.
type InvoiceLine struct {
	// Identidad del documento
	SalesOrg        string
	BillingDocument string
	Item            string
	FiscalYear      string
	DocumentType    string
	InvoiceDate     time.Time

	// Cliente
	BillToParty     string // razón social / nombre a mostrar
	BillToPartyCode string // clave de scoping del asistente
	BillToCity      string

	// Producto
	Material            string
	AinocularDesign     string // código de diseño interno
	AinocularDesignDesc string
	AinocularShade      string // código de tono/color interno
	AinocularShadeDesc  string

	// Atributos de la tela
	LoomType    string // tipo de telar (p. ej. airjet, sulzer)
	DyeType     string // teñido (yarn dyed, piece dyed)
	StockType   string
	WidthInches decimal.NullDecimal
	GSM         decimal.NullDecimal // gramaje (g/m²)
	Repeats     string
	Composition string

	// Montos comerciales
	BasicPrice     decimal.NullDecimal
	BilledQty      decimal.NullDecimal // metros facturados
	NetAmount      decimal.NullDecimal
	GrossAmount    decimal.NullDecimal
	DiscountAmount decimal.NullDecimal
	TaxableAmount  decimal.NullDecimal
	GSTAmount      decimal.NullDecimal
	TCSAmount      decimal.NullDecimal

	// Clasificación comercial
	Region       string // zona de venta
	Agent        string
	Broker       string
	EndUse       string // uso final (shirting, suiting, home furnishing…)
	Pattern      string
	ColourFamily string

	CreatedAt time.Time
}
