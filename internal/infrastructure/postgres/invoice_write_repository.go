package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

var _ repository.InvoiceWriteRepository = (*InvoiceWriteRepo)(nil)

// InvoiceWriteRepo escritura de líneas de factura (solo la importación escribe).
type InvoiceWriteRepo struct {
	q Querier
}

// NewInvoiceWriteRepo construye el adaptador de escritura. Pasar pool o tx.
func NewInvoiceWriteRepo(q Querier) *InvoiceWriteRepo {
	return &InvoiceWriteRepo{q: q}
}

const upsertInvoiceLineSQL = `
INSERT INTO invoice_lines (
    sales_org, billing_document, item, fiscal_year, document_type, invoice_date,
    bill_to_party, bill_to_party_code, bill_to_city,
    material, ainocular_design, ainocular_design_desc, ainocular_shade, ainocular_shade_desc,
    loom_type, dye_type, stock_type, width_inches, gsm, repeats, composition,
    basic_price, billed_qty, net_amount, gross_amount, discount_amount, taxable_amount, gst_amount, tcs_amount,
    region, agent, broker, end_use, pattern, colour_family
) VALUES (
    $1, $2, $3, $4, $5, $6,
    $7, $8, $9,
    $10, $11, $12, $13, $14,
    $15, $16, $17, $18, $19, $20, $21,
    $22, $23, $24, $25, $26, $27, $28, $29,
    $30, $31, $32, $33, $34, $35
)
ON CONFLICT (billing_document, item) DO UPDATE SET
    sales_org             = EXCLUDED.sales_org,
    fiscal_year           = EXCLUDED.fiscal_year,
    document_type         = EXCLUDED.document_type,
    invoice_date          = EXCLUDED.invoice_date,
    bill_to_party         = EXCLUDED.bill_to_party,
    bill_to_party_code    = EXCLUDED.bill_to_party_code,
    bill_to_city          = EXCLUDED.bill_to_city,
    material              = EXCLUDED.material,
    ainocular_design      = EXCLUDED.ainocular_design,
    ainocular_design_desc = EXCLUDED.ainocular_design_desc,
    ainocular_shade       = EXCLUDED.ainocular_shade,
    ainocular_shade_desc  = EXCLUDED.ainocular_shade_desc,
    loom_type             = EXCLUDED.loom_type,
    dye_type              = EXCLUDED.dye_type,
    stock_type            = EXCLUDED.stock_type,
    width_inches          = EXCLUDED.width_inches,
    gsm                   = EXCLUDED.gsm,
    repeats               = EXCLUDED.repeats,
    composition           = EXCLUDED.composition,
    basic_price           = EXCLUDED.basic_price,
    billed_qty            = EXCLUDED.billed_qty,
    net_amount            = EXCLUDED.net_amount,
    gross_amount          = EXCLUDED.gross_amount,
    discount_amount       = EXCLUDED.discount_amount,
    taxable_amount        = EXCLUDED.taxable_amount,
    gst_amount            = EXCLUDED.gst_amount,
    tcs_amount            = EXCLUDED.tcs_amount,
    region                = EXCLUDED.region,
    agent                 = EXCLUDED.agent,
    broker                = EXCLUDED.broker,
    end_use               = EXCLUDED.end_use,
    pattern               = EXCLUDED.pattern,
    colour_family         = EXCLUDED.colour_family`

// UpsertLines inserta o actualiza líneas por (billing_document, item).
// Reimportar el mismo archivo actualiza en sitio, nunca duplica.
func (r *InvoiceWriteRepo) UpsertLines(ctx context.Context, lines []*entity.InvoiceLine) (int, error) {
	processed := 0
	for _, l := range lines {
		_, err := r.q.Exec(ctx, upsertInvoiceLineSQL,
			l.SalesOrg, l.BillingDocument, l.Item, l.FiscalYear, l.DocumentType, l.InvoiceDate,
			l.BillToParty, l.BillToPartyCode, l.BillToCity,
			l.Material, l.AinocularDesign, l.AinocularDesignDesc, l.AinocularShade, l.AinocularShadeDesc,
			l.LoomType, l.DyeType, l.StockType, l.WidthInches, l.GSM, l.Repeats, l.Composition,
			l.BasicPrice, l.BilledQty, l.NetAmount, l.GrossAmount, l.DiscountAmount, l.TaxableAmount, l.GSTAmount, l.TCSAmount,
			l.Region, l.Agent, l.Broker, l.EndUse, l.Pattern, l.ColourFamily,
		)
		if err != nil {
			return processed, fmt.Errorf("postgres.UpsertLines (%s/%s): %w", l.BillingDocument, l.Item, err)
		}
		processed++
	}
	return processed, nil
}
