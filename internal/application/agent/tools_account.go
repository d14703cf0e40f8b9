package agent

import (
	"context"
	"strings"

	"github.com/jhoicas/TelarIA-api/internal/application/dto"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
	"github.com/jhoicas/TelarIA-api/internal/domain/sales"
)

// Herramientas de cuenta propia. El código de cliente sale SIEMPRE de la
// identidad autenticada, jamás de los argumentos: el modelo no puede pedir
// datos de otro cliente por mucho que lo intente.

func registerAccountTools(c *Catalog, d Deps) {
	c.Register(myInvoicesTool(d))
	c.Register(myInvoiceDetailTool(d))
	c.Register(myInvoicePDFTool(d))
	c.Register(myPurchaseSummaryTool(d))
}

// requireParty aplica el cierre por defecto: identidad sin código de cliente
// no dispara ninguna lectura.
func requireParty(id Identity) (string, *ToolResult) {
	if id.BillToPartyCode == "" {
		res := Fail("your account has no customer code linked, so there are no invoices to show; " +
			"ask an administrator to link your account")
		return "", &res
	}
	return id.BillToPartyCode, nil
}

// ownedDocumentNotFound es el mismo mensaje para documento inexistente y
// documento ajeno: no se revela si una factura de otro cliente existe.
func ownedDocumentNotFound(doc string) ToolResult {
	return Failf("invoice %s not found in your account", doc)
}

func myInvoicesTool(d Deps) Tool {
	return Tool{
		Name: "get_my_invoices",
		Description: "List the authenticated customer's own invoices, newest first, with an optional date range. " +
			"Default 50 rows, maximum 200; use offset to page.",
		InputSchema: objectSchema(datePropsWith(map[string]any{
			"limit":  intProp("Rows to return. Default 50, maximum 200."),
			"offset": intProp("Rows to skip, for paging. Default 0."),
		}), nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			party, denied := requireParty(id)
			if denied != nil {
				return *denied, nil
			}
			from, to := dateRange(args)
			f := repository.InvoiceFilter{FromDate: from, ToDate: to, BillToPartyCode: party}
			limit := clampLimit(intArg(args, "limit", 0), defaultInvoiceLimit, maxInvoiceLimit)
			offset := intArg(args, "offset", 0)
			if offset < 0 {
				offset = 0
			}
			lines, err := d.Invoices.Search(ctx, f, limit, offset)
			if err != nil {
				return ToolResult{}, err
			}
			return OK(map[string]any{
				"count":    len(lines),
				"invoices": invoiceSummaries(lines),
			}), nil
		},
	}
}

func myInvoiceDetailTool(d Deps) Tool {
	return Tool{
		Name: "get_my_invoice_detail",
		Description: "Fetch one of the authenticated customer's own invoices by billing document number: " +
			"header, per-line fabric detail and amounts including GST and TCS.",
		InputSchema: objectSchema(map[string]any{
			"billing_document": strProp("Billing document number, e.g. 91234567."),
		}, []string{"billing_document"}),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			party, denied := requireParty(id)
			if denied != nil {
				return *denied, nil
			}
			doc := stringArg(args, "billing_document")
			if doc == "" {
				return Fail("missing required parameter: billing_document"), nil
			}
			lines, err := d.Invoices.GetByBillingDocument(ctx, doc)
			if err != nil {
				return ToolResult{}, err
			}
			// Recheck de propiedad a nivel de documento, después de traerlo.
			if len(lines) == 0 || lines[0].BillToPartyCode != party {
				return ownedDocumentNotFound(doc), nil
			}
			return OK(invoiceDetail(lines)), nil
		},
	}
}

func myInvoicePDFTool(d Deps) Tool {
	return Tool{
		Name: "get_my_invoice_pdf",
		Description: "Get the PDF download link for one of the authenticated customer's own invoices. " +
			"The link is returned as data; present it to the user as a download option.",
		InputSchema: objectSchema(map[string]any{
			"billing_document": strProp("Billing document number, e.g. 91234567."),
		}, []string{"billing_document"}),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			party, denied := requireParty(id)
			if denied != nil {
				return *denied, nil
			}
			doc := stringArg(args, "billing_document")
			if doc == "" {
				return Fail("missing required parameter: billing_document"), nil
			}
			lines, err := d.Invoices.GetByBillingDocument(ctx, doc)
			if err != nil {
				return ToolResult{}, err
			}
			if len(lines) == 0 || lines[0].BillToPartyCode != party {
				return ownedDocumentNotFound(doc), nil
			}
			link := dto.InvoiceLink{
				BillingDocument: doc,
				URL:             strings.TrimRight(d.PDFBaseURL, "/") + "/" + doc + ".pdf",
			}
			return OK(link), nil
		},
	}
}

func myPurchaseSummaryTool(d Deps) Tool {
	return Tool{
		Name: "get_my_purchase_summary",
		Description: "Summarize the authenticated customer's own purchases for an optional date range: total spend, " +
			"billed meters, invoice count and top purchased materials.",
		InputSchema: objectSchema(datePropsWith(nil), nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			party, denied := requireParty(id)
			if denied != nil {
				return *denied, nil
			}
			from, to := dateRange(args)
			f := repository.InvoiceFilter{FromDate: from, ToDate: to, BillToPartyCode: party}

			totals, err := d.Invoices.SalesTotals(ctx, f)
			if err != nil {
				return ToolResult{}, err
			}
			top, err := d.Invoices.SalesByDimension(ctx, f, repository.DimMaterial, 5)
			if err != nil {
				return ToolResult{}, err
			}
			materials := make([]dimensionRowView, 0, len(top))
			for _, row := range top {
				materials = append(materials, dimensionRowView{
					Key:          row.Key,
					Label:        row.Label,
					NetRevenue:   row.NetRevenue,
					BilledQty:    row.BilledQty,
					InvoiceCount: row.InvoiceCount,
					SharePercent: sales.SharePercent(row.NetRevenue, totals.NetRevenue),
				})
			}
			return OK(map[string]any{
				"totals":        totalsView(totals),
				"top_materials": materials,
			}), nil
		},
	}
}
