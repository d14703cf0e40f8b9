package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
	"github.com/jhoicas/TelarIA-api/internal/domain/sales"
)

// Herramientas de analítica de facturación, sin scoping por cliente. El
// prompt de sistema dirige a cada identidad: los clientes usan las
// herramientas de cuenta propia (tools_account.go).

func registerSalesTools(c *Catalog, d Deps) {
	c.Register(searchInvoicesTool(d))
	c.Register(invoiceDetailTool(d))
	c.Register(salesTotalsTool(d))
	c.Register(salesByDimensionTool(d, "get_sales_by_region", "sales regions", repository.DimRegion))
	c.Register(salesByDimensionTool(d, "get_sales_by_customer", "customers", repository.DimCustomer))
	c.Register(salesByDimensionTool(d, "get_sales_by_agent", "sales agents", repository.DimAgent))
	c.Register(salesByDimensionTool(d, "get_sales_by_design", "Ainocular designs", repository.DimDesign))
	c.Register(salesByDimensionTool(d, "get_sales_by_end_use", "end uses", repository.DimEndUse))
	c.Register(monthlyTrendTool(d))
	c.Register(growthTool(d, "get_region_growth", "sales region", repository.DimRegion))
	c.Register(growthTool(d, "get_customer_growth", "customer", repository.DimCustomer))
	c.Register(growthTool(d, "get_agent_growth", "sales agent", repository.DimAgent))
	c.Register(materialBreakdownTool(d))
	c.Register(listValuesTool(d, "list_regions", "sales regions", repository.DimRegion))
	c.Register(listValuesTool(d, "list_agents", "sales agents", repository.DimAgent))
	c.Register(listValuesTool(d, "list_end_uses", "end uses", repository.DimEndUse))
	c.Register(listValuesTool(d, "list_designs", "Ainocular design codes", repository.DimDesign))
	c.Register(fabricAttributesTool(d))
}

// Propiedades de fecha compartidas por casi todos los esquemas.
func datePropsWith(extra map[string]any) map[string]any {
	props := map[string]any{
		"fromDate": strProp("Start date, YYYY-MM-DD, inclusive. Omit for no lower bound."),
		"toDate":   strProp("End date, YYYY-MM-DD, inclusive. Omit for no upper bound."),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func searchInvoicesTool(d Deps) Tool {
	return Tool{
		Name: "search_invoices",
		Description: "Search invoice lines with optional filters: date range, customer name (partial match), " +
			"customer code, material, Ainocular design code, region, agent, end use. " +
			"Returns newest first. Default 50 rows, maximum 200; use offset to page.",
		InputSchema: objectSchema(datePropsWith(map[string]any{
			"customer":      strProp("Customer name, partial match, case-insensitive."),
			"customer_code": strProp("Exact bill-to-party code."),
			"material":      strProp("Exact material code."),
			"design":        strProp("Exact Ainocular design code."),
			"region":        strProp("Exact sales region."),
			"agent":         strProp("Exact sales agent."),
			"end_use":       strProp("Exact end use."),
			"limit":         intProp("Rows to return. Default 50, maximum 200."),
			"offset":        intProp("Rows to skip, for paging. Default 0."),
		}), nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			f := invoiceFilterFromArgs(args)
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

func invoiceDetailTool(d Deps) Tool {
	return Tool{
		Name: "get_invoice_detail",
		Description: "Fetch one invoice by billing document number: header, per-line fabric detail " +
			"(design, shade, loom, dye, width, GSM, composition) and amounts including GST and TCS.",
		InputSchema: objectSchema(map[string]any{
			"billing_document": strProp("Billing document number, e.g. 91234567."),
		}, []string{"billing_document"}),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			doc := stringArg(args, "billing_document")
			if doc == "" {
				return Fail("missing required parameter: billing_document"), nil
			}
			lines, err := d.Invoices.GetByBillingDocument(ctx, doc)
			if err != nil {
				return ToolResult{}, err
			}
			if len(lines) == 0 {
				return Failf("invoice %s not found", doc), nil
			}
			return OK(invoiceDetail(lines)), nil
		},
	}
}

func salesTotalsTool(d Deps) Tool {
	return Tool{
		Name: "get_sales_totals",
		Description: "Aggregate sales for a period with optional filters (region, agent, customer code, material, " +
			"design, end use): net revenue, billed meters, gross, GST, TCS, discount, invoice and customer counts.",
		InputSchema: objectSchema(datePropsWith(map[string]any{
			"customer_code": strProp("Exact bill-to-party code."),
			"material":      strProp("Exact material code."),
			"design":        strProp("Exact Ainocular design code."),
			"region":        strProp("Exact sales region."),
			"agent":         strProp("Exact sales agent."),
			"end_use":       strProp("Exact end use."),
		}), nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			totals, err := d.Invoices.SalesTotals(ctx, invoiceFilterFromArgs(args))
			if err != nil {
				return ToolResult{}, err
			}
			return OK(totalsView(totals)), nil
		},
	}
}

func salesByDimensionTool(d Deps, name, noun, dimension string) Tool {
	return Tool{
		Name: name,
		Description: fmt.Sprintf("Rank %s by net sales revenue for a period, with billed meters, invoice count "+
			"and share of the period's revenue. Default 10 rows, maximum 100.", noun),
		InputSchema: objectSchema(datePropsWith(map[string]any{
			"top_n": intProp("Rows to return. Default 10, maximum 100."),
		}), nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			from, to := dateRange(args)
			f := repository.InvoiceFilter{FromDate: from, ToDate: to}
			topN := clampLimit(intArg(args, "top_n", 0), defaultTopN, maxTopN)

			rows, err := d.Invoices.SalesByDimension(ctx, f, dimension, topN)
			if err != nil {
				return ToolResult{}, err
			}
			totals, err := d.Invoices.SalesTotals(ctx, f)
			if err != nil {
				return ToolResult{}, err
			}

			views := make([]dimensionRowView, 0, len(rows))
			for _, row := range rows {
				views = append(views, dimensionRowView{
					Key:          row.Key,
					Label:        row.Label,
					NetRevenue:   row.NetRevenue,
					BilledQty:    row.BilledQty,
					InvoiceCount: row.InvoiceCount,
					SharePercent: sales.SharePercent(row.NetRevenue, totals.NetRevenue),
				})
			}
			return OK(map[string]any{
				"period_net_revenue": totals.NetRevenue,
				"rows":               views,
			}), nil
		},
	}
}

func monthlyTrendTool(d Deps) Tool {
	return Tool{
		Name: "get_monthly_sales_trend",
		Description: "Month-by-month net revenue, billed meters and invoice count for the last N calendar months " +
			"(default 12, maximum 36), with optional filters. Months with no sales are omitted.",
		InputSchema: objectSchema(map[string]any{
			"months":        intProp("How many months back, counting the current one. Default 12, maximum 36."),
			"customer_code": strProp("Exact bill-to-party code."),
			"material":      strProp("Exact material code."),
			"design":        strProp("Exact Ainocular design code."),
			"region":        strProp("Exact sales region."),
			"agent":         strProp("Exact sales agent."),
			"end_use":       strProp("Exact end use."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			months := clampLimit(intArg(args, "months", 0), defaultTrendMonths, maxTrendMonths)
			rows, err := d.Invoices.MonthlyTrend(ctx, invoiceFilterFromArgs(args), months)
			if err != nil {
				return ToolResult{}, err
			}
			views := make([]monthRowView, 0, len(rows))
			for _, row := range rows {
				views = append(views, monthRowView{
					Month:        row.Month,
					NetRevenue:   row.NetRevenue,
					BilledQty:    row.BilledQty,
					InvoiceCount: row.InvoiceCount,
				})
			}
			return OK(map[string]any{"months": months, "rows": views}), nil
		},
	}
}

func growthTool(d Deps, name, noun, dimension string) Tool {
	return Tool{
		Name: name,
		Description: fmt.Sprintf("Year-over-year growth per %s: net revenue of the trailing 12 months versus the "+
			"12 months before, absolute change and growth percent, fastest-growing first. "+
			"Default 10 rows, maximum 100.", noun),
		InputSchema: objectSchema(map[string]any{
			"top_n": intProp("Rows to return, ordered by growth percent. Default 10, maximum 100."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			now := time.Now().UTC()
			reference := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			rows, err := d.Invoices.GrowthWindows(ctx, dimension, reference)
			if err != nil {
				return ToolResult{}, err
			}
			views := make([]growthRowView, 0, len(rows))
			for _, row := range rows {
				views = append(views, growthRowView{
					Key:             row.Key,
					Label:           row.Label,
					CurrentRevenue:  row.CurrentRevenue,
					PreviousRevenue: row.PreviousRevenue,
					Change:          row.CurrentRevenue.Sub(row.PreviousRevenue),
					GrowthPercent:   sales.GrowthPercent(row.PreviousRevenue, row.CurrentRevenue),
				})
			}
			// El recorte top_n va después de ordenar por crecimiento: un grupo
			// chico en ingresos puede ser el que más crece.
			sort.SliceStable(views, func(i, j int) bool {
				if !views[i].GrowthPercent.Equal(views[j].GrowthPercent) {
					return views[j].GrowthPercent.LessThan(views[i].GrowthPercent)
				}
				if !views[i].Change.Equal(views[j].Change) {
					return views[j].Change.LessThan(views[i].Change)
				}
				return views[i].Key < views[j].Key
			})
			topN := clampLimit(intArg(args, "top_n", 0), defaultTopN, maxTopN)
			if len(views) > topN {
				views = views[:topN]
			}
			return OK(map[string]any{"reference_date": fmtDate(reference), "rows": views}), nil
		},
	}
}

func materialBreakdownTool(d Deps) Tool {
	return Tool{
		Name: "get_material_purchase_breakdown",
		Description: "Which customers bought a material: billed meters, net revenue and last purchase date per " +
			"customer, biggest buyers first. Default 10 rows, maximum 100.",
		InputSchema: objectSchema(map[string]any{
			"material": strProp("Exact material code."),
			"top_n":    intProp("Rows to return. Default 10, maximum 100."),
		}, []string{"material"}),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			material := stringArg(args, "material")
			if material == "" {
				return Fail("missing required parameter: material"), nil
			}
			topN := clampLimit(intArg(args, "top_n", 0), defaultTopN, maxTopN)
			rows, err := d.Invoices.MaterialBuyers(ctx, material, topN)
			if err != nil {
				return ToolResult{}, err
			}
			if len(rows) == 0 {
				return Failf("no sales found for material %s", material), nil
			}
			views := make([]buyerRowView, 0, len(rows))
			for _, row := range rows {
				views = append(views, buyerRowView{
					CustomerCode: row.BillToPartyCode,
					Customer:     row.BillToParty,
					BilledQty:    row.BilledQty,
					NetRevenue:   row.NetRevenue,
					LastPurchase: fmtDate(row.LastPurchase),
				})
			}
			return OK(map[string]any{"material": material, "buyers": views}), nil
		},
	}
}

func listValuesTool(d Deps, name, noun, dimension string) Tool {
	return Tool{
		Name:        name,
		Description: fmt.Sprintf("List the distinct %s present in the invoice data, alphabetically.", noun),
		InputSchema: objectSchema(map[string]any{}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			values, err := d.Invoices.DistinctValues(ctx, dimension)
			if err != nil {
				return ToolResult{}, err
			}
			return OK(map[string]any{"count": len(values), "values": values}), nil
		},
	}
}

func fabricAttributesTool(d Deps) Tool {
	return Tool{
		Name: "list_fabric_attributes",
		Description: "List the distinct fabric attribute values in the invoice data: loom types, dye types, " +
			"stock types, colour families and patterns, in one call.",
		InputSchema: objectSchema(map[string]any{}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			fa, err := d.Invoices.FabricAttributes(ctx)
			if err != nil {
				return ToolResult{}, err
			}
			return OK(map[string]any{
				"loom_types":      fa.LoomTypes,
				"dye_types":       fa.DyeTypes,
				"stock_types":     fa.StockTypes,
				"colour_families": fa.ColourFamilies,
				"patterns":        fa.Patterns,
			}), nil
		},
	}
}
