package agent

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/TelarIA-api/internal/domain/inventory"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
	"github.com/jhoicas/TelarIA-api/internal/domain/sales"
)

// Herramientas de existencias y cruces stock × ventas.

func registerStockTools(c *Catalog, d Deps) {
	c.Register(searchStockTool(d))
	c.Register(stockSummaryTool(d))
	c.Register(lowStockTool(d))
	c.Register(outOfStockTool(d))
	c.Register(replenishmentTool(d))
	c.Register(stockAgingTool(d))
	c.Register(stockVsSalesTool(d))
	c.Register(excessStockTool(d))
	c.Register(stockTurnTool(d))
}

func searchStockTool(d Deps) Tool {
	return Tool{
		Name: "search_stock",
		Description: "Search warehouse stock with optional filters: material (partial), design code, shade, colour " +
			"(partial), loom type, dye type, stock type, GSM range. Largest stock first. Default 20 rows, maximum 50.",
		InputSchema: objectSchema(map[string]any{
			"material":   strProp("Material code, partial match."),
			"design":     strProp("Exact Ainocular design code."),
			"shade":      strProp("Exact Ainocular shade code."),
			"colour":     strProp("Colour, partial match."),
			"loom_type":  strProp("Exact loom type."),
			"dye_type":   strProp("Exact dye type."),
			"stock_type": strProp("Exact stock type."),
			"min_gsm":    numProp("Minimum GSM, inclusive."),
			"max_gsm":    numProp("Maximum GSM, inclusive."),
			"limit":      intProp("Rows to return. Default 20, maximum 50."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			f := repository.StockFilter{
				Material:  stringArg(args, "material"),
				Design:    stringArg(args, "design"),
				Shade:     stringArg(args, "shade"),
				Colour:    stringArg(args, "colour"),
				LoomType:  stringArg(args, "loom_type"),
				DyeType:   stringArg(args, "dye_type"),
				StockType: stringArg(args, "stock_type"),
				MinGSM:    decimalArg(args, "min_gsm"),
				MaxGSM:    decimalArg(args, "max_gsm"),
			}
			limit := clampLimit(intArg(args, "limit", 0), defaultStockLimit, maxStockLimit)
			items, err := d.Stock.Search(ctx, f, limit)
			if err != nil {
				return ToolResult{}, err
			}
			return OK(map[string]any{"count": len(items), "items": stockItemViews(items)}), nil
		},
	}
}

func stockSummaryTool(d Deps) Tool {
	return Tool{
		Name: "get_stock_summary",
		Description: "Warehouse totals: distinct materials, total meters on hand, stock value at basic price, " +
			"and a breakdown by stock type.",
		InputSchema: objectSchema(map[string]any{}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			s, err := d.Stock.Summary(ctx)
			if err != nil {
				return ToolResult{}, err
			}
			byType := make([]map[string]any, 0, len(s.ByStockType))
			for _, tc := range s.ByStockType {
				byType = append(byType, map[string]any{
					"stock_type":   tc.StockType,
					"item_count":   tc.ItemCount,
					"total_meters": tc.TotalMeters,
				})
			}
			return OK(map[string]any{
				"item_count":    s.ItemCount,
				"total_meters":  s.TotalMeters,
				"total_value":   s.TotalValue,
				"by_stock_type": byType,
			}), nil
		},
	}
}

func lowStockTool(d Deps) Tool {
	return Tool{
		Name: "get_low_stock",
		Description: "Materials with positive stock under the 100-meter low-stock floor, scarcest first. " +
			"Default 20 rows, maximum 50.",
		InputSchema: objectSchema(map[string]any{
			"limit": intProp("Rows to return. Default 20, maximum 50."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			limit := clampLimit(intArg(args, "limit", 0), defaultStockLimit, maxStockLimit)
			items, err := d.Stock.LowStock(ctx, limit)
			if err != nil {
				return ToolResult{}, err
			}
			return OK(map[string]any{"count": len(items), "items": stockItemViews(items)}), nil
		},
	}
}

func outOfStockTool(d Deps) Tool {
	return Tool{
		Name:        "get_out_of_stock",
		Description: "Materials with zero or negative stock. Default 20 rows, maximum 50.",
		InputSchema: objectSchema(map[string]any{
			"limit": intProp("Rows to return. Default 20, maximum 50."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			limit := clampLimit(intArg(args, "limit", 0), defaultStockLimit, maxStockLimit)
			items, err := d.Stock.OutOfStock(ctx, limit)
			if err != nil {
				return ToolResult{}, err
			}
			return OK(map[string]any{"count": len(items), "items": stockItemViews(items)}), nil
		},
	}
}

func replenishmentTool(d Deps) Tool {
	return Tool{
		Name: "get_replenishment_schedule",
		Description: "Materials whose scheduled replenishment date falls within a horizon (including overdue dates), " +
			"soonest first. Default horizon 30 days, maximum 365. Default 20 rows, maximum 50.",
		InputSchema: objectSchema(map[string]any{
			"within_days": intProp("Horizon in days from today. Default 30, maximum 365."),
			"limit":       intProp("Rows to return. Default 20, maximum 50."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			withinDays := clampLimit(intArg(args, "within_days", 0), 30, 365)
			limit := clampLimit(intArg(args, "limit", 0), defaultStockLimit, maxStockLimit)
			items, err := d.Stock.ReplenishmentDue(ctx, withinDays, limit)
			if err != nil {
				return ToolResult{}, err
			}
			return OK(map[string]any{
				"within_days": withinDays,
				"count":       len(items),
				"items":       stockItemViews(items),
			}), nil
		},
	}
}

func stockAgingTool(d Deps) Tool {
	return Tool{
		Name: "get_stock_aging",
		Description: "Days since last replenishment per material, oldest first. Materials without a replenishment " +
			"date are excluded. Default 20 rows, maximum 50.",
		InputSchema: objectSchema(map[string]any{
			"limit": intProp("Rows to return. Default 20, maximum 50."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			limit := clampLimit(intArg(args, "limit", 0), defaultStockLimit, maxStockLimit)
			rows, err := d.Stock.Aging(ctx, limit)
			if err != nil {
				return ToolResult{}, err
			}
			views := make([]agingRowView, 0, len(rows))
			for _, row := range rows {
				views = append(views, agingRowView{
					Material:      row.Material,
					Design:        row.AinocularDesign,
					StockInMeters: row.StockInMeters,
					DaysSinceRepl: row.DaysSinceRepl,
				})
			}
			return OK(map[string]any{"count": len(views), "items": views}), nil
		},
	}
}

// fetchSalesAndStock trae en paralelo los metros vendidos por material desde
// `since` y la existencia completa, al estilo de las lecturas independientes
// del resto de la app.
func fetchSalesAndStock(ctx context.Context, d Deps, since time.Time) (map[string]decimal.Decimal, []repository.MaterialOnHandResult, error) {
	type salesRes struct {
		rows []repository.MaterialSalesResult
		err  error
	}
	salesCh := make(chan salesRes, 1)
	go func() {
		rows, err := d.Invoices.QtySoldByMaterial(ctx, since)
		salesCh <- salesRes{rows: rows, err: err}
	}()

	stock, stockErr := d.Stock.OnHandByMaterial(ctx)
	sr := <-salesCh
	if stockErr != nil {
		return nil, nil, stockErr
	}
	if sr.err != nil {
		return nil, nil, sr.err
	}

	sold := make(map[string]decimal.Decimal, len(sr.rows))
	for _, row := range sr.rows {
		sold[row.Material] = row.QtySold
	}
	return sold, stock, nil
}

func monthsAgo(months int) time.Time {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, -months, 0)
}

// coverageStr presenta la cobertura como string decimal; nil cuando es
// infinita (el flag booleano la acompaña).
func coverageStr(cov decimal.Decimal, infinite bool) *string {
	if infinite {
		return nil
	}
	s := cov.String()
	return &s
}

func stockVsSalesTool(d Deps) Tool {
	return Tool{
		Name: "get_stock_vs_sales",
		Description: "Cross warehouse stock against recent sales per material: monthly sales velocity, months of " +
			"coverage and a health classification (out_of_stock, likely_stock_out, low_stock, ok). Materials that " +
			"sold recently but have no stock are flagged high_sales_zero_stock. Worst cases first. " +
			"Default window 3 months; default 20 rows, maximum 100.",
		InputSchema: objectSchema(map[string]any{
			"months": intProp("Sales window in months. Default 3, maximum 12."),
			"top_n":  intProp("Rows to return. Default 20, maximum 100."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			months := clampLimit(intArg(args, "months", 0), 3, 12)
			topN := clampLimit(intArg(args, "top_n", 0), 20, maxTopN)

			sold, stock, err := fetchSalesAndStock(ctx, d, monthsAgo(months))
			if err != nil {
				return ToolResult{}, err
			}

			rows := make([]stockHealthRowView, 0, len(stock))
			inStock := make(map[string]bool, len(stock))
			for _, st := range stock {
				inStock[st.Material] = true
				rows = append(rows, healthRow(st.Material, st.AinocularDesign, st.OnHand, sold[st.Material], months))
			}
			// Vendido en la ventana pero sin fila de stock: existencia cero.
			for material, qty := range sold {
				if !inStock[material] {
					rows = append(rows, healthRow(material, "", decimal.Zero, qty, months))
				}
			}

			sortHealthRows(rows)
			counts := map[string]int{}
			for _, row := range rows {
				counts[row.Classification]++
			}
			if len(rows) > topN {
				rows = rows[:topN]
			}
			return OK(map[string]any{
				"window_months":            months,
				"counts_by_classification": counts,
				"rows":                     rows,
			}), nil
		},
	}
}

func healthRow(material, design string, onHand, qtySold decimal.Decimal, months int) stockHealthRowView {
	velocity := inventory.MonthlyVelocity(qtySold, months)
	cov, infinite := inventory.Coverage(onHand, velocity)
	return stockHealthRowView{
		Material:         material,
		Design:           design,
		OnHandMeters:     onHand,
		QtySoldWindow:    qtySold,
		MonthlyVelocity:  velocity.Round(2),
		CoverageMonths:   coverageStr(cov, infinite),
		InfiniteCoverage: infinite,
		Classification:   inventory.Classify(onHand, velocity),
		HighSalesNoStock: inventory.HighSalesZeroStock(onHand, qtySold),
		covSort:          cov,
	}
}

// sortHealthRows ordena por severidad y, dentro de cada clase, por cobertura
// ascendente (lo más urgente primero). Cobertura infinita va al final de su clase.
func sortHealthRows(rows []stockHealthRowView) {
	rank := map[string]int{
		inventory.HealthOutOfStock:     0,
		inventory.HealthLikelyStockOut: 1,
		inventory.HealthLowStock:       2,
		inventory.HealthOK:             3,
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank[rows[i].Classification], rank[rows[j].Classification]
		if ri != rj {
			return ri < rj
		}
		if rows[i].InfiniteCoverage != rows[j].InfiniteCoverage {
			return rows[j].InfiniteCoverage // la finita va antes que la infinita
		}
		if !rows[i].covSort.Equal(rows[j].covSort) {
			return rows[i].covSort.LessThan(rows[j].covSort)
		}
		return rows[i].Material < rows[j].Material
	})
}

func excessStockTool(d Deps) Tool {
	return Tool{
		Name: "get_excess_stock",
		Description: "Materials whose stock covers too many months of sales, measured over a 6-month window. " +
			"Materials with stock but no sales at all are included and flagged no_recent_sales. Most excess first. " +
			"Default 20 rows, maximum 100.",
		InputSchema: objectSchema(map[string]any{
			"threshold_months": intProp("Coverage threshold in months to call stock excess. Defaults to the configured value."),
			"top_n":            intProp("Rows to return. Default 20, maximum 100."),
		}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			const windowMonths = 6
			threshold := clampLimit(intArg(args, "threshold_months", 0), d.ExcessMonths, 24)
			topN := clampLimit(intArg(args, "top_n", 0), 20, maxTopN)

			sold, stock, err := fetchSalesAndStock(ctx, d, monthsAgo(windowMonths))
			if err != nil {
				return ToolResult{}, err
			}

			var rows []excessRowView
			for _, st := range stock {
				if !st.OnHand.IsPositive() {
					continue
				}
				qty := sold[st.Material]
				velocity := inventory.MonthlyVelocity(qty, windowMonths)
				cov, infinite := inventory.Coverage(st.OnHand, velocity)
				if !infinite && !inventory.IsExcess(cov, threshold) {
					continue
				}
				rows = append(rows, excessRowView{
					Material:        st.Material,
					Design:          st.AinocularDesign,
					OnHandMeters:    st.OnHand,
					QtySoldWindow:   qty,
					MonthlyVelocity: velocity.Round(2),
					CoverageMonths:  coverageStr(cov, infinite),
					NoRecentSales:   infinite,
					covSort:         cov,
				})
			}

			// Sin rotación primero (el exceso más severo), luego cobertura descendente.
			sort.SliceStable(rows, func(i, j int) bool {
				if rows[i].NoRecentSales != rows[j].NoRecentSales {
					return rows[i].NoRecentSales
				}
				if !rows[i].covSort.Equal(rows[j].covSort) {
					return rows[j].covSort.LessThan(rows[i].covSort)
				}
				return rows[i].OnHandMeters.GreaterThan(rows[j].OnHandMeters)
			})
			if len(rows) > topN {
				rows = rows[:topN]
			}
			if rows == nil {
				rows = []excessRowView{}
			}
			return OK(map[string]any{
				"window_months":    windowMonths,
				"threshold_months": threshold,
				"rows":             rows,
			}), nil
		},
	}
}

func stockTurnTool(d Deps) Tool {
	return Tool{
		Name: "get_stock_turn_ratio",
		Description: "Overall stock turn: meters sold in the last 12 months divided by total meters on hand. " +
			"Higher means stock rotates faster.",
		InputSchema: objectSchema(map[string]any{}, nil),
		Handler: func(ctx context.Context, id Identity, args map[string]any) (ToolResult, error) {
			type qtyRes struct {
				qty decimal.Decimal
				err error
			}
			soldCh := make(chan qtyRes, 1)
			go func() {
				qty, err := d.Invoices.TotalQtySold(ctx, monthsAgo(12))
				soldCh <- qtyRes{qty: qty, err: err}
			}()
			onHand, stockErr := d.Stock.TotalOnHand(ctx)
			sr := <-soldCh
			if stockErr != nil {
				return ToolResult{}, stockErr
			}
			if sr.err != nil {
				return ToolResult{}, sr.err
			}

			ratio, ok := sales.StockTurn(sr.qty, onHand)
			payload := map[string]any{
				"qty_sold_12m_meters": sr.qty,
				"on_hand_meters":      onHand,
			}
			if !ok {
				payload["stock_turn"] = nil
				payload["message"] = "there is no stock on hand, so the stock turn ratio is undefined"
			} else {
				payload["stock_turn"] = ratio
			}
			return OK(payload), nil
		},
	}
}
