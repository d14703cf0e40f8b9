package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// SalesReportData todo lo que el generador necesita para armar el PDF.
// Los montos vienen ya agregados por el repositorio de lectura.
type SalesReportData struct {
	From        *time.Time
	To          *time.Time
	GeneratedAt time.Time

	Totals       repository.SalesTotalsResult
	TopRegions   []repository.DimensionSalesResult
	TopCustomers []repository.DimensionSalesResult
	Monthly      []repository.MonthlySalesResult
}

// SalesPDFGenerator puerto de generación del reporte en PDF.
type SalesPDFGenerator interface {
	GenerateSalesReport(ctx context.Context, data *SalesReportData) ([]byte, error)
}

// SalesReportUseCase arma el reporte de ventas del período para descarga.
type SalesReportUseCase struct {
	invoices repository.InvoiceReadRepository
	gen      SalesPDFGenerator
	log      *logger.Logger
}

// NewSalesReportUseCase construye el caso de uso.
func NewSalesReportUseCase(invoices repository.InvoiceReadRepository, gen SalesPDFGenerator, log *logger.Logger) *SalesReportUseCase {
	return &SalesReportUseCase{invoices: invoices, gen: gen, log: log}
}

// Generate consulta totales, top regiones, top clientes y serie mensual del
// período y entrega el PDF. from/to nil = período completo.
func (uc *SalesReportUseCase) Generate(ctx context.Context, from, to *time.Time) ([]byte, error) {
	filter := repository.InvoiceFilter{FromDate: from, ToDate: to}

	totals, err := uc.invoices.SalesTotals(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("reports.Generate: %w", err)
	}
	regions, err := uc.invoices.SalesByDimension(ctx, filter, repository.DimRegion, 5)
	if err != nil {
		return nil, fmt.Errorf("reports.Generate: %w", err)
	}
	customers, err := uc.invoices.SalesByDimension(ctx, filter, repository.DimCustomer, 5)
	if err != nil {
		return nil, fmt.Errorf("reports.Generate: %w", err)
	}
	monthly, err := uc.invoices.MonthlyTrend(ctx, filter, 12)
	if err != nil {
		return nil, fmt.Errorf("reports.Generate: %w", err)
	}

	data := &SalesReportData{
		From:         from,
		To:           to,
		GeneratedAt:  time.Now(),
		Totals:       *totals,
		TopRegions:   regions,
		TopCustomers: customers,
		Monthly:      monthly,
	}

	pdf, err := uc.gen.GenerateSalesReport(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("reports.Generate: %w", err)
	}

	uc.log.Info().
		Int("bytes", len(pdf)).
		Int("invoices", totals.InvoiceCount).
		Msg("reporte de ventas generado")
	return pdf, nil
}
