package reports_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/TelarIA-api/internal/application/reports"
	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// fakeInvoiceReads implementa el repositorio de lectura con datos fijos y
// registra qué dimensiones y topN pidió el caso de uso.
type fakeInvoiceReads struct {
	totals     repository.SalesTotalsResult
	dims       map[string][]repository.DimensionSalesResult
	monthly    []repository.MonthlySalesResult
	dimsAsked  []string
	topNsAsked []int
	monthsAsk  int
	err        error
}

func (f *fakeInvoiceReads) Search(ctx context.Context, filter repository.InvoiceFilter, limit, offset int) ([]*entity.InvoiceLine, error) {
	return nil, nil
}

func (f *fakeInvoiceReads) GetByBillingDocument(ctx context.Context, doc string) ([]*entity.InvoiceLine, error) {
	return nil, nil
}

func (f *fakeInvoiceReads) SalesTotals(ctx context.Context, filter repository.InvoiceFilter) (*repository.SalesTotalsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	t := f.totals
	return &t, nil
}

func (f *fakeInvoiceReads) SalesByDimension(ctx context.Context, filter repository.InvoiceFilter, dimension string, topN int) ([]repository.DimensionSalesResult, error) {
	f.dimsAsked = append(f.dimsAsked, dimension)
	f.topNsAsked = append(f.topNsAsked, topN)
	return f.dims[dimension], nil
}

func (f *fakeInvoiceReads) MonthlyTrend(ctx context.Context, filter repository.InvoiceFilter, months int) ([]repository.MonthlySalesResult, error) {
	f.monthsAsk = months
	return f.monthly, nil
}

func (f *fakeInvoiceReads) GrowthWindows(ctx context.Context, dimension string, reference time.Time) ([]repository.GrowthWindowResult, error) {
	return nil, nil
}

func (f *fakeInvoiceReads) MaterialBuyers(ctx context.Context, material string, topN int) ([]repository.MaterialBuyerResult, error) {
	return nil, nil
}

func (f *fakeInvoiceReads) DistinctValues(ctx context.Context, dimension string) ([]string, error) {
	return nil, nil
}

func (f *fakeInvoiceReads) FabricAttributes(ctx context.Context) (*repository.FabricAttributesResult, error) {
	return &repository.FabricAttributesResult{}, nil
}

func (f *fakeInvoiceReads) QtySoldByMaterial(ctx context.Context, since time.Time) ([]repository.MaterialSalesResult, error) {
	return nil, nil
}

func (f *fakeInvoiceReads) TotalQtySold(ctx context.Context, since time.Time) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

type fakeGenerator struct {
	got *reports.SalesReportData
	pdf []byte
	err error
}

func (f *fakeGenerator) GenerateSalesReport(ctx context.Context, data *reports.SalesReportData) ([]byte, error) {
	f.got = data
	return f.pdf, f.err
}

func TestGenerate(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	repo := &fakeInvoiceReads{
		totals: repository.SalesTotalsResult{
			NetRevenue:   decimal.NewFromInt(125000),
			InvoiceCount: 42,
		},
		dims: map[string][]repository.DimensionSalesResult{
			repository.DimRegion:   {{Key: "NORTH", NetRevenue: decimal.NewFromInt(75000)}},
			repository.DimCustomer: {{Key: "CUST-GUPTA-01", Label: "Gupta Textiles", NetRevenue: decimal.NewFromInt(30000)}},
		},
		monthly: []repository.MonthlySalesResult{{Month: "2025-06", NetRevenue: decimal.NewFromInt(20000)}},
	}
	gen := &fakeGenerator{pdf: []byte("%PDF-1.7 contenido")}
	uc := reports.NewSalesReportUseCase(repo, gen, logger.Nop())

	pdf, err := uc.Generate(context.Background(), &from, &to)
	require.NoError(t, err)
	assert.Equal(t, gen.pdf, pdf)

	require.NotNil(t, gen.got)
	assert.Equal(t, &from, gen.got.From)
	assert.Equal(t, &to, gen.got.To)
	assert.Equal(t, 42, gen.got.Totals.InvoiceCount)
	require.Len(t, gen.got.TopRegions, 1)
	assert.Equal(t, "NORTH", gen.got.TopRegions[0].Key)
	require.Len(t, gen.got.TopCustomers, 1)
	assert.Equal(t, "Gupta Textiles", gen.got.TopCustomers[0].Label)

	// Secciones fijas del reporte: top 5 por región y cliente, 12 meses de serie.
	assert.Equal(t, []string{repository.DimRegion, repository.DimCustomer}, repo.dimsAsked)
	assert.Equal(t, []int{5, 5}, repo.topNsAsked)
	assert.Equal(t, 12, repo.monthsAsk)
}

func TestGenerate_ErrorDeLectura(t *testing.T) {
	repo := &fakeInvoiceReads{err: errors.New("conexión perdida")}
	gen := &fakeGenerator{}
	uc := reports.NewSalesReportUseCase(repo, gen, logger.Nop())

	_, err := uc.Generate(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Nil(t, gen.got, "sin datos no se invoca el generador")
}

func TestGenerate_ErrorDelGenerador(t *testing.T) {
	repo := &fakeInvoiceReads{}
	gen := &fakeGenerator{err: errors.New("maroto falló")}
	uc := reports.NewSalesReportUseCase(repo, gen, logger.Nop())

	_, err := uc.Generate(context.Background(), nil, nil)
	assert.Error(t, err)
}
