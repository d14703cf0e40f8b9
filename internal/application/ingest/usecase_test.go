package ingest_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/TelarIA-api/internal/application/ingest"
	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes
// ──────────────────────────────────────────────────────────────────────────────

type fakeInvoiceLoader struct {
	lines  []*entity.InvoiceLine
	report ingest.LoadReport
	err    error
}

func (f *fakeInvoiceLoader) LoadInvoiceLines(r io.Reader) ([]*entity.InvoiceLine, *ingest.LoadReport, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	rep := f.report
	return f.lines, &rep, nil
}

type fakeStockLoader struct {
	items  []*entity.StockItem
	report ingest.LoadReport
	err    error
}

func (f *fakeStockLoader) LoadStockItems(r io.Reader) ([]*entity.StockItem, *ingest.LoadReport, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	rep := f.report
	return f.items, &rep, nil
}

type fakeInvoiceWriter struct {
	got []*entity.InvoiceLine
	err error
}

func (f *fakeInvoiceWriter) UpsertLines(ctx context.Context, lines []*entity.InvoiceLine) (int, error) {
	f.got = lines
	return len(lines), f.err
}

type fakeStockWriter struct {
	got []*entity.StockItem
	err error
}

func (f *fakeStockWriter) UpsertItems(ctx context.Context, items []*entity.StockItem) (int, error) {
	f.got = items
	return len(items), f.err
}

// fakeTx ejecuta la función directamente con los writers fakes y cuenta las
// transacciones abiertas.
type fakeTx struct {
	invoices *fakeInvoiceWriter
	stock    *fakeStockWriter
	runs     int
}

func (f *fakeTx) Run(ctx context.Context, fn func(repository.InvoiceWriteRepository, repository.StockWriteRepository) error) error {
	f.runs++
	return fn(f.invoices, f.stock)
}

func newUseCase(inv *fakeInvoiceLoader, stk *fakeStockLoader, tx *fakeTx) *ingest.ImportUseCase {
	return ingest.NewImportUseCase(tx, inv, stk, logger.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestImportInvoices(t *testing.T) {
	lines := []*entity.InvoiceLine{
		{BillingDocument: "91234567", Item: "10"},
		{BillingDocument: "91234567", Item: "20"},
	}
	tx := &fakeTx{invoices: &fakeInvoiceWriter{}, stock: &fakeStockWriter{}}
	uc := newUseCase(
		&fakeInvoiceLoader{lines: lines, report: ingest.LoadReport{RowsRead: 3, RowsSkipped: 1}},
		&fakeStockLoader{},
		tx,
	)

	res, err := uc.ImportInvoices(context.Background(), strings.NewReader("xlsx"))
	require.NoError(t, err)

	assert.Equal(t, 3, res.RowsRead)
	assert.Equal(t, 1, res.RowsSkipped)
	assert.Equal(t, 2, res.RowsUpserted)
	assert.Equal(t, 1, tx.runs)
	assert.Len(t, tx.invoices.got, 2, "las líneas válidas llegan al writer tal cual")
	assert.Nil(t, tx.stock.got, "la importación de facturación no toca existencias")
}

func TestImportInvoices_SinFilasValidasNoAbreTransaccion(t *testing.T) {
	tx := &fakeTx{invoices: &fakeInvoiceWriter{}, stock: &fakeStockWriter{}}
	uc := newUseCase(
		&fakeInvoiceLoader{report: ingest.LoadReport{RowsRead: 4, RowsSkipped: 4}},
		&fakeStockLoader{},
		tx,
	)

	res, err := uc.ImportInvoices(context.Background(), strings.NewReader("xlsx"))
	require.NoError(t, err)

	assert.Equal(t, 4, res.RowsRead)
	assert.Equal(t, 4, res.RowsSkipped)
	assert.Zero(t, res.RowsUpserted)
	assert.Zero(t, tx.runs, "sin filas válidas no se abre transacción")
}

func TestImportInvoices_ErrorDelLoader(t *testing.T) {
	tx := &fakeTx{invoices: &fakeInvoiceWriter{}, stock: &fakeStockWriter{}}
	uc := newUseCase(
		&fakeInvoiceLoader{err: errors.New(`falta la columna "Item"`)},
		&fakeStockLoader{},
		tx,
	)

	_, err := uc.ImportInvoices(context.Background(), strings.NewReader("xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Item")
	assert.Zero(t, tx.runs)
}

func TestImportInvoices_ErrorDelWriterPropagaYNoReporta(t *testing.T) {
	tx := &fakeTx{invoices: &fakeInvoiceWriter{err: errors.New("deadlock")}, stock: &fakeStockWriter{}}
	uc := newUseCase(
		&fakeInvoiceLoader{lines: []*entity.InvoiceLine{{BillingDocument: "1", Item: "10"}}, report: ingest.LoadReport{RowsRead: 1}},
		&fakeStockLoader{},
		tx,
	)

	res, err := uc.ImportInvoices(context.Background(), strings.NewReader("xlsx"))
	require.Error(t, err)
	assert.Nil(t, res, "una importación fallida no devuelve contadores parciales")
}

func TestImportStock(t *testing.T) {
	items := []*entity.StockItem{{Material: "FAB-AIRJET-120"}, {Material: "FAB-SULZER-90"}}
	tx := &fakeTx{invoices: &fakeInvoiceWriter{}, stock: &fakeStockWriter{}}
	uc := newUseCase(
		&fakeInvoiceLoader{},
		&fakeStockLoader{items: items, report: ingest.LoadReport{RowsRead: 2}},
		tx,
	)

	res, err := uc.ImportStock(context.Background(), strings.NewReader("xlsx"))
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowsUpserted)
	assert.Len(t, tx.stock.got, 2)
	assert.Nil(t, tx.invoices.got)
}
