package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// ImportUseCase vuelca libros de Excel (facturación y existencias) en la base.
// Cada importación corre en una transacción propia.
type ImportUseCase struct {
	tx       TxRunner
	invoices InvoiceLoader
	stock    StockLoader
	log      *logger.Logger
}

// NewImportUseCase construye el caso de uso.
func NewImportUseCase(tx TxRunner, invoices InvoiceLoader, stock StockLoader, log *logger.Logger) *ImportUseCase {
	return &ImportUseCase{tx: tx, invoices: invoices, stock: stock, log: log}
}

// ImportResult contadores de una importación terminada.
type ImportResult struct {
	RowsRead     int
	RowsSkipped  int
	RowsUpserted int
}

// ImportInvoices parsea el libro de facturación y hace upsert de todas las
// líneas válidas. Las filas inválidas se descartan y se cuentan, no abortan.
func (uc *ImportUseCase) ImportInvoices(ctx context.Context, r io.Reader) (*ImportResult, error) {
	lines, report, err := uc.invoices.LoadInvoiceLines(r)
	if err != nil {
		return nil, fmt.Errorf("ingest.ImportInvoices: %w", err)
	}

	res := &ImportResult{RowsRead: report.RowsRead, RowsSkipped: report.RowsSkipped}
	if len(lines) == 0 {
		uc.log.Warn().Int("rows_read", report.RowsRead).Msg("libro de facturación sin filas válidas")
		return res, nil
	}

	err = uc.tx.Run(ctx, func(invoices repository.InvoiceWriteRepository, _ repository.StockWriteRepository) error {
		n, err := invoices.UpsertLines(ctx, lines)
		if err != nil {
			return err
		}
		res.RowsUpserted = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest.ImportInvoices: %w", err)
	}

	uc.log.Info().
		Int("rows_read", res.RowsRead).
		Int("rows_skipped", res.RowsSkipped).
		Int("rows_upserted", res.RowsUpserted).
		Msg("importación de facturación completada")
	return res, nil
}

// ImportStock parsea el libro de existencias y hace upsert por material.
func (uc *ImportUseCase) ImportStock(ctx context.Context, r io.Reader) (*ImportResult, error) {
	items, report, err := uc.stock.LoadStockItems(r)
	if err != nil {
		return nil, fmt.Errorf("ingest.ImportStock: %w", err)
	}

	res := &ImportResult{RowsRead: report.RowsRead, RowsSkipped: report.RowsSkipped}
	if len(items) == 0 {
		uc.log.Warn().Int("rows_read", report.RowsRead).Msg("libro de existencias sin filas válidas")
		return res, nil
	}

	err = uc.tx.Run(ctx, func(_ repository.InvoiceWriteRepository, stock repository.StockWriteRepository) error {
		n, err := stock.UpsertItems(ctx, items)
		if err != nil {
			return err
		}
		res.RowsUpserted = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest.ImportStock: %w", err)
	}

	uc.log.Info().
		Int("rows_read", res.RowsRead).
		Int("rows_skipped", res.RowsSkipped).
		Int("rows_upserted", res.RowsUpserted).
		Msg("importación de existencias completada")
	return res, nil
}
