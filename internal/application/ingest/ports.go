package ingest

import (
	"context"
	"io"

	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios de escritura atados a esa tx. La importación es atómica:
// o entra el archivo completo o no entra nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invoices repository.InvoiceWriteRepository,
		stock repository.StockWriteRepository,
	) error) error
}

// LoadReport resume qué pasó al parsear un libro: cuántas filas de datos se
// leyeron y cuántas se descartaron por inválidas.
type LoadReport struct {
	RowsRead    int
	RowsSkipped int
}

// InvoiceLoader parsea un libro de facturación a líneas de factura.
type InvoiceLoader interface {
	LoadInvoiceLines(r io.Reader) ([]*entity.InvoiceLine, *LoadReport, error)
}

// StockLoader parsea un libro de existencias a materiales de bodega.
type StockLoader interface {
	LoadStockItems(r io.Reader) ([]*entity.StockItem, *LoadReport, error)
}
