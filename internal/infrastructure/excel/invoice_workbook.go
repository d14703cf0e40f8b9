package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/TelarIA-api/internal/application/ingest"
	"github.com/jhoicas/TelarIA-api/internal/domain/entity"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// Verificar en tiempo de compilación que implementa el puerto de ingest.
var _ ingest.InvoiceLoader = (*InvoiceWorkbookLoader)(nil)

// invoiceRequiredColumns columnas sin las que el libro no se puede procesar.
// Clave normalizada → nombre a mostrar en el error.
var invoiceRequiredColumns = map[string]string{
	"billingdocument": "Billing Document",
	"item":            "Item",
	"invoicedate":     "Invoice Date",
}

// InvoiceWorkbookLoader lee el export de facturación del ERP (.xlsx).
type InvoiceWorkbookLoader struct {
	log *logger.Logger
}

// NewInvoiceWorkbookLoader construye el loader.
func NewInvoiceWorkbookLoader(log *logger.Logger) *InvoiceWorkbookLoader {
	return &InvoiceWorkbookLoader{log: log}
}

// LoadInvoiceLines parsea la primera hoja del libro. Las filas sin documento,
// ítem o fecha válida se descartan y se cuentan; no abortan la carga.
func (l *InvoiceWorkbookLoader) LoadInvoiceLines(r io.Reader) ([]*entity.InvoiceLine, *ingest.LoadReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("excel: abrir libro: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("excel: leer hoja %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("excel: el libro de facturación está vacío")
	}

	idx := headerIndex(rows[0])
	for key, display := range invoiceRequiredColumns {
		if _, ok := idx[key]; !ok {
			return nil, nil, fmt.Errorf("excel: falta la columna %q en el libro de facturación", display)
		}
	}

	report := &ingest.LoadReport{}
	lines := make([]*entity.InvoiceLine, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, contando el encabezado
		if isEmptyRow(row) {
			continue
		}
		report.RowsRead++

		doc := cellAt(row, idx, "billingdocument")
		item := cellAt(row, idx, "item")
		date, ok := parseWorkbookDate(cellAt(row, idx, "invoicedate"))
		if doc == "" || item == "" || !ok {
			report.RowsSkipped++
			l.log.Debug().Int("row", rowNum).Msg("fila de facturación inválida, descartada")
			continue
		}

		lines = append(lines, &entity.InvoiceLine{
			SalesOrg:        cellAt(row, idx, "salesorg"),
			BillingDocument: doc,
			Item:            item,
			FiscalYear:      cellAt(row, idx, "fiscalyear"),
			DocumentType:    cellAt(row, idx, "documenttype"),
			InvoiceDate:     date,

			BillToParty:     cellAt(row, idx, "billtoparty"),
			BillToPartyCode: cellAt(row, idx, "billtopartycode"),
			BillToCity:      cellAt(row, idx, "billtocity"),

			Material:            cellAt(row, idx, "material"),
			AinocularDesign:     cellAt(row, idx, "ainoculardesign"),
			AinocularDesignDesc: cellAt(row, idx, "ainoculardesigndesc"),
			AinocularShade:      cellAt(row, idx, "ainocularshade"),
			AinocularShadeDesc:  cellAt(row, idx, "ainocularshadedesc"),

			LoomType:    cellAt(row, idx, "loomtype"),
			DyeType:     cellAt(row, idx, "dyetype"),
			StockType:   cellAt(row, idx, "stocktype"),
			WidthInches: nullDecimalCell(cellAt(row, idx, "widthinches")),
			GSM:         nullDecimalCell(cellAt(row, idx, "gsm")),
			Repeats:     cellAt(row, idx, "repeats"),
			Composition: cellAt(row, idx, "composition"),

			BasicPrice:     nullDecimalCell(cellAt(row, idx, "basicprice")),
			BilledQty:      nullDecimalCell(cellAt(row, idx, "billedqty")),
			NetAmount:      nullDecimalCell(cellAt(row, idx, "netamount")),
			GrossAmount:    nullDecimalCell(cellAt(row, idx, "grossamount")),
			DiscountAmount: nullDecimalCell(cellAt(row, idx, "discountamount")),
			TaxableAmount:  nullDecimalCell(cellAt(row, idx, "taxableamount")),
			GSTAmount:      nullDecimalCell(cellAt(row, idx, "gstamount")),
			TCSAmount:      nullDecimalCell(cellAt(row, idx, "tcsamount")),

			Region:       cellAt(row, idx, "region"),
			Agent:        cellAt(row, idx, "agent"),
			Broker:       cellAt(row, idx, "broker"),
			EndUse:       cellAt(row, idx, "enduse"),
			Pattern:      cellAt(row, idx, "pattern"),
			ColourFamily: cellAt(row, idx, "colourfamily"),
		})
	}

	return lines, report, nil
}
