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
var _ ingest.StockLoader = (*StockWorkbookLoader)(nil)

// StockWorkbookLoader lee el export de existencias de bodega (.xlsx).
type StockWorkbookLoader struct {
	log *logger.Logger
}

// NewStockWorkbookLoader construye el loader.
func NewStockWorkbookLoader(log *logger.Logger) *StockWorkbookLoader {
	return &StockWorkbookLoader{log: log}
}

// LoadStockItems parsea la primera hoja del libro. Material es obligatorio;
// las filas sin material se descartan y se cuentan. Metros vacíos o ilegibles
// entran como cero, el resto de numéricos como null.
func (l *StockWorkbookLoader) LoadStockItems(r io.Reader) ([]*entity.StockItem, *ingest.LoadReport, error) {
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
		return nil, nil, fmt.Errorf("excel: el libro de existencias está vacío")
	}

	idx := headerIndex(rows[0])
	if _, ok := idx["material"]; !ok {
		return nil, nil, fmt.Errorf("excel: falta la columna %q en el libro de existencias", "Material")
	}

	report := &ingest.LoadReport{}
	items := make([]*entity.StockItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isEmptyRow(row) {
			continue
		}
		report.RowsRead++

		material := cellAt(row, idx, "material")
		if material == "" {
			report.RowsSkipped++
			l.log.Debug().Int("row", rowNum).Msg("fila de existencias sin material, descartada")
			continue
		}

		items = append(items, &entity.StockItem{
			Material:          material,
			StockInMeters:     decimalCellOrZero(cellAt(row, idx, "stockinmeters")),
			BasicPrice:        nullDecimalCell(cellAt(row, idx, "basicprice")),
			LeadTimeDays:      intCellPtr(cellAt(row, idx, "leadtimedays")),
			ReplenishmentDate: parseWorkbookDatePtr(cellAt(row, idx, "replenishmentdate")),

			AinocularDesign: cellAt(row, idx, "ainoculardesign"),
			AinocularShade:  cellAt(row, idx, "ainocularshade"),
			LoomType:        cellAt(row, idx, "loomtype"),
			DyeType:         cellAt(row, idx, "dyetype"),
			StockType:       cellAt(row, idx, "stocktype"),
			Colour:          cellAt(row, idx, "colour"),
			Pattern:         cellAt(row, idx, "pattern"),
			EndUse:          cellAt(row, idx, "enduse"),
			GSM:             nullDecimalCell(cellAt(row, idx, "gsm")),
			Repeats:         cellAt(row, idx, "repeats"),
			Composition:     cellAt(row, idx, "composition"),
		})
	}

	return items, report, nil
}
