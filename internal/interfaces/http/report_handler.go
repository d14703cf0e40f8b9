package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/TelarIA-api/internal/application/dto"
	"github.com/jhoicas/TelarIA-api/internal/application/reports"
	"github.com/jhoicas/TelarIA-api/pkg/logger"
)

// ReportHandler expone el reporte de ventas en PDF.
type ReportHandler struct {
	uc  *reports.SalesReportUseCase
	log *logger.Logger
}

// NewReportHandler construye el handler de reportes.
func NewReportHandler(uc *reports.SalesReportUseCase, log *logger.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log}
}

// SalesReport godoc
// @Summary      Reporte de ventas en PDF
// @Description  Genera el reporte del período (totales, top regiones, top clientes, serie mensual). Fechas ilegibles se ignoran, igual que en las herramientas del asistente.
// @Tags         reports
// @Produce      application/pdf
// @Param        fromDate  query  string  false  "YYYY-MM-DD inclusivo"
// @Param        toDate    query  string  false  "YYYY-MM-DD inclusivo"
// @Success      200  {file}  file
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/sales [get]
func (h *ReportHandler) SalesReport(c *fiber.Ctx) error {
	from := parseQueryDate(c.Query("fromDate"))
	to := parseQueryDate(c.Query("toDate"))

	pdf, err := h.uc.Generate(c.UserContext(), from, to)
	if err != nil {
		h.log.Error().Err(err).Msg("generación del reporte de ventas fallida")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo generar el reporte"})
	}

	filename := fmt.Sprintf("sales-report-%s.pdf", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// parseQueryDate normaliza la fecha del query param con la misma política de
// las herramientas: ausente o ilegible = sin filtro.
func parseQueryDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}
