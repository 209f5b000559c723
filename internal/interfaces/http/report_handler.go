package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dian/internal/application/billing"
)

// ReportHandler log de auditoría y resumen diario.
type ReportHandler struct {
	uc *billing.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *billing.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Logs godoc
// @Summary      Log de auditoría DIAN
// @Tags         dian-reports
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "máximo de entradas (50 por defecto, 500 máximo)"
// @Success      200  {array}  dto.LogEntryResponse
// @Router       /api/dian/logs [get]
func (h *ReportHandler) Logs(c *fiber.Ctx) error {
	out, err := h.uc.RecentLogs(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen diario de envíos
// @Tags         dian-reports
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "días hacia atrás (30 por defecto)"
// @Success      200  {array}  dto.DailySummaryResponse
// @Router       /api/dian/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext(), c.QueryInt("days", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
