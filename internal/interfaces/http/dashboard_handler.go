package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/stock-ledger-api/internal/application/analytics"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

// DashboardHandler maneja el endpoint del dashboard (solo admin).
type DashboardHandler struct {
	uc  *appanalytics.DashboardUseCase
	log *logger.Logger
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{uc: uc, log: log}
}

// Get devuelve totales de entradas/salidas del rango, productos bajo reorden y últimos movimientos.
// GET /api/dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD
//
// Sin rango se usan los últimos 30 días. Si el escaneo de bajo stock falla la respuesta
// llega igual con low_stock vacío y low_stock_degraded=true.
func (h *DashboardHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetDashboard(c.UserContext(), dto.DashboardRequest{
		From: c.Query("from"),
		To:   c.Query("to"),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
