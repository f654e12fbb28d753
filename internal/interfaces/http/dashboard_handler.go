package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/almacen-io/almacen-api/internal/application/dto"
	"github.com/almacen-io/almacen-api/internal/application/usecase"
)

// DashboardHandler expone los KPIs del panel.
type DashboardHandler struct {
	uc *usecase.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *usecase.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetKPIs godoc
// @Summary      KPIs del dashboard
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.KPIResponse
// @Router       /api/dashboard/kpis [get]
func (h *DashboardHandler) GetKPIs(c *fiber.Ctx) error {
	kpis, err := h.uc.GetKPIs()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(kpis)
}
