package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/kamdevo/proyecto-eva/internal/application/analytics"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

// DashboardHandler estadísticas agregadas (solo lectura).
type DashboardHandler struct {
	uc  *appanalytics.DashboardUseCase
	res *Responder
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase, res *Responder) *DashboardHandler {
	return &DashboardHandler{uc: uc, res: res}
}

// GetStats GET /api/dashboard/estadisticas
//
// Respuesta cacheada: equipos, mantenimientos, calibraciones, contingencias,
// servicios y áreas activos.
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	out, err := h.uc.GetStats(c.UserContext())
	if err != nil {
		return h.res.Fail(c, err, "dashboard", "estadisticas")
	}
	return ok(c, "Estadísticas obtenidas exitosamente", out)
}

// MaintenanceTrend GET /api/dashboard/mantenimientos-mensuales?meses=6
func (h *DashboardHandler) MaintenanceTrend(c *fiber.Ctx) error {
	out, err := h.uc.MaintenanceTrend(c.UserContext(), c.QueryInt("meses", 6))
	if err != nil {
		return h.res.Fail(c, err, "dashboard", "mantenimientos mensuales")
	}
	return ok(c, "Serie mensual obtenida exitosamente", out)
}

// ServiceStats GET /api/servicios/{id}/estadisticas
func (h *DashboardHandler) ServiceStats(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.res.Fail(c, err, resource.TableServices, "estadisticas")
	}
	out, err := h.uc.ServiceStats(c.UserContext(), id)
	if err != nil {
		return h.res.Fail(c, err, resource.TableServices, "estadisticas")
	}
	return ok(c, "Estadísticas del servicio obtenidas exitosamente", out)
}

// AreaStats GET /api/areas/{id}/estadisticas
func (h *DashboardHandler) AreaStats(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.res.Fail(c, err, resource.TableAreas, "estadisticas")
	}
	out, err := h.uc.AreaStats(c.UserContext(), id)
	if err != nil {
		return h.res.Fail(c, err, resource.TableAreas, "estadisticas")
	}
	return ok(c, "Estadísticas del área obtenidas exitosamente", out)
}

// EquipmentStats GET /api/equipos/estadisticas
func (h *DashboardHandler) EquipmentStats(c *fiber.Ctx) error {
	out, err := h.uc.EquipmentStats(c.UserContext())
	if err != nil {
		return h.res.Fail(c, err, resource.TableEquipment, "estadisticas")
	}
	return ok(c, "Estadísticas de equipos obtenidas exitosamente", out)
}
