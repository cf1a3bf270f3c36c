package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	"github.com/kamdevo/proyecto-eva/internal/application/health"
)

// HealthHandler endpoints públicos de salud.
type HealthHandler struct {
	svc *health.Service
}

// NewHealthHandler construye el handler.
func NewHealthHandler(svc *health.Service) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Liveness GET /health
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return ok(c, "Servicio en línea", h.svc.Liveness())
}

// Advanced GET /health/advanced: 503 si alguna dependencia falla.
func (h *HealthHandler) Advanced(c *fiber.Ctx) error {
	out := h.svc.Advanced(c.UserContext())
	if out.Status != dto.HealthOK {
		return send(c, fiber.StatusServiceUnavailable, "Servicio degradado", out, nil)
	}
	return ok(c, "Servicio saludable", out)
}

// Monitor GET /monitor
func (h *HealthHandler) Monitor(c *fiber.Ctx) error {
	return ok(c, "Métricas del proceso", h.svc.Monitor())
}
