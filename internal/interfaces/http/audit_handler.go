package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
)

// AuditHandler operaciones propias de la bitácora. El listado y el detalle pasan por
// el handler genérico.
type AuditHandler struct {
	svc *audit.Service
	res *Responder
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.Service, res *Responder) *AuditHandler {
	return &AuditHandler{svc: svc, res: res}
}

// Stats GET /api/auditoria/estadisticas
func (h *AuditHandler) Stats(c *fiber.Ctx) error {
	out, err := h.svc.Stats(c.UserContext(), GetActor(c), queryParams(c))
	if err != nil {
		return h.res.Fail(c, err, entity.TableAudit, "estadisticas")
	}
	return ok(c, "Estadísticas de auditoría obtenidas exitosamente", out)
}

// Delete DELETE /api/auditoria/{id}
func (h *AuditHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.res.Fail(c, err, entity.TableAudit, "eliminar")
	}
	if err := h.svc.Delete(c.UserContext(), GetActor(c), id); err != nil {
		return h.res.Fail(c, err, entity.TableAudit, "eliminar")
	}
	return ok(c, "Registro de auditoría eliminado exitosamente", nil)
}
