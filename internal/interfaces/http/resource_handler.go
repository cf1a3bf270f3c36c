package http

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
)

var errBadID = domain.Detail(domain.ErrInvalidInput, "El identificador debe ser un entero positivo.")

// ResourceHandler expone el CRUD genérico. Cada método devuelve el handler de una
// tabla concreta del catálogo.
type ResourceHandler struct {
	svc *appresource.Service
	res *Responder
}

// NewResourceHandler construye el handler.
func NewResourceHandler(svc *appresource.Service, res *Responder) *ResourceHandler {
	return &ResourceHandler{svc: svc, res: res}
}

// List GET /api/{recurso}: búsqueda, filtros, orden y paginación por query string.
func (h *ResourceHandler) List(table string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := h.svc.List(c.UserContext(), GetActor(c), table, queryParams(c))
		if err != nil {
			return h.res.Fail(c, err, table, "listar")
		}
		return ok(c, "Registros obtenidos exitosamente", dto.NewPage(out.Items, len(out.Items), out.Total, out.Plan))
	}
}

// Create POST /api/{recurso}.
func (h *ResourceHandler) Create(table string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := decodeBody(c)
		if err != nil {
			return h.res.Fail(c, err, table, "crear")
		}
		rec, err := h.svc.Create(c.UserContext(), GetActor(c), table, in)
		if err != nil {
			return h.res.Fail(c, err, table, "crear")
		}
		return created(c, "Registro creado exitosamente", rec)
	}
}

// Get GET /api/{recurso}/{id}.
func (h *ResourceHandler) Get(table string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return h.res.Fail(c, err, table, "obtener")
		}
		rec, err := h.svc.Get(c.UserContext(), GetActor(c), table, id)
		if err != nil {
			return h.res.Fail(c, err, table, "obtener")
		}
		return ok(c, "Registro obtenido exitosamente", rec)
	}
}

// Update PUT /api/{recurso}/{id}: solo se modifican los campos enviados.
func (h *ResourceHandler) Update(table string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return h.res.Fail(c, err, table, "actualizar")
		}
		in, err := decodeBody(c)
		if err != nil {
			return h.res.Fail(c, err, table, "actualizar")
		}
		rec, err := h.svc.Update(c.UserContext(), GetActor(c), table, id, in)
		if err != nil {
			return h.res.Fail(c, err, table, "actualizar")
		}
		return ok(c, "Registro actualizado exitosamente", rec)
	}
}

// Delete DELETE /api/{recurso}/{id}.
func (h *ResourceHandler) Delete(table string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return h.res.Fail(c, err, table, "eliminar")
		}
		if err := h.svc.Delete(c.UserContext(), GetActor(c), table, id); err != nil {
			return h.res.Fail(c, err, table, "eliminar")
		}
		return ok(c, "Registro eliminado exitosamente", nil)
	}
}

// Active GET /api/{recurso}/activos: lista completa para selectores.
func (h *ResourceHandler) Active(table string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rows, err := h.svc.Active(c.UserContext(), GetActor(c), table)
		if err != nil {
			return h.res.Fail(c, err, table, "activos")
		}
		return ok(c, "Registros activos obtenidos exitosamente", rows)
	}
}

// ToggleStatus PATCH /api/{recurso}/{id}/toggle-status.
func (h *ResourceHandler) ToggleStatus(table string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return h.res.Fail(c, err, table, "cambiar estado")
		}
		rec, err := h.svc.ToggleStatus(c.UserContext(), GetActor(c), table, id)
		if err != nil {
			return h.res.Fail(c, err, table, "cambiar estado")
		}
		return ok(c, "Estado actualizado exitosamente", rec)
	}
}

// ListBy GET /api/{recurso}/por-{relacion}/{id}.
func (h *ResourceHandler) ListBy(table, relation string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return h.res.Fail(c, err, table, "listar por "+relation)
		}
		out, err := h.svc.ListBy(c.UserContext(), GetActor(c), table, relation, id, queryParams(c))
		if err != nil {
			return h.res.Fail(c, err, table, "listar por "+relation)
		}
		return ok(c, "Registros obtenidos exitosamente", dto.NewPage(out.Items, len(out.Items), out.Total, out.Plan))
	}
}

// queryParams query string como query.Params; "servicios[]=1&servicios[]=2" se
// agrupa bajo "servicios".
func queryParams(c *fiber.Ctx) query.Params {
	p := query.Params{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		p.Add(string(k), string(v))
	})
	return p
}

// decodeBody cuerpo JSON como mapa, con números como json.Number. Un cuerpo vacío
// es un mapa vacío.
func decodeBody(c *fiber.Ctx) (map[string]any, error) {
	body := bytes.TrimSpace(c.Body())
	out := map[string]any{}
	if len(body) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil || out == nil {
		return nil, errBadBody
	}
	return out, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}
