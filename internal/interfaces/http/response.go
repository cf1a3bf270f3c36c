package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// MsgInternal mensaje de toda respuesta 500.
const MsgInternal = "Error interno del servidor"

// errBadBody cuerpo que no se pudo decodificar.
var errBadBody = domain.Detail(domain.ErrInvalidInput, "El cuerpo de la solicitud no es un JSON válido.")

// send escribe el sobre con el status dado.
func send(c *fiber.Ctx, status int, message string, data, errs any) error {
	return c.Status(status).JSON(dto.NewEnvelope(status, message, data, errs))
}

func ok(c *fiber.Ctx, message string, data any) error {
	return send(c, fiber.StatusOK, message, data, nil)
}

func created(c *fiber.Ctx, message string, data any) error {
	return send(c, fiber.StatusCreated, message, data, nil)
}

// Responder traduce errores de dominio a status + sobre. Los errores no esperados
// se registran con el actor y la operación y salen como 500 genérico.
type Responder struct {
	log   *logger.Logger
	debug bool
}

// NewResponder construye el traductor. debug agrega el detalle del error en los 500.
func NewResponder(log *logger.Logger, debug bool) *Responder {
	if log == nil {
		log = logger.Nop()
	}
	return &Responder{log: log.Named("http"), debug: debug}
}

// Fail responde err. recurso y operacion solo se usan para el log.
func (r *Responder) Fail(c *fiber.Ctx, err error, recurso, operacion string) error {
	var (
		verr     *domain.ValidationError
		conflict *domain.ConflictError
		detailed *domain.DetailedError
	)
	switch {
	case errors.As(err, &verr):
		return send(c, fiber.StatusUnprocessableEntity, "Error de validación", nil, verr.Fields)
	case errors.As(err, &conflict):
		return send(c, fiber.StatusBadRequest, conflict.Message, nil, fiber.Map{"dependientes": conflict.Count})
	}

	status, message := classify(err)
	if status == 0 {
		actor := GetActor(c)
		r.log.Error().Err(err).
			Int64("actor_id", actor.UserID).
			Str("recurso", recurso).
			Str("operacion", operacion).
			Str("request_id", requestID(c)).
			Msg("error no controlado")
		var errs any
		if r.debug {
			errs = fiber.Map{"detalle": err.Error()}
		}
		return send(c, fiber.StatusInternalServerError, MsgInternal, nil, errs)
	}
	if errors.As(err, &detailed) {
		message = detailed.Message
	}
	return send(c, status, message, nil, nil)
}

// classify status y mensaje por defecto de los errores esperados; 0 si no lo es.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownResource):
		return fiber.StatusNotFound, "Recurso no encontrado"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "Registro no encontrado"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusUnprocessableEntity, "El registro ya existe"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "Solicitud inválida"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusBadRequest, "La operación entra en conflicto con registros existentes"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "No autenticado"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "No tiene permisos para realizar esta operación"
	case errors.Is(err, domain.ErrOperationBlocked):
		return fiber.StatusForbidden, "Operación no permitida sobre este recurso"
	}
	return 0, ""
}

// ErrorHandler envuelve los errores que llegan a Fiber sin pasar por un handler
// (ruta inexistente, cuerpo demasiado grande, pánicos recuperados).
func (r *Responder) ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return send(c, fe.Code, "Ruta no encontrada", nil, nil)
		}
		if fe.Code < fiber.StatusInternalServerError {
			return send(c, fe.Code, fe.Message, nil, nil)
		}
	}
	return r.Fail(c, err, "", c.Method()+" "+c.Path())
}
