package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// RequestLogger registra cada petición al terminar: método, ruta, status, latencia,
// request id y actor.
func RequestLogger(log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("metodo", c.Method()).
			Str("ruta", c.Path()).
			Int("status", status).
			Dur("latencia", time.Since(start)).
			Str("request_id", requestID(c)).
			Int64("actor_id", GetActor(c).UserID).
			Msg("petición")
		return err
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
