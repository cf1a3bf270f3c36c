package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
)

// LocalActor clave de Locals con el entity.Actor autenticado.
const LocalActor = "actor"

// Authenticator valida el token y resuelve el actor (auth.AuthUseCase).
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (entity.Actor, error)
}

var (
	errMissingToken = domain.Detail(domain.ErrUnauthorized, "Token de acceso requerido.")
	errTokenFormat  = domain.Detail(domain.ErrUnauthorized, "Formato esperado: Bearer <token>.")
	errRole         = domain.Detail(domain.ErrForbidden, "Su rol no tiene acceso a esta operación.")
)

// AuthMiddleware valida el Bearer token contra la sesión y deja el actor en Locals,
// con la IP y el user agent de la petición.
func AuthMiddleware(auth Authenticator, res *Responder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return res.Fail(c, errMissingToken, "", "autenticar")
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return res.Fail(c, errTokenFormat, "", "autenticar")
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return res.Fail(c, errMissingToken, "", "autenticar")
		}
		actor, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return res.Fail(c, err, "", "autenticar")
		}
		actor.IP = c.IP()
		actor.UserAgent = c.Get(fiber.HeaderUserAgent)
		c.Locals(LocalActor, actor)
		return c.Next()
	}
}

// RequireRole responde 403 si el actor no tiene alguno de los roles. Debe usarse
// después de AuthMiddleware.
func RequireRole(res *Responder, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !GetActor(c).HasRole(roles...) {
			return res.Fail(c, errRole, "", "autorizar")
		}
		return c.Next()
	}
}

// GetActor actor de la petición; el valor cero si no hay autenticación.
func GetActor(c *fiber.Ctx) entity.Actor {
	a, _ := c.Locals(LocalActor).(entity.Actor)
	return a
}

// clientActor actor anónimo con los datos de la conexión (login).
func clientActor(c *fiber.Ctx) entity.Actor {
	return entity.Actor{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}
