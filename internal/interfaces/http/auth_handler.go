package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kamdevo/proyecto-eva/internal/application/auth"
	"github.com/kamdevo/proyecto-eva/internal/application/dto"
)

// AuthHandler login, logout y usuario actual.
type AuthHandler struct {
	uc  *auth.AuthUseCase
	res *Responder
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, res *Responder) *AuthHandler {
	return &AuthHandler{uc: uc, res: res}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email o username, password"
// @Success      200   {object}  dto.Envelope{data=dto.LoginResponse}
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return h.res.Fail(c, errBadBody, "auth", "login")
	}
	client := clientActor(c)
	out, err := h.uc.Login(c.UserContext(), in, client.IP, client.UserAgent)
	if err != nil {
		return h.res.Fail(c, err, "auth", "login")
	}
	return ok(c, "Inicio de sesión exitoso", out)
}

// Logout godoc
// @Summary      Cerrar sesión
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.uc.Logout(c.UserContext(), GetActor(c)); err != nil {
		return h.res.Fail(c, err, "auth", "logout")
	}
	return ok(c, "Sesión cerrada exitosamente", nil)
}

// Me godoc
// @Summary      Usuario autenticado
// @Tags         auth
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope{data=dto.UserResponse}
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	out, err := h.uc.Me(c.UserContext(), GetActor(c))
	if err != nil {
		return h.res.Fail(c, err, "auth", "me")
	}
	return ok(c, "Usuario obtenido exitosamente", out)
}
