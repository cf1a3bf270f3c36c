package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	apphttp "github.com/kamdevo/proyecto-eva/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// stubAuth resuelve tokens fijos a actores.
type stubAuth map[string]entity.Actor

func (s stubAuth) Authenticate(_ context.Context, token string) (entity.Actor, error) {
	a, ok := s[token]
	if !ok {
		return entity.Actor{}, domain.Detail(domain.ErrUnauthorized, "Token inválido o expirado.")
	}
	return a, nil
}

var tokens = stubAuth{
	"tok-admin":    {UserID: 1, Role: entity.RoleAdmin},
	"tok-tecnico":  {UserID: 2, Role: entity.RoleTechnician},
	"tok-consulta": {UserID: 3, Role: entity.RoleViewer},
}

// buildTestApp aplicación mínima: AuthMiddleware + RequireRole + handler que
// devuelve el actor.
func buildTestApp(allowedRoles ...string) *fiber.App {
	res := apphttp.NewResponder(nil, false)
	app := fiber.New(fiber.Config{ErrorHandler: res.ErrorHandler})
	app.Get("/protected",
		apphttp.AuthMiddleware(tokens, res),
		apphttp.RequireRole(res, allowedRoles...),
		func(c *fiber.Ctx) error {
			a := apphttp.GetActor(c)
			return c.JSON(fiber.Map{"user_id": a.UserID, "role": a.Role, "ua": a.UserAgent})
		},
	)
	return app
}

func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("User-Agent", "pruebas/1.0")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_AdminAccede(t *testing.T) {
	resp := doRequest(t, buildTestApp(entity.RoleAdmin), "Bearer tok-admin")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_MultiRol(t *testing.T) {
	resp := doRequest(t, buildTestApp(entity.RoleAdmin, entity.RoleTechnician), "bearer tok-tecnico")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "el esquema Bearer no distingue mayúsculas")
}

func TestRequireRole_RolInsuficiente(t *testing.T) {
	resp := doRequest(t, buildTestApp(entity.RoleAdmin), "Bearer tok-consulta")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuthMiddleware_Rechazos(t *testing.T) {
	app := buildTestApp(entity.Roles...)
	cases := map[string]string{
		"sin header":     "",
		"esquema basic":  "Basic dXNlcjpwYXNz",
		"token vacío":    "Bearer   ",
		"token inválido": "Bearer token.invalido.aqui",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			resp := doRequest(t, app, header)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_ActorEnLocals(t *testing.T) {
	resp := doRequest(t, buildTestApp(entity.RoleTechnician), "Bearer tok-tecnico")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		UserID int64  `json:"user_id"`
		Role   string `json:"role"`
		UA     string `json:"ua"`
	}
	require.NoError(t, decodeJSON(resp, &body))
	assert.Equal(t, int64(2), body.UserID)
	assert.Equal(t, entity.RoleTechnician, body.Role)
	assert.Equal(t, "pruebas/1.0", body.UA)
}

func TestResponder_500Generico(t *testing.T) {
	for _, debug := range []bool{false, true} {
		res := apphttp.NewResponder(nil, debug)
		app := fiber.New()
		app.Get("/falla", func(c *fiber.Ctx) error {
			return res.Fail(c, errors.New(`pq: relation "equipos" does not exist`), "equipos", "listar")
		})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/falla", nil), -1)
		require.NoError(t, err)

		var env struct {
			Success bool              `json:"success"`
			Message string            `json:"message"`
			Errors  map[string]string `json:"errors"`
		}
		require.NoError(t, decodeJSON(resp, &env))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, apphttp.MsgInternal, env.Message)
		if debug {
			assert.Contains(t, env.Errors["detalle"], "does not exist")
		} else {
			assert.Nil(t, env.Errors, "sin modo debug no se expone el detalle")
		}
	}
}
