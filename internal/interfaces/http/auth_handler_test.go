package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
)

func decodeJSON(resp *http.Response, v any) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

func TestLogin_MeYLogout(t *testing.T) {
	s := newServer(t)
	s.user(t, "ana", entity.RoleEngineer)

	resp, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ana@hospital.org", "password": testPassword})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	login := env.record(t)
	token, _ := login["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "Bearer", login["token_type"])

	resp, env = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ana", env.record(t)["username"])

	resp, _ = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "La sesión fue cerrada o expiró.", env.Message)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	s := newServer(t)
	s.user(t, "ana", entity.RoleEngineer)

	resp, env := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"username": "ana", "password": "incorrecta"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Credenciales inválidas.", env.Message)

	resp, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, env.fields(t))
}
