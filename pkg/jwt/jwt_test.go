package jwt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgjwt "github.com/kamdevo/proyecto-eva/pkg/jwt"
)

const (
	testSecret  = "test-secret-key-for-unit-tests"
	testSession = "5f0c3c8e-7d36-4b8e-9c55-4a3f0e0d9a11"
)

func TestGenerateAndParse(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, 42, "ingeniero", testSession, "eva-test", 60, time.Now())
	require.NoError(t, err)

	out, err := pkgjwt.Parse(testSecret, tok)
	require.NoError(t, err)

	assert.Equal(t, int64(42), out.UserID)
	assert.Equal(t, "ingeniero", out.Role)
	assert.Equal(t, testSession, out.SessionID)
	assert.False(t, out.ExpiresAt.IsZero())
}

func TestParse_TokenExpirado(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, 1, "administrador", testSession, "eva-test", 60, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "token expirado debe retornar error")
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, 1, "administrador", testSession, "eva-test", 60, time.Now())
	require.NoError(t, err)

	_, err = pkgjwt.Parse("otro-secret-completamente-distinto", tok)
	assert.Error(t, err)
}

func TestParse_SinSesion(t *testing.T) {
	tok, err := pkgjwt.Generate(testSecret, 1, "administrador", "", "eva-test", 60, time.Now())
	require.NoError(t, err)

	_, err = pkgjwt.Parse(testSecret, tok)
	assert.Error(t, err, "un token sin jti no identifica una sesión")
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := pkgjwt.Generate("", 1, "administrador", testSession, "eva-test", 60, time.Now())
	assert.Error(t, err)
}
