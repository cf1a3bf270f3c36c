package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	appanalytics "github.com/kamdevo/proyecto-eva/internal/application/analytics"
	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/application/auth"
	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	"github.com/kamdevo/proyecto-eva/internal/application/files"
	"github.com/kamdevo/proyecto-eva/internal/application/health"
	"github.com/kamdevo/proyecto-eva/internal/application/report"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/export"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/memory"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/storage"
	apphttp "github.com/kamdevo/proyecto-eva/internal/interfaces/http"
	"github.com/kamdevo/proyecto-eva/pkg/cache"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

const testPassword = "clave-segura-123"

// server aplicación completa sobre el almacenamiento en memoria.
type server struct {
	app   *fiber.App
	store *memory.Store
	auth  *auth.AuthUseCase
	reg   *resource.Registry
}

type fakePDF struct{}

func (fakePDF) EquipmentPDF(context.Context, *report.EquipmentReport) ([]byte, error) {
	return []byte("%PDF-1.3 prueba"), nil
}

func newServer(t *testing.T) *server {
	t.Helper()
	// El JWT valida la expiración contra la hora real.
	clk := clock.NewFixed(time.Now().UTC().Truncate(time.Second))
	st := memory.NewStore(clk)
	reg := resource.Catalog()

	sink, err := audit.NewSink(st, reg)
	require.NoError(t, err)
	resources := appresource.NewService(reg, st, st, sink, nil).
		WithTransform(entity.TableUsers, auth.PasswordTransform(bcrypt.MinCost))
	authUC, err := auth.NewAuthUseCase(reg, st, st, sink, clk, auth.JWTConfig{
		Secret: "secreto-http", ExpMinutes: 60, Issuer: "eva-test",
	}, nil)
	require.NoError(t, err)

	local, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	fileSvc, err := files.NewService(reg, st, st, local, sink, nil)
	require.NoError(t, err)

	mem := cache.NewMemory(clk)
	deps := apphttp.RouterDeps{
		Resources: resources,
		Dashboard: appanalytics.NewDashboardUseCase(reg, st, st, mem, clk, 15*time.Minute),
		Audit:     audit.NewService(sink, st, st),
		AuthUC:    authUC,
		Files:     fileSvc,
		Reports:   report.NewService(resources, fakePDF{}, export.NewExporter(), clk),
		Health:    health.NewService(st, mem, local.Root(), clk, nil),
		Responder: apphttp.NewResponder(nil, false),
	}
	app := apphttp.NewApp(apphttp.AppConfig{Name: "eva-test"}, nil, deps)
	return &server{app: app, store: st, auth: authUC, reg: reg}
}

// user crea un usuario con el rol dado y devuelve su token.
func (s *server) user(t *testing.T, username, role string) string {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	schema, err := s.reg.Get(entity.TableUsers)
	require.NoError(t, err)
	_, err = s.store.Insert(context.Background(), schema, map[string]any{
		"nombre": username, "email": username + "@hospital.org", "username": username,
		"password_hash": hash, "rol": role, "activo": true,
	})
	require.NoError(t, err)
	out, err := s.auth.Login(context.Background(), dto.LoginRequest{Login: username, Password: testPassword}, "", "")
	require.NoError(t, err)
	return out.Token
}

// envelope respuesta decodificada.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func (e envelope) record(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(e.Data, &out))
	return out
}

func (e envelope) page(t *testing.T) (items []map[string]any, meta map[string]any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(e.Data, &meta))
	raw, err := json.Marshal(meta["data"])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &items))
	return items, meta
}

func (e envelope) fields(t *testing.T) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(e.Errors, &out))
	return out
}

// do ejecuta la petición; body se serializa como JSON si no es nil.
func (s *server) do(t *testing.T, method, path, token string, body any) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(t, req)
}

func (s *server) send(t *testing.T, req *http.Request) (*http.Response, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	var env envelope
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func idOf(t *testing.T, rec map[string]any) int64 {
	t.Helper()
	id, ok := rec["id"].(float64)
	require.True(t, ok, "id numérico en %v", rec)
	return int64(id)
}
