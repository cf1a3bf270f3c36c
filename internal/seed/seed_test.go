package seed_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/encoding/charmap"

	"github.com/kamdevo/proyecto-eva/internal/application/auth"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/memory"
	"github.com/kamdevo/proyecto-eva/internal/seed"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

const catalogXML = `<?xml version="1.0" encoding="ISO-8859-1"?>
<catalogo>
  <servicio nombre="Urgencias" codigo="URG" ubicacion="Bloque A">
    <descripcion>Atención inmediata</descripcion>
    <area nombre="Triage" piso="1"/>
    <area nombre="Reanimación" piso="1"/>
  </servicio>
  <servicio nombre="Cirugía">
    <area nombre="Quirófano 1" piso="3"><descripcion>Cirugía general</descripcion></area>
  </servicio>
  <servicio codigo="SIN-NOMBRE"/>
</catalogo>`

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func TestParseCatalog_ISO88591(t *testing.T) {
	raw := latin1(t, catalogXML)
	assert.NotContains(t, string(raw), "ó", "la entrada no es UTF-8")

	got, err := seed.ParseCatalog(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, got, 2, "un servicio sin nombre se ignora")
	assert.Equal(t, "Atención inmediata", got[0].Descripcion)
	require.Len(t, got[0].Areas, 2)
	assert.Equal(t, "Reanimación", got[0].Areas[1].Nombre)
	assert.Equal(t, "Cirugía general", got[1].Areas[0].Descripcion)
}

func TestParseCatalog_SinRaiz(t *testing.T) {
	_, err := seed.ParseCatalog(bytes.NewReader([]byte(`<otro/>`)))
	assert.Error(t, err)
}

func newSeeder(t *testing.T) (*seed.Seeder, *memory.Store, *resource.Registry) {
	t.Helper()
	st := memory.NewStore(clock.NewFixed(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)))
	reg := resource.Catalog()
	resources := appresource.NewService(reg, st, st, nil, nil).
		WithTransform(entity.TableUsers, auth.PasswordTransform(bcrypt.MinCost))
	return seed.NewSeeder(resources, st, st, nil), st, reg
}

func TestImportCatalog_Idempotente(t *testing.T) {
	s, st, _ := newSeeder(t)
	ctx := context.Background()
	catalog, err := seed.ParseCatalog(bytes.NewReader(latin1(t, catalogXML)))
	require.NoError(t, err)

	first, err := s.ImportCatalog(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ServicesCreated)
	assert.Equal(t, 3, first.AreasCreated)

	second, err := s.ImportCatalog(ctx, catalog)
	require.NoError(t, err)
	assert.Zero(t, second.ServicesCreated)
	assert.Zero(t, second.AreasCreated)
	assert.Equal(t, 5, second.Skipped)

	n, err := st.Count(ctx, resource.TableAreas, query.Eq("servicio_id", int64(1)))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestEnsureAdmin(t *testing.T) {
	s, st, reg := newSeeder(t)
	ctx := context.Background()
	admin := seed.Admin{Email: "admin@hospital.local", Username: "admin", Password: "administrador-2026"}

	created, err := s.EnsureAdmin(ctx, admin)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdmin(ctx, admin)
	require.NoError(t, err)
	assert.False(t, created)

	users, _ := reg.Get(entity.TableUsers)
	rec, err := st.FindBy(ctx, users, "username", "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, rec.String("rol"))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(rec.String("password_hash")), []byte(admin.Password)))
}

func TestEnsureAdmin_ContrasenaCorta(t *testing.T) {
	s, _, _ := newSeeder(t)
	_, err := s.EnsureAdmin(context.Background(), seed.Admin{Email: "a@b.co", Username: "admin", Password: "corta"})
	assert.Error(t, err)
}
