package resource_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/memory"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

var (
	engineer = entity.Actor{UserID: 5, Role: entity.RoleEngineer, IP: "10.1.1.1"}
	viewer   = entity.Actor{UserID: 6, Role: entity.RoleViewer}
	admin    = entity.Actor{UserID: 1, Role: entity.RoleAdmin}
)

type fixture struct {
	svc   *appresource.Service
	store *memory.Store
	reg   *resource.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.NewStore(clock.NewFixed(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)))
	reg := resource.Catalog()
	sink, err := audit.NewSink(st, reg)
	require.NoError(t, err)
	return &fixture{svc: appresource.NewService(reg, st, st, sink, nil), store: st, reg: reg}
}

func (f *fixture) create(t *testing.T, table string, input map[string]any) entity.Record {
	t.Helper()
	rec, err := f.svc.Create(context.Background(), engineer, table, input)
	require.NoError(t, err)
	return rec
}

func (f *fixture) auditActions(t *testing.T) []string {
	t.Helper()
	s, _ := f.reg.Get(entity.TableAudit)
	rows, _, err := f.store.List(context.Background(), s, query.Plan{Sort: query.Sort{Column: entity.ColumnID}, Page: 1})
	require.NoError(t, err)
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.String("accion") + " " + r.String("tabla")
	}
	return out
}

func (f *fixture) lastAuditDescription(t *testing.T) string {
	t.Helper()
	s, _ := f.reg.Get(entity.TableAudit)
	rows, _, err := f.store.List(context.Background(), s, query.Plan{Sort: query.Sort{Column: entity.ColumnID, Desc: true}, Page: 1, PerPage: 1})
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	return rows[0].String("descripcion")
}

func TestCreate_DefaultsPropietarioYRelaciones(t *testing.T) {
	f := newFixture(t)
	svc := f.create(t, resource.TableServices, map[string]any{"nombre": "UCI"})

	eq := f.create(t, resource.TableEquipment, map[string]any{
		"nombre":      "Monitor",
		"codigo":      "EQ-001",
		"servicio_id": float64(svc.ID()),
		"costo":       "1500.50",
		"campo_extra": "ignorado",
	})

	assert.Equal(t, true, eq["activo"])
	assert.Equal(t, int64(5), eq.Int("usuario_id"))
	assert.NotContains(t, eq, "campo_extra")
	require.IsType(t, entity.Record{}, eq["servicio"])
	assert.Equal(t, "UCI", eq["servicio"].(entity.Record).String("nombre"))
	assert.Nil(t, eq["area"])
	assert.Equal(t, []string{"CREATE servicios", "CREATE equipos"}, f.auditActions(t))
}

func TestCreate_ErroresDeValidacion(t *testing.T) {
	f := newFixture(t)
	f.create(t, resource.TableEquipment, map[string]any{"nombre": "Monitor", "codigo": "EQ-001"})

	_, err := f.svc.Create(context.Background(), engineer, resource.TableEquipment, map[string]any{
		"codigo":      "EQ-001",
		"servicio_id": 99,
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "nombre")
	assert.Contains(t, verr.Fields, "codigo")
	assert.Contains(t, verr.Fields, "servicio_id")
}

func TestUpdate_ParcialYUnicidadExcluyeActual(t *testing.T) {
	f := newFixture(t)
	eq := f.create(t, resource.TableEquipment, map[string]any{"nombre": "Monitor", "codigo": "EQ-001", "marca": "Philips"})

	upd, err := f.svc.Update(context.Background(), engineer, resource.TableEquipment, eq.ID(), map[string]any{
		"codigo": "EQ-001",
		"modelo": "MX450",
	})
	require.NoError(t, err)
	assert.Equal(t, "Philips", upd.String("marca"))
	assert.Equal(t, "MX450", upd.String("modelo"))

	_, err = f.svc.Update(context.Background(), engineer, resource.TableEquipment, 42, map[string]any{"modelo": "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete_BloqueadoPorDependientesActivos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.create(t, resource.TableServices, map[string]any{"nombre": "Urgencias"})
	area := f.create(t, resource.TableAreas, map[string]any{"nombre": "Box 1", "servicio_id": svc.ID()})
	f.create(t, resource.TableAreas, map[string]any{"nombre": "Box 2", "servicio_id": svc.ID()})

	err := f.svc.Delete(ctx, engineer, resource.TableServices, svc.ID())
	var cerr *domain.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, int64(2), cerr.Count)
	assert.Contains(t, cerr.Message, "2 áreas activas")

	_, err = f.svc.ToggleStatus(ctx, engineer, resource.TableAreas, area.ID())
	require.NoError(t, err)
	err = f.svc.Delete(ctx, engineer, resource.TableServices, svc.ID())
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, int64(1), cerr.Count)
}

func TestDelete_EquipoConMantenimientos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.create(t, resource.TableEquipment, map[string]any{"nombre": "Monitor", "codigo": "EQ-001"})
	libre := f.create(t, resource.TableEquipment, map[string]any{"nombre": "Bomba", "codigo": "EQ-002"})
	f.create(t, resource.TableMaintenance, map[string]any{
		"equipo_id": eq.ID(), "tipo": "preventivo", "fecha_programada": "2026-05-01",
	})

	assert.ErrorIs(t, f.svc.Delete(ctx, engineer, resource.TableEquipment, eq.ID()), domain.ErrConflict)
	require.NoError(t, f.svc.Delete(ctx, engineer, resource.TableEquipment, libre.ID()))

	_, err := f.svc.Get(ctx, engineer, resource.TableEquipment, libre.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestToggleStatus(t *testing.T) {
	f := newFixture(t)
	rec := f.create(t, resource.TableManufacturers, map[string]any{"nombre": "Philips"})

	off, err := f.svc.ToggleStatus(context.Background(), engineer, resource.TableManufacturers, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, false, off["activo"])

	on, err := f.svc.ToggleStatus(context.Background(), engineer, resource.TableManufacturers, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, true, on["activo"])

	_, err = f.svc.ToggleStatus(context.Background(), engineer, resource.TableMaintenance, 1)
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestListActiveYListBy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	uci := f.create(t, resource.TableServices, map[string]any{"nombre": "UCI"})
	urg := f.create(t, resource.TableServices, map[string]any{"nombre": "Urgencias"})
	f.create(t, resource.TableEquipment, map[string]any{"nombre": "Monitor", "codigo": "A", "servicio_id": uci.ID()})
	f.create(t, resource.TableEquipment, map[string]any{"nombre": "Bomba", "codigo": "B", "servicio_id": uci.ID()})
	apagado := f.create(t, resource.TableEquipment, map[string]any{"nombre": "Ventilador", "codigo": "C", "servicio_id": urg.ID()})
	_, err := f.svc.ToggleStatus(ctx, engineer, resource.TableEquipment, apagado.ID())
	require.NoError(t, err)

	page, err := f.svc.List(ctx, viewer, resource.TableEquipment, query.Params{
		"servicios": {"1", "2"}, "order_by": {"nombre"}, "order_direction": {"asc"}, "per_page": {"2"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Bomba", page.Items[0].String("nombre"))

	active, err := f.svc.Active(ctx, viewer, resource.TableEquipment)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Bomba", active[0].String("nombre"))

	byService, err := f.svc.ListBy(ctx, viewer, resource.TableEquipment, "servicio", urg.ID(), query.Params{})
	require.NoError(t, err)
	require.Len(t, byService.Items, 1)
	assert.Equal(t, "Ventilador", byService.Items[0].String("nombre"))

	_, err = f.svc.ListBy(ctx, viewer, resource.TableEquipment, "inexistente", 1, query.Params{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestPermisos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, viewer, resource.TableServices, map[string]any{"nombre": "UCI"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.List(ctx, engineer, entity.TableUsers, query.Params{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Create(ctx, admin, entity.TableAudit, map[string]any{"accion": "CREATE"})
	assert.ErrorIs(t, err, domain.ErrOperationBlocked)

	_, err = f.svc.List(ctx, admin, "no_existe", query.Params{})
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}

func TestTransformUsuarios(t *testing.T) {
	f := newFixture(t)
	f.svc.WithTransform(entity.TableUsers, func(_ context.Context, values map[string]any) error {
		if p, ok := values["password"].(string); ok {
			values["password_hash"] = "hash:" + p
		}
		return nil
	})

	rec, err := f.svc.Create(context.Background(), admin, entity.TableUsers, map[string]any{
		"nombre": "Ana", "email": "ANA@hospital.org", "username": "ana", "password": "clave-segura", "rol": entity.RoleTechnician,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@hospital.org", rec.String("email"))
	assert.NotContains(t, rec, "password")
	assert.NotContains(t, rec, "password_hash")

	s, _ := f.reg.Get(entity.TableUsers)
	stored, err := f.store.FindByID(context.Background(), s, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "hash:clave-segura", stored.String("password_hash"))

	err = f.svc.Delete(context.Background(), entity.Actor{UserID: rec.ID(), Role: entity.RoleAdmin}, entity.TableUsers, rec.ID())
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestExportRegistraVista(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"A", "B", "C"} {
		f.create(t, resource.TableOwners, map[string]any{"nombre": n})
	}

	rows, truncated, err := f.svc.Export(context.Background(), viewer, resource.TableOwners, query.Params{"per_page": {"1"}}, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.True(t, truncated)
	assert.Contains(t, f.auditActions(t), "VIEW propietarios")
	assert.Equal(t, "Exportación de 2 registros de propietarios", f.lastAuditDescription(t),
		"se registra la cantidad exportada, no la consultada")

	rows, truncated, err = f.svc.Export(context.Background(), viewer, resource.TableOwners, nil, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.False(t, truncated)
}
