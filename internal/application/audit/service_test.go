package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/memory"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

var admin = entity.Actor{UserID: 1, Role: entity.RoleAdmin, IP: "10.0.0.5", UserAgent: "navegador"}

func setup(t *testing.T) (*memory.Store, *resource.Registry, *audit.Sink) {
	t.Helper()
	st := memory.NewStore(clock.NewFixed(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)))
	reg := resource.Catalog()
	sink, err := audit.NewSink(st, reg)
	require.NoError(t, err)
	return st, reg, sink
}

func auditRows(t *testing.T, st *memory.Store, reg *resource.Registry) []entity.Record {
	t.Helper()
	s, err := reg.Get(entity.TableAudit)
	require.NoError(t, err)
	rows, _, err := st.List(context.Background(), s, query.Plan{Sort: query.Sort{Column: entity.ColumnID}, Page: 1})
	require.NoError(t, err)
	return rows
}

func TestSink_RecordGuardaActorYOcultaColumnas(t *testing.T) {
	st, reg, sink := setup(t)

	user := entity.Record{"id": int64(7), "email": "ana@hospital.org", "password_hash": "$2a$secreto"}
	err := sink.Record(context.Background(), admin, audit.Entry{
		Action:      entity.AuditUpdate,
		Table:       entity.TableUsers,
		RecordID:    7,
		Description: "Actualización de usuario #7",
		Before:      user,
		After:       user,
	})
	require.NoError(t, err)

	rows := auditRows(t, st, reg)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "UPDATE", row.String("accion"))
	assert.Equal(t, int64(1), row.Int("usuario_id"))
	assert.Equal(t, int64(7), row.Int("registro_id"))
	assert.Equal(t, "10.0.0.5", row.String("ip"))
	assert.Equal(t, "navegador", row.String("user_agent"))

	var after map[string]any
	require.NoError(t, json.Unmarshal(row["valores_nuevos"].(json.RawMessage), &after))
	assert.Equal(t, "ana@hospital.org", after["email"])
	assert.NotContains(t, after, "password_hash")
}

func TestSink_LoginSinRegistro(t *testing.T) {
	st, reg, sink := setup(t)

	require.NoError(t, sink.Record(context.Background(), entity.Actor{UserID: 3}, audit.Entry{
		Action: entity.AuditLogin, Table: entity.TableUsers, Description: "Inicio de sesión",
	}))

	row := auditRows(t, st, reg)[0]
	assert.Nil(t, row["registro_id"])
	assert.Nil(t, row["ip"])
	assert.Nil(t, row["valores_anteriores"])
}

func TestService_DeleteRegistraEntradaPrevia(t *testing.T) {
	st, reg, sink := setup(t)
	svc := audit.NewService(sink, st, st)
	ctx := context.Background()

	require.NoError(t, sink.Record(ctx, admin, audit.Entry{
		Action: entity.AuditCreate, Table: resource.TableServices, RecordID: 4, Description: "Creación de servicio #4",
	}))

	require.NoError(t, svc.Delete(ctx, admin, 1))

	rows := auditRows(t, st, reg)
	require.Len(t, rows, 1, "la entrada original se elimina y queda la que documenta el borrado")
	assert.Equal(t, "DELETE", rows[0].String("accion"))
	assert.Equal(t, entity.TableAudit, rows[0].String("tabla"))
	assert.Equal(t, int64(1), rows[0].Int("registro_id"))
	assert.Contains(t, string(rows[0]["valores_anteriores"].(json.RawMessage)), "Creación de servicio #4")
}

func TestService_DeleteSoloAdministrador(t *testing.T) {
	st, _, sink := setup(t)
	svc := audit.NewService(sink, st, st)

	err := svc.Delete(context.Background(), entity.Actor{UserID: 2, Role: entity.RoleEngineer}, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = svc.Delete(context.Background(), admin, 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Stats(t *testing.T) {
	st, _, sink := setup(t)
	svc := audit.NewService(sink, st, st)
	ctx := context.Background()

	for _, e := range []audit.Entry{
		{Action: entity.AuditCreate, Table: resource.TableEquipment, RecordID: 1},
		{Action: entity.AuditUpdate, Table: resource.TableEquipment, RecordID: 1},
		{Action: entity.AuditCreate, Table: resource.TableServices, RecordID: 2},
	} {
		require.NoError(t, sink.Record(ctx, admin, e))
	}

	out, err := svc.Stats(ctx, admin, query.Params{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Total)
	assert.Equal(t, map[string]int64{"CREATE": 2, "UPDATE": 1}, out.PorAccion)
	assert.Equal(t, map[string]int64{resource.TableEquipment: 2, resource.TableServices: 1}, out.PorTabla)

	filtered, err := svc.Stats(ctx, admin, query.Params{"tabla": {resource.TableServices}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.Total)
}
