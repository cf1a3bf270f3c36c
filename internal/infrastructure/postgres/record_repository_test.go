package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func schema(t *testing.T, table string) *resource.Schema {
	t.Helper()
	s, err := resource.Catalog().Get(table)
	require.NoError(t, err)
	return s
}

func TestRecordRepo_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewRecordRepository(mock)
	s := schema(t, resource.TableServices)

	mock.ExpectExec(`DELETE FROM "servicios" WHERE "id" = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM "servicios" WHERE "id" = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), s, 4))
	assert.ErrorIs(t, repo.Delete(context.Background(), s, 5), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_ExistsValueExcluyeRegistro(t *testing.T) {
	mock := newMock(t)
	repo := NewRecordRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM "equipos" WHERE "codigo" = \$1 AND "id" <> \$2\)`).
		WithArgs("EQ-1", int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsValue(context.Background(), resource.TableEquipment, "codigo", "EQ-1", 7)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_FindByIDNoEncontrado(t *testing.T) {
	mock := newMock(t)
	repo := NewRecordRepository(mock)
	s := schema(t, resource.TableServices)

	cols := make([]string, 0)
	for _, c := range s.Columns() {
		cols = append(cols, c.Name)
	}
	mock.ExpectQuery(`SELECT .+ FROM "servicios" WHERE "id" = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows(cols))

	_, err := repo.FindByID(context.Background(), s, 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepo_ListSinResultadosNoConsultaFilas(t *testing.T) {
	mock := newMock(t)
	repo := NewRecordRepository(mock)
	s := schema(t, resource.TableEquipment)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "equipos" WHERE "servicio_id" IN \(\$1, \$2\)`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))

	rows, total, err := repo.List(context.Background(), s, query.Plan{
		Predicates: []query.Predicate{query.In("servicio_id", int64(1), int64(2))},
		Page:       1,
		PerPage:    15,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_CountConBusquedaEscapada(t *testing.T) {
	mock := newMock(t)
	repo := NewStatsRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "equipos" WHERE "activo" = \$1 AND \("nombre"::text ILIKE \$2 OR "codigo"::text ILIKE \$2\)`).
		WithArgs(true, `%50\%%`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.Count(context.Background(), resource.TableEquipment,
		query.Eq("activo", true), query.Search("50%", "nombre", "codigo"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepo_SumYCountBy(t *testing.T) {
	mock := newMock(t)
	repo := NewStatsRepository(mock)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\("costo"\), 0\)::numeric FROM "equipos" WHERE "servicio_id" = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(decimal.NewFromInt(3000)))
	mock.ExpectQuery(`SELECT COALESCE\("clasificacion_riesgo"::text, ''\) AS clave, COUNT\(\*\) FROM "equipos" GROUP BY 1`).
		WillReturnRows(pgxmock.NewRows([]string{"clave", "count"}).AddRow("IIA", int64(2)).AddRow("", int64(1)))

	sum, err := repo.Sum(context.Background(), resource.TableEquipment, "costo", query.Eq("servicio_id", int64(2)))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3000).Equal(sum))

	by, err := repo.CountBy(context.Background(), resource.TableEquipment, "clasificacion_riesgo")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"IIA": 2, "": 1}, by)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_Revoke(t *testing.T) {
	mock := newMock(t)
	repo := NewSessionRepository(mock)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE sesiones SET revocada_en = COALESCE\(revocada_en, \$2\) WHERE id = \$1`).
		WithArgs("s-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE sesiones SET revocada_en`).
		WithArgs("s-2", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.Revoke(context.Background(), "s-1", at))
	assert.ErrorIs(t, repo.Revoke(context.Background(), "s-2", at), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_RollbackAnteError(t *testing.T) {
	mock := newMock(t)
	runner := NewTxRunner(mock)
	boom := errors.New("fallo")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := runner.Run(context.Background(), func(repository.RecordRepository) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
