package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
)

var _ repository.StatsRepository = (*StatsRepo)(nil)

// StatsRepo consultas agregadas de solo lectura para el dashboard y los conteos de
// dependientes.
type StatsRepo struct {
	db Querier
}

// NewStatsRepository construye el adaptador de estadísticas.
func NewStatsRepository(db Querier) *StatsRepo {
	return &StatsRepo{db: db}
}

// Count filas de table que cumplen los predicados.
func (r *StatsRepo) Count(ctx context.Context, table string, preds ...query.Predicate) (int64, error) {
	var b builder
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", ident(table), b.where(preds))
	var n int64
	if err := r.db.QueryRow(ctx, sql, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("stats.Count %s: %w", table, err)
	}
	return n, nil
}

// Sum usa COALESCE para devolver cero si no hay filas.
func (r *StatsRepo) Sum(ctx context.Context, table, column string, preds ...query.Predicate) (decimal.Decimal, error) {
	var b builder
	sql := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0)::numeric FROM %s%s", ident(column), ident(table), b.where(preds))
	var total decimal.Decimal
	if err := r.db.QueryRow(ctx, sql, b.args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("stats.Sum %s.%s: %w", table, column, err)
	}
	return total, nil
}

// CountBy agrupa por el valor textual de column; NULL se agrupa bajo "".
func (r *StatsRepo) CountBy(ctx context.Context, table, column string, preds ...query.Predicate) (map[string]int64, error) {
	var b builder
	sql := fmt.Sprintf("SELECT COALESCE(%s::text, '') AS clave, COUNT(*) FROM %s%s GROUP BY 1",
		ident(column), ident(table), b.where(preds))

	rows, err := r.db.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, fmt.Errorf("stats.CountBy %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("stats.CountBy scan: %w", err)
		}
		out[key] = n
	}
	return out, rows.Err()
}
