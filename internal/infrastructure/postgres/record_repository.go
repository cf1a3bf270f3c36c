package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

var _ repository.RecordRepository = (*RecordRepo)(nil)

// RecordRepo implementación genérica del puerto RecordRepository: arma el SQL a partir
// del esquema de cada entidad.
type RecordRepo struct {
	db Querier
}

// NewRecordRepository construye el adaptador sobre un pool o una transacción.
func NewRecordRepository(db Querier) *RecordRepo {
	return &RecordRepo{db: db}
}

func selectList(s *resource.Schema) string {
	cols := s.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = ident(c.Name)
	}
	return strings.Join(names, ", ")
}

// writableColumns columnas de values que existen en el esquema, en orden estable.
func writableColumns(s *resource.Schema, values map[string]any) []string {
	cols := make([]string, 0, len(values))
	for k := range values {
		if k == entity.ColumnID || k == entity.ColumnCreatedAt || k == entity.ColumnUpdatedAt {
			continue
		}
		if _, ok := s.Column(k); ok {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

// Insert persiste values y devuelve la fila completa.
func (r *RecordRepo) Insert(ctx context.Context, s *resource.Schema, values map[string]any) (entity.Record, error) {
	var b builder
	cols := writableColumns(s, values)

	var sql string
	if len(cols) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", ident(s.Table), selectList(s))
	} else {
		names := make([]string, len(cols))
		ph := make([]string, len(cols))
		for i, c := range cols {
			names[i] = ident(c)
			ph[i] = b.arg(toDB(values[c]))
		}
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
			ident(s.Table), strings.Join(names, ", "), strings.Join(ph, ", "), selectList(s))
	}

	rec, err := scanRecord(s, r.db.QueryRow(ctx, sql, b.args...))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert %s: %w", s.Table, domain.ErrDuplicate)
		}
		return nil, fmt.Errorf("insert %s: %w", s.Table, err)
	}
	return rec, nil
}

// FindByID obtiene una fila por id.
func (r *RecordRepo) FindByID(ctx context.Context, s *resource.Schema, id int64) (entity.Record, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", selectList(s), ident(s.Table), ident(entity.ColumnID))
	rec, err := scanRecord(s, r.db.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get %s by id: %w", s.Table, err)
	}
	return rec, nil
}

// FindBy primera fila (menor id) con column = value.
func (r *RecordRepo) FindBy(ctx context.Context, s *resource.Schema, column string, value any) (entity.Record, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY %s LIMIT 1",
		selectList(s), ident(s.Table), ident(column), ident(entity.ColumnID))
	rec, err := scanRecord(s, r.db.QueryRow(ctx, sql, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get %s by %s: %w", s.Table, column, err)
	}
	return rec, nil
}

// Update modifica solo las columnas presentes y refresca updated_at.
func (r *RecordRepo) Update(ctx context.Context, s *resource.Schema, id int64, values map[string]any) (entity.Record, error) {
	var b builder
	cols := writableColumns(s, values)
	sets := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		sets = append(sets, ident(c)+" = "+b.arg(toDB(values[c])))
	}
	sets = append(sets, ident(entity.ColumnUpdatedAt)+" = now()")

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING %s",
		ident(s.Table), strings.Join(sets, ", "), ident(entity.ColumnID), b.arg(id), selectList(s))
	rec, err := scanRecord(s, r.db.QueryRow(ctx, sql, b.args...))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, domain.ErrNotFound
		case isUniqueViolation(err):
			return nil, fmt.Errorf("update %s: %w", s.Table, domain.ErrDuplicate)
		}
		return nil, fmt.Errorf("update %s: %w", s.Table, err)
	}
	return rec, nil
}

// Delete elimina la fila; ErrNotFound si no existía.
func (r *RecordRepo) Delete(ctx context.Context, s *resource.Schema, id int64) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", ident(s.Table), ident(entity.ColumnID))
	tag, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List página filtrada y ordenada, más el total sin paginar.
func (r *RecordRepo) List(ctx context.Context, s *resource.Schema, plan query.Plan) ([]entity.Record, int64, error) {
	var cb builder
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", ident(s.Table), cb.where(plan.Predicates))
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, cb.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", s.Table, err)
	}
	if total == 0 {
		return []entity.Record{}, 0, nil
	}

	var b builder
	sql := fmt.Sprintf("SELECT %s FROM %s%s%s", selectList(s), ident(s.Table), b.where(plan.Predicates), orderBy(plan.Sort))
	if plan.PerPage > 0 {
		sql += " LIMIT " + b.arg(plan.PerPage) + " OFFSET " + b.arg(plan.Offset())
	}

	rows, err := r.db.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.Table, err)
	}
	defer rows.Close()

	out := []entity.Record{}
	for rows.Next() {
		rec, err := scanRecord(s, rows)
		if err != nil {
			return nil, 0, fmt.Errorf("list %s scan: %w", s.Table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list %s rows: %w", s.Table, err)
	}
	return out, total, nil
}

// ExistsValue informa si table.column = value (excluyendo exceptID si es > 0).
func (r *RecordRepo) ExistsValue(ctx context.Context, table, column string, value any, exceptID int64) (bool, error) {
	var b builder
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s = %s", ident(table), ident(column), b.arg(value))
	if exceptID > 0 {
		sql += fmt.Sprintf(" AND %s <> %s", ident(entity.ColumnID), b.arg(exceptID))
	}
	sql += ")"

	var exists bool
	if err := r.db.QueryRow(ctx, sql, b.args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists %s.%s: %w", table, column, err)
	}
	return exists, nil
}

// scanRecord lee una fila con destinos tipados según el esquema.
func scanRecord(s *resource.Schema, row pgx.Row) (entity.Record, error) {
	cols := s.Columns()
	dest := make([]any, len(cols))
	for i, c := range cols {
		dest[i] = scanTarget(c.Type)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	rec := make(entity.Record, len(cols))
	for i, c := range cols {
		rec[c.Name] = fromTarget(dest[i])
	}
	return rec, nil
}

func scanTarget(t resource.FieldType) any {
	switch t {
	case resource.TypeInteger:
		return new(*int64)
	case resource.TypeDecimal:
		return new(decimal.NullDecimal)
	case resource.TypeBool:
		return new(*bool)
	case resource.TypeDate, resource.TypeDateTime:
		return new(*time.Time)
	case resource.TypeJSON:
		return new([]byte)
	default:
		return new(*string)
	}
}

func fromTarget(v any) any {
	switch p := v.(type) {
	case **int64:
		if *p == nil {
			return nil
		}
		return **p
	case *decimal.NullDecimal:
		if !p.Valid {
			return nil
		}
		return p.Decimal
	case **bool:
		if *p == nil {
			return nil
		}
		return **p
	case **time.Time:
		if *p == nil {
			return nil
		}
		return **p
	case *[]byte:
		if *p == nil {
			return nil
		}
		return json.RawMessage(*p)
	case **string:
		if *p == nil {
			return nil
		}
		return **p
	}
	return nil
}

// toDB adapta valores del dominio a tipos que pgx codifica directamente.
func toDB(v any) any {
	if raw, ok := v.(json.RawMessage); ok {
		if raw == nil {
			return nil
		}
		return string(raw)
	}
	return v
}
