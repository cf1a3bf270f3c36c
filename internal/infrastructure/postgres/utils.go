package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kamdevo/proyecto-eva/internal/domain/query"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// ident cita un nombre de tabla o columna. Los nombres vienen siempre del catálogo
// de esquemas, nunca de la petición.
func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// builder acumula argumentos posicionales ($1, $2...) mientras se arma el SQL.
type builder struct {
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// where traduce los predicados a una cláusula WHERE (vacía si no hay predicados).
func (b *builder) where(preds []query.Predicate) string {
	if len(preds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, b.predicate(p))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func (b *builder) predicate(p query.Predicate) string {
	switch p.Op {
	case query.OpEq:
		return ident(p.Column) + " = " + b.arg(p.Values[0])
	case query.OpIn:
		if len(p.Values) == 0 {
			return "FALSE"
		}
		ph := make([]string, len(p.Values))
		for i, v := range p.Values {
			ph[i] = b.arg(v)
		}
		return ident(p.Column) + " IN (" + strings.Join(ph, ", ") + ")"
	case query.OpSearch:
		term := b.arg("%" + likeEscaper.Replace(fmt.Sprint(p.Values[0])) + "%")
		ors := make([]string, len(p.Columns))
		for i, col := range p.Columns {
			ors[i] = ident(col) + "::text ILIKE " + term
		}
		return "(" + strings.Join(ors, " OR ") + ")"
	case query.OpGte:
		return ident(p.Column) + " >= " + b.arg(p.Values[0])
	case query.OpLte:
		return ident(p.Column) + " <= " + b.arg(p.Values[0])
	case query.OpLt:
		return ident(p.Column) + " < " + b.arg(p.Values[0])
	}
	return "TRUE"
}

// orderBy ORDER BY con desempate por id en la misma dirección.
func orderBy(s query.Sort) string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	col := s.Column
	if col == "" {
		col = "created_at"
	}
	if col == "id" {
		return " ORDER BY " + ident(col) + " " + dir
	}
	return " ORDER BY " + ident(col) + " " + dir + ", " + ident("id") + " " + dir
}
