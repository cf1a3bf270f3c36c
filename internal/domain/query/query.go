// Package query traduce los parámetros de un listado (search, filtros, rango de fechas,
// orden y página) a predicados declarativos que cada adaptador de almacenamiento
// interpreta a su manera (SQL en postgres, evaluación directa en memoria).
package query

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Límites de paginación.
const (
	DefaultPerPage = 15
	MaxPerPage     = 100
	// MaxPage tope de page; mantiene el offset dentro de int32 con cualquier per_page.
	MaxPage = math.MaxInt32 / MaxPerPage
)

// Op operador de un predicado.
type Op int

const (
	OpEq     Op = iota // Column = Values[0]
	OpIn               // Column IN Values
	OpSearch           // cualquiera de Columns contiene Values[0] (sin distinguir mayúsculas)
	OpGte              // Column >= Values[0]
	OpLte              // Column <= Values[0]
	OpLt               // Column < Values[0]
)

// Predicate condición sobre una o varias columnas.
type Predicate struct {
	Op      Op
	Column  string
	Columns []string
	Values  []any
}

func Eq(col string, v any) Predicate { return Predicate{Op: OpEq, Column: col, Values: []any{v}} }

func In(col string, vs ...any) Predicate { return Predicate{Op: OpIn, Column: col, Values: vs} }

func Gte(col string, v any) Predicate { return Predicate{Op: OpGte, Column: col, Values: []any{v}} }

func Lte(col string, v any) Predicate { return Predicate{Op: OpLte, Column: col, Values: []any{v}} }

func Lt(col string, v any) Predicate { return Predicate{Op: OpLt, Column: col, Values: []any{v}} }

// Search combina con OR una búsqueda por subcadena sobre cols.
func Search(term string, cols ...string) Predicate {
	return Predicate{Op: OpSearch, Columns: cols, Values: []any{term}}
}

// Kind tipo de valor de un filtro; determina cómo se convierte el texto del query string.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindBool
)

// Filter parámetro reconocido: Param es el nombre en el query string, Column la columna.
type Filter struct {
	Param  string
	Column string
	Kind   Kind
}

// Sort orden del listado.
type Sort struct {
	Column string
	Desc   bool
}

// Spec configuración del listado de una entidad.
type Spec struct {
	Searchable  []string
	Filters     []Filter
	Sortable    []string // columnas admitidas en order_by
	DefaultSort Sort
	DateColumn  string // columna de date_from / date_to
}

// Plan resultado de Build: predicados + orden + ventana de página.
type Plan struct {
	Predicates []Predicate
	Sort       Sort
	Page       int
	PerPage    int
}

// Offset filas a saltar para la página actual; nunca negativo.
func (p Plan) Offset() int {
	if p.Page <= 1 || p.PerPage <= 0 {
		return 0
	}
	return (min(p.Page, MaxPage) - 1) * min(p.PerPage, MaxPerPage)
}

// With devuelve una copia del plan con predicados adicionales.
func (p Plan) With(preds ...Predicate) Plan {
	out := p
	out.Predicates = make([]Predicate, 0, len(p.Predicates)+len(preds))
	out.Predicates = append(out.Predicates, p.Predicates...)
	out.Predicates = append(out.Predicates, preds...)
	return out
}

// Params parámetros crudos del query string (una clave puede repetirse).
type Params map[string][]string

// First primer valor no vacío de key.
func (p Params) First(key string) string {
	for _, v := range p[key] {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// Add agrega un valor normalizando la clave: "servicios[]" se guarda como "servicios".
func (p Params) Add(key, value string) {
	key = strings.TrimSuffix(strings.TrimSpace(key), "[]")
	if key == "" {
		return
	}
	p[key] = append(p[key], value)
}

// ClampPerPage ajusta n al rango [1, MaxPerPage].
func ClampPerPage(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPerPage {
		return MaxPerPage
	}
	return n
}

// LastPage número de la última página (mínimo 1).
func LastPage(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

// Build construye el plan. Los parámetros no reconocidos se ignoran, igual que los
// valores que no se pueden convertir al tipo del filtro.
func Build(spec Spec, params Params) Plan {
	plan := Plan{
		Sort:    resolveSort(spec, params),
		Page:    1,
		PerPage: DefaultPerPage,
	}

	if raw := params.First("per_page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			plan.PerPage = ClampPerPage(n)
		}
	}
	if raw := params.First("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 1 {
			plan.Page = min(n, MaxPage)
		}
	}

	if term := params.First("search"); term != "" && len(spec.Searchable) > 0 {
		plan.Predicates = append(plan.Predicates, Search(term, spec.Searchable...))
	}

	for _, f := range spec.Filters {
		values := splitValues(params[f.Param])
		if len(values) == 0 {
			continue
		}
		converted := make([]any, 0, len(values))
		for _, raw := range values {
			if v, ok := convert(f.Kind, raw); ok {
				converted = append(converted, v)
			}
		}
		switch len(converted) {
		case 0:
		case 1:
			plan.Predicates = append(plan.Predicates, Eq(f.Column, converted[0]))
		default:
			plan.Predicates = append(plan.Predicates, In(f.Column, converted...))
		}
	}

	if spec.DateColumn != "" {
		if from, _, ok := parseDate(params.First("date_from")); ok {
			plan.Predicates = append(plan.Predicates, Gte(spec.DateColumn, from))
		}
		if to, dateOnly, ok := parseDate(params.First("date_to")); ok {
			if dateOnly {
				plan.Predicates = append(plan.Predicates, Lt(spec.DateColumn, to.AddDate(0, 0, 1)))
			} else {
				plan.Predicates = append(plan.Predicates, Lte(spec.DateColumn, to))
			}
		}
	}

	return plan
}

func resolveSort(spec Spec, params Params) Sort {
	sort := spec.DefaultSort
	if sort.Column == "" {
		sort = Sort{Column: "created_at", Desc: true}
	}
	if requested := params.First("order_by"); requested != "" {
		for _, col := range spec.Sortable {
			if col == requested {
				sort.Column = col
				break
			}
		}
	}
	switch strings.ToLower(params.First("order_direction")) {
	case "asc":
		sort.Desc = false
	case "desc":
		sort.Desc = true
	}
	return sort
}

// splitValues admite valores repetidos (?a=1&a=2) y separados por comas (?a=1,2).
func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func convert(kind Kind, raw string) (any, bool) {
	switch kind {
	case KindInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		return n, err == nil
	case KindBool:
		return ParseBool(raw)
	default:
		return raw, true
	}
}

// ParseBool acepta true/false, 1/0, si/no.
func ParseBool(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "si", "sí", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// parseDate acepta YYYY-MM-DD (dateOnly) o RFC3339.
func parseDate(raw string) (t time.Time, dateOnly bool, ok bool) {
	if raw == "" {
		return time.Time{}, false, false
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d, true, true
	}
	if d, err := time.Parse(time.RFC3339, raw); err == nil {
		return d, false, true
	}
	return time.Time{}, false, false
}
