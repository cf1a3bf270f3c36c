package memory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
)

func matchesAll(rec entity.Record, preds []query.Predicate) bool {
	for _, p := range preds {
		if !matches(rec, p) {
			return false
		}
	}
	return true
}

// matches evalúa un predicado con la misma semántica que el SQL generado:
// NULL no cumple ninguna comparación y la búsqueda no distingue mayúsculas.
func matches(rec entity.Record, p query.Predicate) bool {
	switch p.Op {
	case query.OpEq:
		return len(p.Values) == 1 && equal(rec[p.Column], p.Values[0])
	case query.OpIn:
		for _, v := range p.Values {
			if equal(rec[p.Column], v) {
				return true
			}
		}
		return false
	case query.OpSearch:
		if len(p.Values) != 1 {
			return false
		}
		term := strings.ToLower(text(p.Values[0]))
		for _, col := range p.Columns {
			if rec[col] != nil && strings.Contains(strings.ToLower(text(rec[col])), term) {
				return true
			}
		}
		return false
	case query.OpGte, query.OpLte, query.OpLt:
		if len(p.Values) != 1 || rec[p.Column] == nil || p.Values[0] == nil {
			return false
		}
		c := compare(rec[p.Column], p.Values[0])
		switch p.Op {
		case query.OpGte:
			return c >= 0
		case query.OpLte:
			return c <= 0
		default:
			return c < 0
		}
	}
	return false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return compare(a, b) == 0
}

// compare ordena dos valores de columna; nil es mayor que cualquier valor (como
// NULLS LAST en orden ascendente).
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if x, ok := toInt(a); ok {
		if y, ok := toInt(b); ok {
			return compareInts(x, y)
		}
	}
	if x, ok := toDecimal(a); ok {
		if y, ok := toDecimal(b); ok {
			return x.Cmp(y)
		}
	}
	if x, ok := a.(time.Time); ok {
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(text(a), text(b))
}

func compareInts(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int64:
		return decimal.NewFromInt(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Decimal{}, false
}

// text representación textual equivalente a col::text en PostgreSQL.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	case json.RawMessage:
		return string(x)
	}
	return fmt.Sprint(v)
}
