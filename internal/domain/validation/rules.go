package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type requiredRule struct{}

func (requiredRule) Apply(_ context.Context, _ string, v any, _ Env) (any, error) { return v, nil }
func (requiredRule) Cost() Cost                                                   { return CostPresence }

type nullableRule struct{}

func (nullableRule) Apply(_ context.Context, _ string, v any, _ Env) (any, error) { return v, nil }
func (nullableRule) Cost() Cost                                                   { return CostPresence }

// Required el campo debe estar presente (en creación) y no vacío.
func Required() Rule { return requiredRule{} }

// Nullable el campo admite null / cadena vacía (se guarda como NULL).
func Nullable() Rule { return nullableRule{} }

type typeRule struct {
	apply func(field string, v any) (any, error)
}

func (r typeRule) Apply(_ context.Context, field string, v any, _ Env) (any, error) {
	return r.apply(field, v)
}
func (typeRule) Cost() Cost { return CostType }

// String texto; se recortan los espacios de los extremos.
func String() Rule {
	return typeRule{apply: func(field string, v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return nil, failf("El campo %s debe ser una cadena de texto.", field)
		}
		return strings.TrimSpace(s), nil
	}}
}

// Integer entero de 64 bits (acepta números JSON y texto numérico).
func Integer() Rule {
	return typeRule{apply: func(field string, v any) (any, error) {
		n, ok := toInt64(v)
		if !ok {
			return nil, failf("El campo %s debe ser un número entero.", field)
		}
		return n, nil
	}}
}

// Boolean verdadero/falso (acepta true/false, 1/0 y su forma de texto).
func Boolean() Rule {
	return typeRule{apply: func(field string, v any) (any, error) {
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "1", "true":
				return true, nil
			case "0", "false":
				return false, nil
			}
		default:
			if n, ok := toInt64(v); ok && (n == 0 || n == 1) {
				return n == 1, nil
			}
		}
		return nil, failf("El campo %s debe ser verdadero o falso.", field)
	}}
}

// Decimal número con decimales exactos (costos, precios).
func Decimal() Rule {
	return typeRule{apply: func(field string, v any) (any, error) {
		d, ok := toDecimal(v)
		if !ok {
			return nil, failf("El campo %s debe ser un número.", field)
		}
		return d, nil
	}}
}

// Date fecha YYYY-MM-DD (también acepta RFC3339 y conserva solo el día).
func Date() Rule {
	return typeRule{apply: func(field string, v any) (any, error) {
		t, ok := toTime(v)
		if !ok {
			return nil, failf("El campo %s no es una fecha válida.", field)
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}}
}

// DateTime fecha y hora RFC3339 o "YYYY-MM-DD HH:MM:SS".
func DateTime() Rule {
	return typeRule{apply: func(field string, v any) (any, error) {
		t, ok := toTime(v)
		if !ok {
			return nil, failf("El campo %s no es una fecha válida.", field)
		}
		return t, nil
	}}
}

// JSON cualquier valor JSON; se guarda serializado.
func JSON() Rule {
	return typeRule{apply: func(field string, v any) (any, error) {
		if raw, ok := v.(json.RawMessage); ok {
			return raw, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, failf("El campo %s debe ser un JSON válido.", field)
		}
		return json.RawMessage(b), nil
	}}
}

type formatRule struct {
	apply func(field string, v any) (any, error)
}

func (r formatRule) Apply(_ context.Context, field string, v any, _ Env) (any, error) {
	return r.apply(field, v)
}
func (formatRule) Cost() Cost { return CostFormat }

// MaxLength longitud máxima en caracteres.
func MaxLength(n int) Rule {
	return formatRule{apply: func(field string, v any) (any, error) {
		if s, ok := v.(string); ok && utf8.RuneCountInString(s) > n {
			return nil, failf("El campo %s no debe superar %d caracteres.", field, n)
		}
		return v, nil
	}}
}

// MinLength longitud mínima en caracteres.
func MinLength(n int) Rule {
	return formatRule{apply: func(field string, v any) (any, error) {
		if s, ok := v.(string); ok && utf8.RuneCountInString(s) < n {
			return nil, failf("El campo %s debe tener al menos %d caracteres.", field, n)
		}
		return v, nil
	}}
}

// Min valor numérico mínimo (enteros y decimales).
func Min(limit int64) Rule {
	return formatRule{apply: func(field string, v any) (any, error) {
		switch n := v.(type) {
		case int64:
			if n < limit {
				return nil, failf("El campo %s debe ser mayor o igual a %d.", field, limit)
			}
		case decimal.Decimal:
			if n.LessThan(decimal.NewFromInt(limit)) {
				return nil, failf("El campo %s debe ser mayor o igual a %d.", field, limit)
			}
		}
		return v, nil
	}}
}

// Email dirección de correo.
func Email() Rule {
	return formatRule{apply: func(field string, v any) (any, error) {
		s, _ := v.(string)
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return nil, failf("El campo %s debe ser un correo electrónico válido.", field)
		}
		return strings.ToLower(s), nil
	}}
}

// In el valor debe pertenecer a la enumeración.
func In(values ...string) Rule {
	return formatRule{apply: func(field string, v any) (any, error) {
		s := fmt.Sprint(v)
		for _, allowed := range values {
			if s == allowed {
				return v, nil
			}
		}
		return nil, failf("El valor seleccionado para %s no es válido.", field)
	}}
}

type uniqueRule struct {
	table, column string
}

// Unique el valor no debe existir en table.column (table vacío = tabla del registro,
// column vacío = nombre del campo). En actualizaciones se excluye el propio registro.
func Unique(table, column string) Rule { return uniqueRule{table: table, column: column} }

func (r uniqueRule) Apply(ctx context.Context, field string, v any, env Env) (any, error) {
	if env.Lookup == nil {
		return v, nil
	}
	table, column := r.table, r.column
	if table == "" {
		table = env.Table
	}
	if column == "" {
		column = field
	}
	exists, err := env.Lookup.ExistsValue(ctx, table, column, v, env.ExceptID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, failf("El valor del campo %s ya está registrado.", field)
	}
	return v, nil
}

func (uniqueRule) Cost() Cost { return CostStore }

type existsRule struct {
	table, column string
}

// Exists llave foránea: el valor debe existir en table.column (column vacío = id).
func Exists(table, column string) Rule { return existsRule{table: table, column: column} }

func (r existsRule) Apply(ctx context.Context, field string, v any, env Env) (any, error) {
	if env.Lookup == nil {
		return v, nil
	}
	column := r.column
	if column == "" {
		column = "id"
	}
	exists, err := env.Lookup.ExistsValue(ctx, r.table, column, v, 0)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, failf("El %s seleccionado no existe.", field)
	}
	return v, nil
}

func (existsRule) Cost() Cost { return CostStore }

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	}
	return decimal.Decimal{}, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}
