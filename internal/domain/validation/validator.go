// Package validation interpreta reglas declarativas por campo (listas ordenadas de
// restricciones) sobre una entrada cruda y produce un mapa normalizado o un mapa
// campo → mensaje. Las reglas que consultan el almacenamiento (unicidad, existencia
// de llave foránea) se evalúan después de las reglas baratas del mismo campo.
package validation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mode distingue creación (se exigen los obligatorios) de actualización parcial
// (solo se validan las claves presentes).
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Lookup consulta de almacenamiento usada por Unique y Exists.
type Lookup interface {
	ExistsValue(ctx context.Context, table, column string, value any, exceptID int64) (bool, error)
}

// Env contexto de una validación: tabla del registro y, en actualizaciones, su ID
// (excluido de las comprobaciones de unicidad).
type Env struct {
	Lookup   Lookup
	Table    string
	ExceptID int64
}

// Cost orden de evaluación dentro de un campo: primero presencia y tipo, al final
// las idas al almacenamiento.
type Cost int

const (
	CostPresence Cost = iota
	CostType
	CostFormat
	CostStore
)

// Rule una restricción. Apply devuelve el valor normalizado, un Failure si el valor
// no cumple, u otro error si falló la infraestructura.
type Rule interface {
	Apply(ctx context.Context, field string, value any, env Env) (any, error)
	Cost() Cost
}

// Failure mensaje de validación dirigido al usuario.
type Failure string

func (f Failure) Error() string { return string(f) }

func failf(format string, args ...any) error {
	return Failure(fmt.Sprintf(format, args...))
}

// Field reglas de un campo.
type Field struct {
	Name  string
	Rules []Rule
}

// RuleSet reglas de una entidad.
type RuleSet []Field

// Validate evalúa todas las reglas. Todos los campos se validan (no se detiene en el
// primer campo inválido); dentro de un campo, la primera regla que falla corta las
// demás. Las claves de input que no tienen reglas se descartan.
func Validate(ctx context.Context, rs RuleSet, input map[string]any, mode Mode, env Env) (map[string]any, map[string]string, error) {
	out := make(map[string]any, len(rs))
	fails := make(map[string]string)

	for _, f := range rs {
		value, present := input[f.Name]
		required := hasRule[requiredRule](f.Rules)
		nullable := hasRule[nullableRule](f.Rules)

		if !present {
			if mode == ModeCreate && required {
				fails[f.Name] = fmt.Sprintf("El campo %s es obligatorio.", f.Name)
			}
			continue
		}

		if isBlank(value) {
			switch {
			case required:
				fails[f.Name] = fmt.Sprintf("El campo %s es obligatorio.", f.Name)
				continue
			case nullable:
				out[f.Name] = nil
				continue
			case value == nil:
				fails[f.Name] = fmt.Sprintf("El campo %s no puede ser nulo.", f.Name)
				continue
			}
		}

		normalized, err := applyRules(ctx, f, value, env)
		if err != nil {
			var fail Failure
			if errors.As(err, &fail) {
				fails[f.Name] = string(fail)
				continue
			}
			return nil, nil, fmt.Errorf("validar %s: %w", f.Name, err)
		}
		out[f.Name] = normalized
	}

	if len(fails) > 0 {
		return nil, fails, nil
	}
	return out, nil, nil
}

func applyRules(ctx context.Context, f Field, value any, env Env) (any, error) {
	rules := make([]Rule, len(f.Rules))
	copy(rules, f.Rules)
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Cost() < rules[j].Cost() })

	var err error
	for _, r := range rules {
		value, err = r.Apply(ctx, f.Name, value, env)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

func hasRule[T Rule](rules []Rule) bool {
	for _, r := range rules {
		if _, ok := r.(T); ok {
			return true
		}
	}
	return false
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
