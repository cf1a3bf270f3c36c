// Package resource describe cada entidad administrada como datos: columnas, reglas de
// validación, búsqueda, filtros, orden, relaciones y dependientes. El servicio genérico
// de recursos, los repositorios y el router trabajan sobre estos esquemas en lugar de
// tener un controlador por entidad.
package resource

import (
	"fmt"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/validation"
)

// FieldType tipo de almacenamiento de una columna.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInteger
	TypeDecimal
	TypeBool
	TypeDate
	TypeDateTime
	TypeJSON
)

// Field columna de una entidad.
//   - Hidden: nunca se serializa en las respuestas (password_hash).
//   - Virtual: solo existe en la entrada; no es columna (password, que se transforma).
//   - Internal: columna que el cliente no puede escribir (usuario_id, password_hash).
type Field struct {
	Name     string
	Type     FieldType
	Rules    []validation.Rule
	Default  any
	Hidden   bool
	Virtual  bool
	Internal bool
}

// Relation llave foránea navegable: genera la ruta por-{Name} y, si Eager, se carga
// el registro relacionado bajo la clave Name.
type Relation struct {
	Name   string
	Column string
	Table  string
	Eager  bool
}

// Dependent tabla hija que bloquea la eliminación mientras tenga registros que apunten
// al padre (solo los activos si ActiveOnly).
type Dependent struct {
	Table      string
	Column     string
	ActiveOnly bool
	Label      string // plural legible: "equipos activos"
}

// Schema definición de una entidad.
type Schema struct {
	Table        string
	Label        string // singular legible: "equipo"
	Fields       []Field
	Searchable   []string
	Filters      []query.Filter
	Sortable     []string
	DefaultSort  query.Sort
	DateColumn   string
	ActiveColumn string
	OwnerColumn  string
	Relations    []Relation
	Dependents   []Dependent
	Audited      bool
	ReadOnly     bool
	ReadRoles    []string // vacío: cualquier usuario autenticado
	WriteRoles   []string // vacío: entity.WriterRoles
}

// Column busca una columna, incluidas id, created_at y updated_at.
func (s *Schema) Column(name string) (Field, bool) {
	switch name {
	case entity.ColumnID:
		return Field{Name: name, Type: TypeInteger, Internal: true}, true
	case entity.ColumnCreatedAt, entity.ColumnUpdatedAt:
		return Field{Name: name, Type: TypeDateTime, Internal: true}, true
	}
	for _, f := range s.Fields {
		if f.Name == name && !f.Virtual {
			return f, true
		}
	}
	return Field{}, false
}

// Columns columnas persistidas en orden: id, campos declarados, created_at, updated_at.
func (s *Schema) Columns() []Field {
	out := make([]Field, 0, len(s.Fields)+3)
	id, _ := s.Column(entity.ColumnID)
	out = append(out, id)
	for _, f := range s.Fields {
		if !f.Virtual {
			out = append(out, f)
		}
	}
	created, _ := s.Column(entity.ColumnCreatedAt)
	updated, _ := s.Column(entity.ColumnUpdatedAt)
	return append(out, created, updated)
}

// RuleSet reglas de entrada: campos no internos, con la regla de tipo antepuesta.
func (s *Schema) RuleSet() validation.RuleSet {
	rs := make(validation.RuleSet, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Internal {
			continue
		}
		rules := make([]validation.Rule, 0, len(f.Rules)+1)
		rules = append(rules, typeRule(f.Type))
		rules = append(rules, f.Rules...)
		rs = append(rs, validation.Field{Name: f.Name, Rules: rules})
	}
	return rs
}

func typeRule(t FieldType) validation.Rule {
	switch t {
	case TypeInteger:
		return validation.Integer()
	case TypeDecimal:
		return validation.Decimal()
	case TypeBool:
		return validation.Boolean()
	case TypeDate:
		return validation.Date()
	case TypeDateTime:
		return validation.DateTime()
	case TypeJSON:
		return validation.JSON()
	default:
		return validation.String()
	}
}

// QuerySpec configuración del listado.
func (s *Schema) QuerySpec() query.Spec {
	date := s.DateColumn
	if date == "" {
		date = entity.ColumnCreatedAt
	}
	return query.Spec{
		Searchable:  s.Searchable,
		Filters:     s.Filters,
		Sortable:    s.Sortable,
		DefaultSort: s.DefaultSort,
		DateColumn:  date,
	}
}

// Relation busca una relación por nombre (segmento de la ruta por-{nombre}).
func (s *Schema) Relation(name string) (Relation, bool) {
	for _, r := range s.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// Defaults valores por defecto de los campos ausentes en una creación.
func (s *Schema) Defaults() map[string]any {
	out := map[string]any{}
	for _, f := range s.Fields {
		if f.Default != nil && !f.Virtual {
			out[f.Name] = f.Default
		}
	}
	return out
}

// Present copia del registro sin las columnas ocultas.
func (s *Schema) Present(rec entity.Record) entity.Record {
	if rec == nil {
		return nil
	}
	out := rec.Clone()
	for _, f := range s.Fields {
		if f.Hidden {
			delete(out, f.Name)
		}
	}
	return out
}

// CanRead / CanWrite permisos por rol.
func (s *Schema) CanRead(actor entity.Actor) bool {
	return len(s.ReadRoles) == 0 || actor.HasRole(s.ReadRoles...)
}

func (s *Schema) CanWrite(actor entity.Actor) bool {
	if s.ReadOnly {
		return false
	}
	roles := s.WriteRoles
	if len(roles) == 0 {
		roles = entity.WriterRoles
	}
	return actor.HasRole(roles...)
}

// Registry catálogo de esquemas por tabla (segmento de ruta).
type Registry struct {
	byTable map[string]*Schema
	order   []string
}

// NewRegistry construye el registro; una tabla repetida es un error de programación.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{byTable: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if _, dup := r.byTable[s.Table]; dup {
			panic(fmt.Sprintf("resource: esquema duplicado %q", s.Table))
		}
		r.byTable[s.Table] = s
		r.order = append(r.order, s.Table)
	}
	return r
}

// Get esquema de table o domain.ErrUnknownResource.
func (r *Registry) Get(table string) (*Schema, error) {
	s, ok := r.byTable[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownResource, table)
	}
	return s, nil
}

// All esquemas en orden de registro.
func (r *Registry) All() []*Schema {
	out := make([]*Schema, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byTable[t])
	}
	return out
}
