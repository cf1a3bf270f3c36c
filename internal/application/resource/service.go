// Package resource implementa el caso de uso genérico de recursos: CRUD, listados
// filtrados, activos, cambio de estado y relaciones, para cualquier entidad del
// catálogo. El actor se recibe explícitamente en cada operación.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/validation"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// Auditor destino de las entradas de auditoría (audit.Sink).
type Auditor interface {
	Record(ctx context.Context, actor entity.Actor, e audit.Entry) error
}

// Transform ajusta los valores ya validados antes de persistirlos (p. ej. el hash
// de la contraseña de usuarios). Puede agregar columnas internas.
type Transform func(ctx context.Context, values map[string]any) error

// ListResult página de registros más el plan que la produjo.
type ListResult struct {
	Items []entity.Record
	Total int64
	Plan  query.Plan
}

// Service caso de uso genérico.
type Service struct {
	registry   *resource.Registry
	repo       repository.RecordRepository
	stats      repository.StatsRepository
	auditor    Auditor
	log        *logger.Logger
	transforms map[string]Transform
}

// NewService construye el servicio. auditor puede ser nil (sin auditoría).
func NewService(
	registry *resource.Registry,
	repo repository.RecordRepository,
	stats repository.StatsRepository,
	auditor Auditor,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		registry:   registry,
		repo:       repo,
		stats:      stats,
		auditor:    auditor,
		log:        log.Named("recursos"),
		transforms: map[string]Transform{},
	}
}

// WithTransform registra una transformación para table.
func (s *Service) WithTransform(table string, fn Transform) *Service {
	s.transforms[table] = fn
	return s
}

// Registry catálogo de esquemas usado por el servicio.
func (s *Service) Registry() *resource.Registry { return s.registry }

func (s *Service) readable(table string, actor entity.Actor) (*resource.Schema, error) {
	schema, err := s.registry.Get(table)
	if err != nil {
		return nil, err
	}
	if !schema.CanRead(actor) {
		return nil, domain.ErrForbidden
	}
	return schema, nil
}

func (s *Service) writable(table string, actor entity.Actor) (*resource.Schema, error) {
	schema, err := s.registry.Get(table)
	if err != nil {
		return nil, err
	}
	if schema.ReadOnly {
		return nil, domain.ErrOperationBlocked
	}
	if !schema.CanWrite(actor) {
		return nil, domain.ErrForbidden
	}
	return schema, nil
}

func (s *Service) validate(ctx context.Context, schema *resource.Schema, input map[string]any, mode validation.Mode, exceptID int64) (map[string]any, error) {
	values, fails, err := validation.Validate(ctx, schema.RuleSet(), input, mode, validation.Env{
		Lookup:   s.repo,
		Table:    schema.Table,
		ExceptID: exceptID,
	})
	if err != nil {
		return nil, err
	}
	if len(fails) > 0 {
		return nil, domain.NewValidationError(fails)
	}
	if fn, ok := s.transforms[schema.Table]; ok {
		if err := fn(ctx, values); err != nil {
			return nil, err
		}
	}
	for _, f := range schema.Fields {
		if f.Virtual {
			delete(values, f.Name)
		}
	}
	return values, nil
}

// Create valida y persiste un registro nuevo. Sella el propietario con el actor.
func (s *Service) Create(ctx context.Context, actor entity.Actor, table string, input map[string]any) (entity.Record, error) {
	schema, err := s.writable(table, actor)
	if err != nil {
		return nil, err
	}
	values, err := s.validate(ctx, schema, input, validation.ModeCreate, 0)
	if err != nil {
		return nil, err
	}
	for k, v := range schema.Defaults() {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}
	if schema.OwnerColumn != "" && actor.Authenticated() {
		values[schema.OwnerColumn] = actor.UserID
	}

	rec, err := s.repo.Insert(ctx, schema, values)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, schema, audit.Entry{
		Action:      entity.AuditCreate,
		Table:       schema.Table,
		RecordID:    rec.ID(),
		Description: fmt.Sprintf("Creación de %s #%d", schema.Label, rec.ID()),
		After:       rec,
	})
	return s.present(ctx, schema, rec)
}

// Get registro por id con sus relaciones cargadas.
func (s *Service) Get(ctx context.Context, actor entity.Actor, table string, id int64) (entity.Record, error) {
	schema, err := s.readable(table, actor)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.FindByID(ctx, schema, id)
	if err != nil {
		return nil, err
	}
	return s.present(ctx, schema, rec)
}

// Update actualización parcial: solo cambian las claves presentes en input (un null
// explícito deja la columna en NULL si el campo lo admite).
func (s *Service) Update(ctx context.Context, actor entity.Actor, table string, id int64, input map[string]any) (entity.Record, error) {
	schema, err := s.writable(table, actor)
	if err != nil {
		return nil, err
	}
	before, err := s.repo.FindByID(ctx, schema, id)
	if err != nil {
		return nil, err
	}
	values, err := s.validate(ctx, schema, input, validation.ModeUpdate, id)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return s.present(ctx, schema, before)
	}

	after, err := s.repo.Update(ctx, schema, id, values)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, schema, audit.Entry{
		Action:      entity.AuditUpdate,
		Table:       schema.Table,
		RecordID:    id,
		Description: fmt.Sprintf("Actualización de %s #%d", schema.Label, id),
		Before:      before,
		After:       after,
	})
	return s.present(ctx, schema, after)
}

// Delete elimina el registro si ningún dependiente lo referencia.
func (s *Service) Delete(ctx context.Context, actor entity.Actor, table string, id int64) error {
	schema, err := s.writable(table, actor)
	if err != nil {
		return err
	}
	before, err := s.repo.FindByID(ctx, schema, id)
	if err != nil {
		return err
	}
	if schema.Table == entity.TableUsers && id == actor.UserID {
		return domain.NewConflictError(0, "No puede eliminar su propio usuario.")
	}
	if err := s.checkDependents(ctx, schema, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, schema, id); err != nil {
		return err
	}
	s.audit(ctx, actor, schema, audit.Entry{
		Action:      entity.AuditDelete,
		Table:       schema.Table,
		RecordID:    id,
		Description: fmt.Sprintf("Eliminación de %s #%d", schema.Label, id),
		Before:      before,
	})
	return nil
}

func (s *Service) checkDependents(ctx context.Context, schema *resource.Schema, id int64) error {
	for _, dep := range schema.Dependents {
		preds := []query.Predicate{query.Eq(dep.Column, id)}
		if dep.ActiveOnly {
			child, err := s.registry.Get(dep.Table)
			if err != nil {
				return err
			}
			if child.ActiveColumn != "" {
				preds = append(preds, query.Eq(child.ActiveColumn, true))
			}
		}
		n, err := s.stats.Count(ctx, dep.Table, preds...)
		if err != nil {
			return fmt.Errorf("verificar %s de %s: %w", dep.Table, schema.Table, err)
		}
		if n > 0 {
			return domain.NewConflictError(n,
				"No se puede eliminar el %s porque tiene %d %s.", schema.Label, n, dep.Label)
		}
	}
	return nil
}

// List listado filtrado y paginado.
func (s *Service) List(ctx context.Context, actor entity.Actor, table string, params query.Params) (*ListResult, error) {
	schema, err := s.readable(table, actor)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, schema, query.Build(schema.QuerySpec(), params))
}

// ListBy listado de los registros de table relacionados con relatedID por la
// relación indicada (ruta por-{relación}).
func (s *Service) ListBy(ctx context.Context, actor entity.Actor, table, relation string, relatedID int64, params query.Params) (*ListResult, error) {
	schema, err := s.readable(table, actor)
	if err != nil {
		return nil, err
	}
	rel, ok := schema.Relation(relation)
	if !ok {
		return nil, fmt.Errorf("%w: %s/por-%s", domain.ErrUnknownResource, table, relation)
	}
	plan := query.Build(schema.QuerySpec(), params).With(query.Eq(rel.Column, relatedID))
	return s.list(ctx, schema, plan)
}

// Active todos los registros activos, ordenados por nombre si la entidad lo tiene.
func (s *Service) Active(ctx context.Context, actor entity.Actor, table string) ([]entity.Record, error) {
	schema, err := s.readable(table, actor)
	if err != nil {
		return nil, err
	}
	if schema.ActiveColumn == "" {
		return nil, fmt.Errorf("%w: %s/activos", domain.ErrUnknownResource, table)
	}
	sortBy := query.Sort{Column: entity.ColumnID}
	if _, ok := schema.Column("nombre"); ok {
		sortBy = query.Sort{Column: "nombre"}
	}
	res, err := s.list(ctx, schema, query.Plan{
		Predicates: []query.Predicate{query.Eq(schema.ActiveColumn, true)},
		Sort:       sortBy,
		Page:       1,
	})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// ToggleStatus invierte la columna activo sin tocar las demás.
func (s *Service) ToggleStatus(ctx context.Context, actor entity.Actor, table string, id int64) (entity.Record, error) {
	schema, err := s.writable(table, actor)
	if err != nil {
		return nil, err
	}
	if schema.ActiveColumn == "" {
		return nil, fmt.Errorf("%w: %s/toggle-status", domain.ErrUnknownResource, table)
	}
	before, err := s.repo.FindByID(ctx, schema, id)
	if err != nil {
		return nil, err
	}
	next := !before.Bool(schema.ActiveColumn)
	after, err := s.repo.Update(ctx, schema, id, map[string]any{schema.ActiveColumn: next})
	if err != nil {
		return nil, err
	}
	state := "desactivado"
	if next {
		state = "activado"
	}
	s.audit(ctx, actor, schema, audit.Entry{
		Action:      entity.AuditUpdate,
		Table:       schema.Table,
		RecordID:    id,
		Description: fmt.Sprintf("%s #%d %s", schema.Label, id, state),
		Before:      before,
		After:       after,
	})
	return s.present(ctx, schema, after)
}

// Export todas las filas del listado filtrado (sin paginar) hasta limit. Se pide una
// fila de más para saber si el resultado quedó truncado. Se registra una entrada VIEW
// con la cantidad efectivamente exportada.
func (s *Service) Export(ctx context.Context, actor entity.Actor, table string, params query.Params, limit int) ([]entity.Record, bool, error) {
	schema, err := s.readable(table, actor)
	if err != nil {
		return nil, false, err
	}
	plan := query.Build(schema.QuerySpec(), params)
	plan.Page = 1
	plan.PerPage = limit + 1
	res, err := s.list(ctx, schema, plan)
	if err != nil {
		return nil, false, err
	}
	rows, truncated := res.Items, false
	if len(rows) > limit {
		rows, truncated = rows[:limit], true
	}
	s.audit(ctx, actor, schema, audit.Entry{
		Action:      entity.AuditView,
		Table:       schema.Table,
		Description: fmt.Sprintf("Exportación de %d registros de %s", len(rows), schema.Table),
	})
	return rows, truncated, nil
}

func (s *Service) list(ctx context.Context, schema *resource.Schema, plan query.Plan) (*ListResult, error) {
	rows, total, err := s.repo.List(ctx, schema, plan)
	if err != nil {
		return nil, err
	}
	if err := s.loadRelations(ctx, schema, rows); err != nil {
		return nil, err
	}
	items := make([]entity.Record, len(rows))
	for i, r := range rows {
		items[i] = schema.Present(r)
	}
	return &ListResult{Items: items, Total: total, Plan: plan}, nil
}

func (s *Service) present(ctx context.Context, schema *resource.Schema, rec entity.Record) (entity.Record, error) {
	rows := []entity.Record{rec}
	if err := s.loadRelations(ctx, schema, rows); err != nil {
		return nil, err
	}
	return schema.Present(rows[0]), nil
}

// loadRelations carga las relaciones Eager con una consulta IN por relación y las
// agrega a cada registro bajo el nombre de la relación.
func (s *Service) loadRelations(ctx context.Context, schema *resource.Schema, rows []entity.Record) error {
	if len(rows) == 0 {
		return nil
	}
	for _, rel := range schema.Relations {
		if !rel.Eager {
			continue
		}
		related, err := s.registry.Get(rel.Table)
		if err != nil {
			return err
		}

		seen := map[int64]bool{}
		var ids []int64
		for _, r := range rows {
			if id := r.Int(rel.Column); id > 0 && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		byID := map[int64]entity.Record{}
		if len(ids) > 0 {
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			values := make([]any, len(ids))
			for i, id := range ids {
				values[i] = id
			}
			found, _, err := s.repo.List(ctx, related, query.Plan{
				Predicates: []query.Predicate{query.In(entity.ColumnID, values...)},
				Sort:       query.Sort{Column: entity.ColumnID},
				Page:       1,
			})
			if err != nil {
				return fmt.Errorf("cargar %s de %s: %w", rel.Name, schema.Table, err)
			}
			for _, f := range found {
				byID[f.ID()] = related.Present(f)
			}
		}
		for _, r := range rows {
			if rec, ok := byID[r.Int(rel.Column)]; ok {
				r[rel.Name] = rec
			} else {
				r[rel.Name] = nil
			}
		}
	}
	return nil
}

// audit registra la entrada si la entidad es auditada. Un fallo se registra en el
// log y no revierte la operación.
func (s *Service) audit(ctx context.Context, actor entity.Actor, schema *resource.Schema, e audit.Entry) {
	if s.auditor == nil || !schema.Audited {
		return
	}
	if err := s.auditor.Record(ctx, actor, e); err != nil {
		s.log.Warn().Err(err).
			Int64("actor_id", actor.UserID).
			Str("recurso", schema.Table).
			Str("accion", string(e.Action)).
			Msg("no se pudo registrar la auditoría")
	}
}

// IsClientError informa si err es un error esperado del dominio (no requiere log de error).
func IsClientError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrUnknownResource) ||
		errors.Is(err, domain.ErrOperationBlocked) ||
		errors.Is(err, domain.ErrDuplicate)
}
