// Package audit registra las acciones de los usuarios en la bitácora (tabla auditoria)
// y expone las operaciones propias de la bitácora: eliminación auditada y estadísticas.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

// Entry una acción a registrar. Before/After se guardan como JSON sin las columnas
// ocultas de la tabla de origen.
type Entry struct {
	Action      entity.AuditAction
	Table       string
	RecordID    int64 // 0: la acción no se refiere a un registro (login, logout)
	Description string
	Before      entity.Record
	After       entity.Record
}

// Sink escribe entradas de auditoría. Es de solo inserción.
type Sink struct {
	repo     repository.RecordRepository
	registry *resource.Registry
	schema   *resource.Schema
}

// NewSink construye el sink; el registro debe incluir la tabla auditoria.
func NewSink(repo repository.RecordRepository, registry *resource.Registry) (*Sink, error) {
	schema, err := registry.Get(entity.TableAudit)
	if err != nil {
		return nil, err
	}
	return &Sink{repo: repo, registry: registry, schema: schema}, nil
}

// Record agrega una entrada con la IP y el user agent del actor.
func (s *Sink) Record(ctx context.Context, actor entity.Actor, e Entry) error {
	before, err := s.snapshot(e.Table, e.Before)
	if err != nil {
		return err
	}
	after, err := s.snapshot(e.Table, e.After)
	if err != nil {
		return err
	}

	values := map[string]any{
		"usuario_id":         nullableID(actor.UserID),
		"accion":             string(e.Action),
		"tabla":              e.Table,
		"registro_id":        nullableID(e.RecordID),
		"descripcion":        e.Description,
		"valores_anteriores": before,
		"valores_nuevos":     after,
		"ip":                 nullableString(actor.IP),
		"user_agent":         nullableString(actor.UserAgent),
	}
	if _, err := s.repo.Insert(ctx, s.schema, values); err != nil {
		return fmt.Errorf("auditoría %s %s: %w", e.Action, e.Table, err)
	}
	return nil
}

func (s *Sink) snapshot(table string, rec entity.Record) (any, error) {
	if rec == nil {
		return nil, nil
	}
	if schema, err := s.registry.Get(table); err == nil {
		rec = schema.Present(rec)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("serializar valores de auditoría: %w", err)
	}
	return json.RawMessage(raw), nil
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
