package audit

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
)

// Service operaciones propias de la bitácora. El listado y la consulta por id usan el
// servicio genérico de recursos (la tabla auditoria es de solo lectura).
type Service struct {
	sink  *Sink
	repo  repository.RecordRepository
	stats repository.StatsRepository
}

// NewService construye el servicio.
func NewService(sink *Sink, repo repository.RecordRepository, stats repository.StatsRepository) *Service {
	return &Service{sink: sink, repo: repo, stats: stats}
}

// Delete elimina una entrada. Antes de eliminarla registra una entrada DELETE que
// la referencia y conserva su contenido.
func (s *Service) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	if !actor.HasRole(entity.RoleAdmin) {
		return domain.ErrForbidden
	}
	existing, err := s.repo.FindByID(ctx, s.sink.schema, id)
	if err != nil {
		return err
	}
	if err := s.sink.Record(ctx, actor, Entry{
		Action:      entity.AuditDelete,
		Table:       entity.TableAudit,
		RecordID:    id,
		Description: fmt.Sprintf("Eliminación del registro de auditoría #%d", id),
		Before:      existing,
	}); err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.sink.schema, id)
}

// Stats totales por acción y por tabla, con los mismos filtros del listado.
func (s *Service) Stats(ctx context.Context, actor entity.Actor, params query.Params) (*dto.AuditStatsDTO, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, domain.ErrForbidden
	}
	preds := query.Build(s.sink.schema.QuerySpec(), params).Predicates

	out := &dto.AuditStatsDTO{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Total, err = s.stats.Count(gctx, entity.TableAudit, preds...)
		return err
	})
	g.Go(func() (err error) {
		out.PorAccion, err = s.stats.CountBy(gctx, entity.TableAudit, "accion", preds...)
		return err
	})
	g.Go(func() (err error) {
		out.PorTabla, err = s.stats.CountBy(gctx, entity.TableAudit, "tabla", preds...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("auditoría: estadísticas: %w", err)
	}
	return out, nil
}
