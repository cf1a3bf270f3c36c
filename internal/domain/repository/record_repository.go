package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

// RecordRepository define el puerto de persistencia genérico para cualquier entidad
// descrita por un resource.Schema.
type RecordRepository interface {
	// Insert persiste values (id, created_at y updated_at los asigna el almacenamiento)
	// y devuelve la fila completa.
	Insert(ctx context.Context, s *resource.Schema, values map[string]any) (entity.Record, error)
	// FindByID devuelve domain.ErrNotFound si no existe.
	FindByID(ctx context.Context, s *resource.Schema, id int64) (entity.Record, error)
	// FindBy primera fila con column = value; domain.ErrNotFound si no hay.
	FindBy(ctx context.Context, s *resource.Schema, column string, value any) (entity.Record, error)
	// Update modifica solo las columnas presentes en values y refresca updated_at.
	Update(ctx context.Context, s *resource.Schema, id int64, values map[string]any) (entity.Record, error)
	Delete(ctx context.Context, s *resource.Schema, id int64) error
	// List devuelve la página pedida y el total de filas que cumplen los predicados.
	List(ctx context.Context, s *resource.Schema, plan query.Plan) ([]entity.Record, int64, error)
	// ExistsValue informa si table.column = value, excluyendo la fila exceptID (> 0).
	ExistsValue(ctx context.Context, table, column string, value any, exceptID int64) (bool, error)
}

// StatsRepository consultas agregadas de solo lectura (dashboard, conteos de dependientes).
type StatsRepository interface {
	Count(ctx context.Context, table string, preds ...query.Predicate) (int64, error)
	// Sum suma column; cero si no hay filas.
	Sum(ctx context.Context, table, column string, preds ...query.Predicate) (decimal.Decimal, error)
	// CountBy agrupa por column; los NULL se agrupan bajo "".
	CountBy(ctx context.Context, table, column string, preds ...query.Predicate) (map[string]int64, error)
}

// SessionRepository sesiones emitidas en el login.
type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	// Get devuelve domain.ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*entity.Session, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

// TxRunner ejecuta fn con un repositorio atado a una transacción. Si fn devuelve error
// se hace rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(repo RecordRepository) error) error
}

// Pinger verificación de conectividad para el health avanzado.
type Pinger interface {
	Ping(ctx context.Context) error
}
