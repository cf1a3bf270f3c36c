// Package memory implementa los puertos de persistencia en memoria. Se usa con
// DB_DRIVER=memory (demos, desarrollo sin PostgreSQL) y en los tests de casos de uso
// y de extremo a extremo.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kamdevo/proyecto-eva/internal/domain"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

var (
	_ repository.RecordRepository  = (*Store)(nil)
	_ repository.StatsRepository   = (*Store)(nil)
	_ repository.SessionRepository = (*Store)(nil)
	_ repository.TxRunner          = (*Store)(nil)
	_ repository.Pinger            = (*Store)(nil)
)

type table struct {
	seq  int64
	rows map[int64]entity.Record
}

// Store almacenamiento en memoria de todas las tablas y sesiones.
type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	clock    clock.Clock
	tables   map[string]*table
	sessions map[string]entity.Session
}

// NewStore construye el almacenamiento vacío; clk nil usa el reloj del sistema.
func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.System{}
	}
	return &Store{
		clock:    clk,
		tables:   make(map[string]*table),
		sessions: make(map[string]entity.Session),
	}
}

func (s *Store) table(name string) *table {
	t, ok := s.tables[name]
	if !ok {
		t = &table{rows: make(map[int64]entity.Record)}
		s.tables[name] = t
	}
	return t
}

// Insert asigna id y marcas de tiempo; las columnas no informadas quedan en nil.
func (s *Store) Insert(_ context.Context, sc *resource.Schema, values map[string]any) (entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(sc.Table)
	t.seq++
	now := s.clock.Now()

	rec := make(entity.Record, len(sc.Fields)+3)
	for _, col := range sc.Columns() {
		rec[col.Name] = nil
	}
	for k, v := range values {
		if _, ok := sc.Column(k); ok {
			rec[k] = v
		}
	}
	rec[entity.ColumnID] = t.seq
	rec[entity.ColumnCreatedAt] = now
	rec[entity.ColumnUpdatedAt] = now
	t.rows[t.seq] = rec
	return rec.Clone(), nil
}

func (s *Store) FindByID(_ context.Context, sc *resource.Schema, id int64) (entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[sc.Table]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *Store) FindBy(_ context.Context, sc *resource.Schema, column string, value any) (entity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[sc.Table]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var found entity.Record
	for _, rec := range t.rows {
		if equal(rec[column], value) && (found == nil || rec.ID() < found.ID()) {
			found = rec
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found.Clone(), nil
}

func (s *Store) Update(_ context.Context, sc *resource.Schema, id int64, values map[string]any) (entity.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[sc.Table]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec, ok := t.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for k, v := range values {
		if k == entity.ColumnID || k == entity.ColumnCreatedAt {
			continue
		}
		if _, ok := sc.Column(k); ok {
			rec[k] = v
		}
	}
	rec[entity.ColumnUpdatedAt] = s.clock.Now()
	return rec.Clone(), nil
}

func (s *Store) Delete(_ context.Context, sc *resource.Schema, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[sc.Table]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := t.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (s *Store) List(_ context.Context, sc *resource.Schema, plan query.Plan) ([]entity.Record, int64, error) {
	s.mu.RLock()
	matched := s.filter(sc.Table, plan.Predicates)
	s.mu.RUnlock()

	sortRecords(matched, plan.Sort)

	total := int64(len(matched))
	from := plan.Offset()
	if from < 0 || from > len(matched) {
		from = len(matched)
	}
	to := from + plan.PerPage
	if plan.PerPage <= 0 || to > len(matched) {
		to = len(matched)
	}
	return matched[from:to], total, nil
}

func (s *Store) ExistsValue(_ context.Context, tableName, column string, value any, exceptID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[tableName]
	if !ok {
		return false, nil
	}
	for id, rec := range t.rows {
		if exceptID > 0 && id == exceptID {
			continue
		}
		if equal(rec[column], value) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) Count(_ context.Context, tableName string, preds ...query.Predicate) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filter(tableName, preds))), nil
}

func (s *Store) Sum(_ context.Context, tableName, column string, preds ...query.Predicate) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, rec := range s.filter(tableName, preds) {
		if d, ok := toDecimal(rec[column]); ok {
			total = total.Add(d)
		}
	}
	return total, nil
}

func (s *Store) CountBy(_ context.Context, tableName, column string, preds ...query.Predicate) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]int64{}
	for _, rec := range s.filter(tableName, preds) {
		out[text(rec[column])]++
	}
	return out, nil
}

// filter copia las filas que cumplen todos los predicados. Requiere s.mu tomado.
func (s *Store) filter(tableName string, preds []query.Predicate) []entity.Record {
	t, ok := s.tables[tableName]
	if !ok {
		return []entity.Record{}
	}
	out := make([]entity.Record, 0, len(t.rows))
	for _, rec := range t.rows {
		if matchesAll(rec, preds) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Ping siempre responde: no hay conexión que verificar.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Create(_ context.Context, sess *entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.sessions[sess.ID]; dup {
		return fmt.Errorf("sesión %s: %w", sess.ID, domain.ErrDuplicate)
	}
	cp := *sess
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.clock.Now()
	}
	s.sessions[sess.ID] = cp
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*entity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

func (s *Store) Revoke(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if sess.RevokedAt == nil {
		sess.RevokedAt = &at
		s.sessions[id] = sess
	}
	return nil
}

func sortRecords(rows []entity.Record, by query.Sort) {
	col := by.Column
	if col == "" {
		col = entity.ColumnCreatedAt
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(rows[i][col], rows[j][col])
		if c == 0 {
			c = compareInts(rows[i].ID(), rows[j].ID())
		}
		if by.Desc {
			c = -c
		}
		return c < 0
	})
}
