package memory

import (
	"context"

	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

// undo estado previo de una fila tocada por la transacción. prev nil: la fila no
// existía antes (se insertó dentro de la transacción).
type undo struct {
	table string
	id    int64
	prev  entity.Record
}

// txRepo escribe directo en el Store y anota cómo deshacer cada escritura. El
// rollback solo revierte esas filas; lo que otras peticiones escriban mientras
// tanto se conserva.
type txRepo struct {
	s    *Store
	log  []undo
	seen map[string]map[int64]bool
}

var _ repository.RecordRepository = (*txRepo)(nil)

// Run ejecuta fn con un repositorio transaccional; si fn devuelve error se deshacen
// sus escrituras en orden inverso. Las transacciones se serializan entre sí.
func (s *Store) Run(_ context.Context, fn func(repo repository.RecordRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &txRepo{s: s, seen: map[string]map[int64]bool{}}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

// remember guarda la primera versión conocida de la fila; las siguientes
// escrituras sobre la misma fila ya están cubiertas.
func (tx *txRepo) remember(tableName string, id int64, prev entity.Record) {
	if tx.seen[tableName] == nil {
		tx.seen[tableName] = map[int64]bool{}
	}
	if tx.seen[tableName][id] {
		return
	}
	tx.seen[tableName][id] = true
	tx.log = append(tx.log, undo{table: tableName, id: id, prev: prev})
}

func (tx *txRepo) rollback() {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	for i := len(tx.log) - 1; i >= 0; i-- {
		u := tx.log[i]
		t := tx.s.table(u.table)
		if u.prev == nil {
			delete(t.rows, u.id)
			continue
		}
		t.rows[u.id] = u.prev
	}
}

func (tx *txRepo) current(sc *resource.Schema, id int64) entity.Record {
	rec, err := tx.s.FindByID(context.Background(), sc, id)
	if err != nil {
		return nil
	}
	return rec
}

func (tx *txRepo) Insert(ctx context.Context, sc *resource.Schema, values map[string]any) (entity.Record, error) {
	rec, err := tx.s.Insert(ctx, sc, values)
	if err != nil {
		return nil, err
	}
	tx.remember(sc.Table, rec.ID(), nil)
	return rec, nil
}

func (tx *txRepo) Update(ctx context.Context, sc *resource.Schema, id int64, values map[string]any) (entity.Record, error) {
	prev := tx.current(sc, id)
	rec, err := tx.s.Update(ctx, sc, id, values)
	if err != nil {
		return nil, err
	}
	tx.remember(sc.Table, id, prev)
	return rec, nil
}

func (tx *txRepo) Delete(ctx context.Context, sc *resource.Schema, id int64) error {
	prev := tx.current(sc, id)
	if err := tx.s.Delete(ctx, sc, id); err != nil {
		return err
	}
	tx.remember(sc.Table, id, prev)
	return nil
}

func (tx *txRepo) FindByID(ctx context.Context, sc *resource.Schema, id int64) (entity.Record, error) {
	return tx.s.FindByID(ctx, sc, id)
}

func (tx *txRepo) FindBy(ctx context.Context, sc *resource.Schema, column string, value any) (entity.Record, error) {
	return tx.s.FindBy(ctx, sc, column, value)
}

func (tx *txRepo) List(ctx context.Context, sc *resource.Schema, plan query.Plan) ([]entity.Record, int64, error) {
	return tx.s.List(ctx, sc, plan)
}

func (tx *txRepo) ExistsValue(ctx context.Context, tableName, column string, value any, exceptID int64) (bool, error) {
	return tx.s.ExistsValue(ctx, tableName, column, value, exceptID)
}
