// Package cache implementa una caché en memoria con expiración por entrada.
//
// Es el único estado mutable compartido fuera de la base de datos: se invalida
// solo por expiración, nunca por escrituras.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Memory caché get/put segura para lectores concurrentes.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	clock clock.Clock
}

// NewMemory construye la caché; clk nil usa el reloj del sistema.
func NewMemory(clk clock.Clock) *Memory {
	if clk == nil {
		clk = clock.System{}
	}
	return &Memory{items: make(map[string]entry), clock: clk}
}

// Get devuelve el valor si existe y no ha expirado.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || !m.clock.Now().Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set guarda value durante ttl.
func (m *Memory) Set(key string, value any, ttl time.Duration) {
	m.mu.Lock()
	m.items[key] = entry{value: value, expiresAt: m.clock.Now().Add(ttl)}
	m.mu.Unlock()
}

// Delete elimina la clave.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// Remember devuelve el valor en caché o lo calcula con fn y lo guarda durante ttl.
// Dos llamadas concurrentes sobre una clave vencida pueden calcular fn ambas.
// Los errores de fn no se guardan.
func (m *Memory) Remember(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := m.Get(key); ok {
		return v, nil
	}
	v, err := fn(ctx)
	if err != nil {
		return nil, err
	}
	m.Set(key, v, ttl)
	return v, nil
}
