// Package clock abstrae la hora actual para que los cálculos por ventanas de tiempo sean deterministas.
package clock

import (
	"sync"
	"time"
)

// Clock fuente de la hora actual.
type Clock interface {
	Now() time.Time
}

// System usa time.Now.
type System struct{}

// Now devuelve la hora del sistema.
func (System) Now() time.Time { return time.Now() }

// Fixed reloj manual para tests.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed construye un reloj detenido en t.
func NewFixed(t time.Time) *Fixed { return &Fixed{now: t} }

// Now devuelve la hora fijada.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance mueve el reloj d hacia adelante.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
