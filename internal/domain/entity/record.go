package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Columnas comunes a todos los registros.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// Record una fila de cualquiera de las entidades administradas (equipos, áreas, servicios...).
// Las claves son nombres de columna; los valores son int64, string, bool, decimal.Decimal,
// time.Time, json.RawMessage o nil.
type Record map[string]any

// ID devuelve el identificador asignado por el servidor (0 si aún no existe).
func (r Record) ID() int64 {
	return r.Int(ColumnID)
}

// Int lee una columna entera; 0 si es nula o de otro tipo.
func (r Record) Int(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	}
	return 0
}

// IntPtr lee una columna entera anulable.
func (r Record) IntPtr(col string) *int64 {
	if r[col] == nil {
		return nil
	}
	v := r.Int(col)
	return &v
}

// String lee una columna de texto; "" si es nula.
func (r Record) String(col string) string {
	s, _ := r[col].(string)
	return s
}

// Bool lee una columna booleana; false si es nula.
func (r Record) Bool(col string) bool {
	b, _ := r[col].(bool)
	return b
}

// Decimal lee una columna numérica; cero si es nula.
func (r Record) Decimal(col string) decimal.Decimal {
	d, _ := r[col].(decimal.Decimal)
	return d
}

// Time lee una columna de fecha/hora; tiempo cero si es nula.
func (r Record) Time(col string) time.Time {
	t, _ := r[col].(time.Time)
	return t
}

// Clone copia superficial del registro.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
