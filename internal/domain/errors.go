package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound         = errors.New("recurso no encontrado")
	ErrInvalidInput     = errors.New("entrada inválida")
	ErrDuplicate        = errors.New("recurso duplicado")
	ErrUnauthorized     = errors.New("no autorizado")
	ErrForbidden        = errors.New("acceso denegado")
	ErrConflict         = errors.New("conflicto con el estado actual")
	ErrUnknownResource  = errors.New("recurso desconocido")
	ErrOperationBlocked = errors.New("operación no permitida sobre este recurso")
)

// ValidationError errores de validación por campo (un mensaje por campo).
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError construye el error a partir del mapa campo → mensaje.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validación fallida (" + strings.Join(parts, "; ") + ")"
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ConflictError borrado bloqueado por registros dependientes activos.
type ConflictError struct {
	Message string
	Count   int64
}

// NewConflictError construye el error con un mensaje legible que incluye el conteo.
func NewConflictError(count int64, format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...), Count: count}
}

func (e *ConflictError) Error() string { return e.Message }

// Unwrap permite errors.Is(err, ErrConflict).
func (e *ConflictError) Unwrap() error { return ErrConflict }

// DetailedError error de una de las clases anteriores con un mensaje para el usuario.
type DetailedError struct {
	Kind    error
	Message string
}

// Detail asocia un mensaje legible a una clase de error.
func Detail(kind error, message string) *DetailedError {
	return &DetailedError{Kind: kind, Message: message}
}

func (e *DetailedError) Error() string { return e.Message }

// Unwrap permite errors.Is(err, e.Kind).
func (e *DetailedError) Unwrap() error { return e.Kind }
