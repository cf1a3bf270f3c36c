package dto

import "github.com/kamdevo/proyecto-eva/internal/domain/query"

// Envelope cuerpo de todas las respuestas HTTP. Success se deriva del status (< 400).
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Errors  any    `json:"errors"`
}

// NewEnvelope arma el sobre para el status dado.
func NewEnvelope(status int, message string, data, errors any) Envelope {
	return Envelope{Success: status < 400, Message: message, Data: data, Errors: errors}
}

// Page respuesta paginada de un listado.
type Page struct {
	Items       any   `json:"data"`
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// NewPage calcula los metadatos de la página a partir del plan y del total.
func NewPage(items any, count int, total int64, plan query.Plan) Page {
	p := Page{
		Items:       items,
		Total:       total,
		CurrentPage: plan.Page,
		LastPage:    query.LastPage(total, plan.PerPage),
		PerPage:     plan.PerPage,
	}
	if count > 0 {
		p.From = plan.Offset() + 1
		p.To = plan.Offset() + count
	}
	return p
}

// ErrorResponse cuerpo de error para la documentación swagger.
type ErrorResponse struct {
	Success bool              `json:"success" example:"false"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}
