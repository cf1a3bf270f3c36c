package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardStatsDTO respuesta de GET /api/dashboard/estadisticas (cacheada).
type DashboardStatsDTO struct {
	Equipos        EquipmentSummaryDTO   `json:"equipos"`
	Mantenimientos MaintenanceSummaryDTO `json:"mantenimientos"`
	Calibraciones  CalibrationSummaryDTO `json:"calibraciones"`
	Contingencias  ContingencySummaryDTO `json:"contingencias"`
	Servicios      int64                 `json:"servicios"`
	Areas          int64                 `json:"areas"`
	GeneradoEn     time.Time             `json:"generado_en"`
}

// EquipmentSummaryDTO bloque de equipos del dashboard.
type EquipmentSummaryDTO struct {
	Total      int64            `json:"total"`
	Activos    int64            `json:"activos"`
	Inactivos  int64            `json:"inactivos"`
	ValorTotal decimal.Decimal  `json:"valor_total"`
	PorRiesgo  map[string]int64 `json:"por_riesgo"`
}

// MaintenanceSummaryDTO vencidos = programados con fecha anterior a hoy.
type MaintenanceSummaryDTO struct {
	Total       int64 `json:"total"`
	Programados int64 `json:"programados"`
	Completados int64 `json:"completados"`
	Vencidos    int64 `json:"vencidos"`
}

// CalibrationSummaryDTO próximas a vencer = vencimiento dentro de los próximos 30 días.
type CalibrationSummaryDTO struct {
	Total           int64 `json:"total"`
	Vencidas        int64 `json:"vencidas"`
	ProximasAVencer int64 `json:"proximas_a_vencer"`
}

// ContingencySummaryDTO abiertas = no cerradas.
type ContingencySummaryDTO struct {
	Total    int64 `json:"total"`
	Abiertas int64 `json:"abiertas"`
	Criticas int64 `json:"criticas"`
}

// MonthlyMaintenanceDTO un punto de la serie mensual de mantenimientos.
type MonthlyMaintenanceDTO struct {
	Mes         string          `json:"mes"` // "2026-03"
	Etiqueta    string          `json:"etiqueta"`
	Programados int64           `json:"programados"`
	Completados int64           `json:"completados"`
	Costo       decimal.Decimal `json:"costo"`
}

// ServiceStatsDTO respuesta de GET /api/servicios/{id}/estadisticas.
type ServiceStatsDTO struct {
	Servicio          any              `json:"servicio"`
	TotalEquipos      int64            `json:"total_equipos"`
	EquiposActivos    int64            `json:"equipos_activos"`
	ValorTotalEquipos decimal.Decimal  `json:"valor_total_equipos"`
	TotalAreas        int64            `json:"total_areas"`
	PorRiesgo         map[string]int64 `json:"por_riesgo"`
}

// AreaStatsDTO respuesta de GET /api/areas/{id}/estadisticas.
type AreaStatsDTO struct {
	Area              any             `json:"area"`
	TotalEquipos      int64           `json:"total_equipos"`
	EquiposActivos    int64           `json:"equipos_activos"`
	ValorTotalEquipos decimal.Decimal `json:"valor_total_equipos"`
}

// EquipmentStatsDTO respuesta de GET /api/equipos/estadisticas.
type EquipmentStatsDTO struct {
	Total       int64            `json:"total"`
	PorRiesgo   map[string]int64 `json:"por_riesgo"`
	PorServicio map[string]int64 `json:"por_servicio"`
	PorEstado   map[string]int64 `json:"por_estado"`
}

// AuditStatsDTO respuesta de GET /api/auditoria/estadisticas.
type AuditStatsDTO struct {
	Total     int64            `json:"total"`
	PorAccion map[string]int64 `json:"por_accion"`
	PorTabla  map[string]int64 `json:"por_tabla"`
}
