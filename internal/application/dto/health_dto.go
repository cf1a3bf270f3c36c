package dto

import "time"

// Estados del health.
const (
	HealthOK       = "ok"
	HealthDegraded = "degradado"
	HealthError    = "error"
	Unavailable    = "no disponible"
)

// LivenessDTO respuesta de GET /health.
type LivenessDTO struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

// CheckDTO resultado de una verificación de dependencia.
type CheckDTO struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Detail    string `json:"detail,omitempty"`
}

// MemoryDTO memoria del proceso en MB.
type MemoryDTO struct {
	AllocMB     float64 `json:"alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	HeapInUseMB float64 `json:"heap_in_use_mb"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
}

// DiskDTO espacio del volumen de almacenamiento en GB.
type DiskDTO struct {
	Status      string  `json:"status"`
	Path        string  `json:"path"`
	TotalGB     float64 `json:"total_gb"`
	FreeGB      float64 `json:"free_gb"`
	UsedPercent float64 `json:"used_percent"`
}

// AdvancedHealthDTO respuesta de GET /health/advanced.
type AdvancedHealthDTO struct {
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Checks    map[string]CheckDTO `json:"checks"`
	Memory    MemoryDTO           `json:"memory"`
	Disk      DiskDTO             `json:"disk"`
}

// MonitorDTO respuesta de GET /monitor. Algunas métricas no se recolectan y se
// reportan como "no disponible".
type MonitorDTO struct {
	Timestamp     time.Time `json:"timestamp"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Memory        MemoryDTO `json:"memory"`
	CPU           string    `json:"cpu"`
	RequestRate   string    `json:"requests_por_minuto"`
	ActiveUsers   string    `json:"usuarios_activos"`
	GoVersion     string    `json:"go_version"`
}
