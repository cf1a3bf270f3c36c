// Package health reporta el estado del proceso y de sus dependencias.
package health

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

const (
	serviceName   = "proyecto-eva"
	probeKey      = "health:probe"
	pingTimeout   = 3 * time.Second
	diskThreshold = 90.0

	// DetailNoConnection detalle público de una base de datos que no responde; la
	// causa real solo va al log.
	DetailNoConnection = "sin conexión"
)

// Cache operaciones usadas en la prueba de ida y vuelta.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}

// Service calcula los reportes de salud.
type Service struct {
	db          repository.Pinger
	cache       Cache
	storageRoot string
	clock       clock.Clock
	startedAt   time.Time
	log         *logger.Logger
}

// NewService construye el servicio; el uptime se mide desde este momento.
func NewService(db repository.Pinger, cache Cache, storageRoot string, clk clock.Clock, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{db: db, cache: cache, storageRoot: storageRoot, clock: clk, startedAt: clk.Now(), log: log.Named("health")}
}

// Liveness respuesta mínima sin tocar dependencias.
func (s *Service) Liveness() dto.LivenessDTO {
	return dto.LivenessDTO{Status: dto.HealthOK, Service: serviceName, Timestamp: s.clock.Now()}
}

// Advanced verifica base de datos, caché y disco. Cualquier verificación fallida
// deja el estado general en "degradado".
func (s *Service) Advanced(ctx context.Context) dto.AdvancedHealthDTO {
	out := dto.AdvancedHealthDTO{
		Status:    dto.HealthOK,
		Timestamp: s.clock.Now(),
		Checks: map[string]dto.CheckDTO{
			"database": s.checkDatabase(ctx),
			"cache":    s.checkCache(),
		},
		Memory: memory(),
		Disk:   disk(s.storageRoot),
	}
	for _, c := range out.Checks {
		if c.Status != dto.HealthOK {
			out.Status = dto.HealthDegraded
		}
	}
	if out.Disk.Status != dto.HealthOK {
		out.Status = dto.HealthDegraded
	}
	return out
}

// Monitor métricas del proceso.
func (s *Service) Monitor() dto.MonitorDTO {
	now := s.clock.Now()
	return dto.MonitorDTO{
		Timestamp:     now,
		UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
		Memory:        memory(),
		CPU:           dto.Unavailable,
		RequestRate:   dto.Unavailable,
		ActiveUsers:   dto.Unavailable,
		GoVersion:     runtime.Version(),
	}
}

func (s *Service) checkDatabase(ctx context.Context) dto.CheckDTO {
	if s.db == nil {
		return dto.CheckDTO{Status: dto.HealthError, Detail: "sin conexión configurada"}
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	start := time.Now()
	if err := s.db.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("ping a la base de datos")
		return dto.CheckDTO{Status: dto.HealthError, LatencyMS: time.Since(start).Milliseconds(), Detail: DetailNoConnection}
	}
	return dto.CheckDTO{Status: dto.HealthOK, LatencyMS: time.Since(start).Milliseconds()}
}

func (s *Service) checkCache() dto.CheckDTO {
	if s.cache == nil {
		return dto.CheckDTO{Status: dto.HealthError, Detail: "sin caché configurada"}
	}
	start := time.Now()
	stamp := s.clock.Now().UnixNano()
	s.cache.Set(probeKey, stamp, time.Minute)
	got, ok := s.cache.Get(probeKey)
	s.cache.Delete(probeKey)
	if !ok || got != stamp {
		return dto.CheckDTO{Status: dto.HealthError, LatencyMS: time.Since(start).Milliseconds(), Detail: "lectura inconsistente"}
	}
	return dto.CheckDTO{Status: dto.HealthOK, LatencyMS: time.Since(start).Milliseconds()}
}

func memory() dto.MemoryDTO {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return dto.MemoryDTO{
		AllocMB:     toMB(m.Alloc),
		SysMB:       toMB(m.Sys),
		HeapInUseMB: toMB(m.HeapInuse),
		NumGC:       m.NumGC,
		Goroutines:  runtime.NumGoroutine(),
	}
}

func disk(path string) dto.DiskDTO {
	out := dto.DiskDTO{Status: dto.HealthOK, Path: path}
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		out.Status = dto.HealthError
		return out
	}
	bsize := uint64(st.Bsize)
	total := st.Blocks * bsize
	free := st.Bavail * bsize
	out.TotalGB = toGB(total)
	out.FreeGB = toGB(free)
	if total > 0 {
		out.UsedPercent = round2(float64(total-free) / float64(total) * 100)
	}
	if out.UsedPercent > diskThreshold {
		out.Status = dto.HealthDegraded
	}
	return out
}

func toMB(b uint64) float64 { return round2(float64(b) / (1 << 20)) }
func toGB(b uint64) float64 { return round2(float64(b) / (1 << 30)) }

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
