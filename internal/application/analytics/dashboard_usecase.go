// Package analytics contiene los casos de uso de solo lectura del dashboard:
// estadísticas generales (cacheadas), tendencia mensual de mantenimientos y
// estadísticas por servicio, por área y de equipos.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kamdevo/proyecto-eva/internal/application/dto"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/query"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
)

// StatsCacheKey clave fija de las estadísticas generales.
const StatsCacheKey = "dashboard:estadisticas"

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 12
	calibrationWindow  = 30 // días para "próximas a vencer"
	noServiceLabel     = "Sin servicio"
)

// Cache memoización con expiración (pkg/cache.Memory).
type Cache interface {
	Remember(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) (any, error)) (any, error)
}

// DashboardUseCase agrega conteos y sumas sobre el inventario.
//
// Fuente de datos: StatsRepository (consultas read-only) y RecordRepository para
// cargar el servicio o área consultados.
type DashboardUseCase struct {
	registry *resource.Registry
	repo     repository.RecordRepository
	stats    repository.StatsRepository
	cache    Cache
	clock    clock.Clock
	ttl      time.Duration
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(
	registry *resource.Registry,
	repo repository.RecordRepository,
	stats repository.StatsRepository,
	cache Cache,
	clk clock.Clock,
	ttl time.Duration,
) *DashboardUseCase {
	return &DashboardUseCase{registry: registry, repo: repo, stats: stats, cache: cache, clock: clk, ttl: ttl}
}

// GetStats estadísticas generales. El resultado se guarda en caché durante ttl bajo
// StatsCacheKey; dos solicitudes simultáneas con la caché vacía calculan ambas.
func (uc *DashboardUseCase) GetStats(ctx context.Context) (*dto.DashboardStatsDTO, error) {
	v, err := uc.cache.Remember(ctx, StatsCacheKey, uc.ttl, func(ctx context.Context) (any, error) {
		return uc.computeStats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.DashboardStatsDTO), nil
}

func (uc *DashboardUseCase) computeStats(ctx context.Context) (*dto.DashboardStatsDTO, error) {
	now := uc.clock.Now()
	today := startOfDay(now)
	horizon := today.AddDate(0, 0, calibrationWindow)
	open := query.In("estado", "abierta", "en_proceso")
	pendingCal := query.In("estado", "programada", "realizada")

	out := &dto.DashboardStatsDTO{GeneradoEn: now}
	eq := &out.Equipos
	mt := &out.Mantenimientos
	cal := &out.Calibraciones
	ct := &out.Contingencias

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, table string, preds ...query.Predicate) {
		g.Go(func() (err error) {
			*dst, err = uc.stats.Count(gctx, table, preds...)
			return err
		})
	}

	count(&eq.Total, resource.TableEquipment)
	count(&eq.Activos, resource.TableEquipment, query.Eq("activo", true))
	g.Go(func() (err error) {
		eq.ValorTotal, err = uc.stats.Sum(gctx, resource.TableEquipment, "costo")
		return err
	})
	g.Go(func() (err error) {
		eq.PorRiesgo, err = uc.stats.CountBy(gctx, resource.TableEquipment, "clasificacion_riesgo")
		return err
	})

	count(&mt.Total, resource.TableMaintenance)
	count(&mt.Programados, resource.TableMaintenance, query.Eq("estado", "programado"))
	count(&mt.Completados, resource.TableMaintenance, query.Eq("estado", "completado"))
	count(&mt.Vencidos, resource.TableMaintenance, query.Eq("estado", "programado"), query.Lt("fecha_programada", today))

	count(&cal.Total, resource.TableCalibrations)
	count(&cal.Vencidas, resource.TableCalibrations, pendingCal, query.Lt("fecha_vencimiento", today))
	count(&cal.ProximasAVencer, resource.TableCalibrations, pendingCal,
		query.Gte("fecha_vencimiento", today), query.Lte("fecha_vencimiento", horizon))

	count(&ct.Total, resource.TableContingencies)
	count(&ct.Abiertas, resource.TableContingencies, open)
	count(&ct.Criticas, resource.TableContingencies, open, query.Eq("severidad", "critica"))

	count(&out.Servicios, resource.TableServices, query.Eq("activo", true))
	count(&out.Areas, resource.TableAreas, query.Eq("activo", true))

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: estadísticas: %w", err)
	}
	eq.Inactivos = eq.Total - eq.Activos
	eq.ValorTotal = eq.ValorTotal.Round(2)
	return out, nil
}

// MaintenanceTrend serie de los últimos months meses calendario (incluido el actual),
// del más antiguo al más reciente. months fuera de [1, 12] usa 6.
func (uc *DashboardUseCase) MaintenanceTrend(ctx context.Context, months int) ([]dto.MonthlyMaintenanceDTO, error) {
	if months < 1 || months > maxTrendMonths {
		months = defaultTrendMonths
	}
	now := uc.clock.Now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	out := make([]dto.MonthlyMaintenanceDTO, months)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < months; i++ {
		start := current.AddDate(0, i-months+1, 0)
		end := start.AddDate(0, 1, 0)
		point := &out[i]
		point.Mes = start.Format("2006-01")
		point.Etiqueta = monthLabel(start)

		inMonth := []query.Predicate{query.Gte("fecha_programada", start), query.Lt("fecha_programada", end)}
		done := append([]query.Predicate{query.Eq("estado", "completado")}, inMonth...)
		g.Go(func() (err error) {
			point.Programados, err = uc.stats.Count(gctx, resource.TableMaintenance, inMonth...)
			return err
		})
		g.Go(func() (err error) {
			point.Completados, err = uc.stats.Count(gctx, resource.TableMaintenance, done...)
			return err
		})
		g.Go(func() (err error) {
			point.Costo, err = uc.stats.Sum(gctx, resource.TableMaintenance, "costo", done...)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: tendencia de mantenimientos: %w", err)
	}
	return out, nil
}

// ServiceStats totales de equipos y áreas de un servicio.
func (uc *DashboardUseCase) ServiceStats(ctx context.Context, id int64) (*dto.ServiceStatsDTO, error) {
	svc, err := uc.find(ctx, resource.TableServices, id)
	if err != nil {
		return nil, err
	}
	byService := query.Eq("servicio_id", id)
	out := &dto.ServiceStatsDTO{Servicio: svc}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalEquipos, err = uc.stats.Count(gctx, resource.TableEquipment, byService)
		return err
	})
	g.Go(func() (err error) {
		out.EquiposActivos, err = uc.stats.Count(gctx, resource.TableEquipment, byService, query.Eq("activo", true))
		return err
	})
	g.Go(func() (err error) {
		out.ValorTotalEquipos, err = uc.stats.Sum(gctx, resource.TableEquipment, "costo", byService)
		return err
	})
	g.Go(func() (err error) {
		out.TotalAreas, err = uc.stats.Count(gctx, resource.TableAreas, byService)
		return err
	})
	g.Go(func() (err error) {
		out.PorRiesgo, err = uc.stats.CountBy(gctx, resource.TableEquipment, "clasificacion_riesgo", byService)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: estadísticas del servicio %d: %w", id, err)
	}
	return out, nil
}

// AreaStats totales de equipos de un área.
func (uc *DashboardUseCase) AreaStats(ctx context.Context, id int64) (*dto.AreaStatsDTO, error) {
	area, err := uc.find(ctx, resource.TableAreas, id)
	if err != nil {
		return nil, err
	}
	byArea := query.Eq("area_id", id)
	out := &dto.AreaStatsDTO{Area: area}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.TotalEquipos, err = uc.stats.Count(gctx, resource.TableEquipment, byArea)
		return err
	})
	g.Go(func() (err error) {
		out.EquiposActivos, err = uc.stats.Count(gctx, resource.TableEquipment, byArea, query.Eq("activo", true))
		return err
	})
	g.Go(func() (err error) {
		out.ValorTotalEquipos, err = uc.stats.Sum(gctx, resource.TableEquipment, "costo", byArea)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: estadísticas del área %d: %w", id, err)
	}
	return out, nil
}

// EquipmentStats distribución de equipos por riesgo, servicio (por nombre) y estado.
func (uc *DashboardUseCase) EquipmentStats(ctx context.Context) (*dto.EquipmentStatsDTO, error) {
	out := &dto.EquipmentStatsDTO{}
	var byService, byActive map[string]int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Total, err = uc.stats.Count(gctx, resource.TableEquipment)
		return err
	})
	g.Go(func() (err error) {
		out.PorRiesgo, err = uc.stats.CountBy(gctx, resource.TableEquipment, "clasificacion_riesgo")
		return err
	})
	g.Go(func() (err error) {
		byService, err = uc.stats.CountBy(gctx, resource.TableEquipment, "servicio_id")
		return err
	})
	g.Go(func() (err error) {
		byActive, err = uc.stats.CountBy(gctx, resource.TableEquipment, "activo")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: estadísticas de equipos: %w", err)
	}

	names, err := uc.serviceNames(ctx, byService)
	if err != nil {
		return nil, err
	}
	out.PorServicio = make(map[string]int64, len(byService))
	for key, n := range byService {
		label, ok := names[key]
		if !ok {
			label = noServiceLabel
		}
		out.PorServicio[label] += n
	}
	out.PorEstado = map[string]int64{
		"activos":   byActive[strconv.FormatBool(true)],
		"inactivos": byActive[strconv.FormatBool(false)],
	}
	return out, nil
}

func (uc *DashboardUseCase) serviceNames(ctx context.Context, counts map[string]int64) (map[string]string, error) {
	ids := make([]any, 0, len(counts))
	for key := range counts {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	names := map[string]string{}
	if len(ids) == 0 {
		return names, nil
	}
	schema, err := uc.registry.Get(resource.TableServices)
	if err != nil {
		return nil, err
	}
	rows, _, err := uc.repo.List(ctx, schema, query.Plan{
		Predicates: []query.Predicate{query.In(entity.ColumnID, ids...)},
		Sort:       query.Sort{Column: entity.ColumnID},
		Page:       1,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: nombres de servicios: %w", err)
	}
	for _, r := range rows {
		names[strconv.FormatInt(r.ID(), 10)] = r.String("nombre")
	}
	return names, nil
}

func (uc *DashboardUseCase) find(ctx context.Context, table string, id int64) (entity.Record, error) {
	schema, err := uc.registry.Get(table)
	if err != nil {
		return nil, err
	}
	rec, err := uc.repo.FindByID(ctx, schema, id)
	if err != nil {
		return nil, err
	}
	return schema.Present(rec), nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
