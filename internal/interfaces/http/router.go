package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/kamdevo/proyecto-eva/internal/application/analytics"
	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/application/auth"
	"github.com/kamdevo/proyecto-eva/internal/application/files"
	"github.com/kamdevo/proyecto-eva/internal/application/health"
	"github.com/kamdevo/proyecto-eva/internal/application/report"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Resources *appresource.Service
	Dashboard *appanalytics.DashboardUseCase
	Audit     *audit.Service
	AuthUC    *auth.AuthUseCase
	Files     *files.Service
	Reports   *report.Service
	Health    *health.Service
	Responder *Responder
}

// Router registra las rutas de la API. Las rutas específicas de un recurso se
// registran antes que las genéricas para que "/equipos/estadisticas" no caiga en
// "/equipos/:id".
func Router(app *fiber.App, deps RouterDeps) {
	res := deps.Responder

	// Salud (público)
	healthHandler := NewHealthHandler(deps.Health)
	app.Get("/health", healthHandler.Liveness)
	app.Get("/health/advanced", healthHandler.Advanced)
	app.Get("/monitor", healthHandler.Monitor)

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, res)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.AuthUC, res))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/auth/me", authHandler.Me)

	// Dashboard y estadísticas
	dashboardHandler := NewDashboardHandler(deps.Dashboard, res)
	protected.Get("/dashboard/estadisticas", dashboardHandler.GetStats)
	protected.Get("/dashboard/mantenimientos-mensuales", dashboardHandler.MaintenanceTrend)
	protected.Get("/"+resource.TableServices+"/:id/estadisticas", dashboardHandler.ServiceStats)
	protected.Get("/"+resource.TableAreas+"/:id/estadisticas", dashboardHandler.AreaStats)
	protected.Get("/"+resource.TableEquipment+"/estadisticas", dashboardHandler.EquipmentStats)

	// Auditoría (administrador)
	auditHandler := NewAuditHandler(deps.Audit, res)
	auditGroup := protected.Group("/"+entity.TableAudit, RequireRole(res, entity.RoleAdmin))
	auditGroup.Get("/estadisticas", auditHandler.Stats)
	auditGroup.Delete("/:id", auditHandler.Delete)

	// Archivos
	fileHandler := NewFileHandler(deps.Files, res)
	protected.Post("/"+entity.TableFiles+"/upload", fileHandler.Upload)
	protected.Get("/"+entity.TableFiles+"/:id/download", fileHandler.Download)
	protected.Delete("/"+entity.TableFiles+"/:id", fileHandler.Delete)

	// Reportes
	reportHandler := NewReportHandler(deps.Reports, res)
	protected.Get("/reportes/"+resource.TableEquipment+"/pdf", reportHandler.EquipmentPDF)
	protected.Get("/reportes/:recurso/xml", reportHandler.XML)
	protected.Get("/reportes/:recurso/csv", reportHandler.CSV)

	// CRUD genérico por entidad del catálogo
	resourceHandler := NewResourceHandler(deps.Resources, res)
	for _, schema := range deps.Resources.Registry().All() {
		registerResource(protected, resourceHandler, schema)
	}
}

func registerResource(r fiber.Router, h *ResourceHandler, schema *resource.Schema) {
	table := schema.Table
	group := r.Group("/" + table)

	group.Get("/", h.List(table))
	group.Post("/", h.Create(table))
	if schema.ActiveColumn != "" {
		group.Get("/activos", h.Active(table))
		group.Patch("/:id/toggle-status", h.ToggleStatus(table))
	}
	for _, rel := range schema.Relations {
		group.Get("/por-"+rel.Name+"/:id", h.ListBy(table, rel.Name))
	}
	group.Get("/:id", h.Get(table))
	group.Put("/:id", h.Update(table))
	group.Delete("/:id", h.Delete(table))
}
