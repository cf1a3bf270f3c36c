package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	appanalytics "github.com/kamdevo/proyecto-eva/internal/application/analytics"
	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/application/auth"
	"github.com/kamdevo/proyecto-eva/internal/application/files"
	"github.com/kamdevo/proyecto-eva/internal/application/health"
	"github.com/kamdevo/proyecto-eva/internal/application/report"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/repository"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/export"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/memory"
	infrapdf "github.com/kamdevo/proyecto-eva/internal/infrastructure/pdf"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/postgres"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/storage"
	httpRouter "github.com/kamdevo/proyecto-eva/internal/interfaces/http"
	"github.com/kamdevo/proyecto-eva/internal/migrate"
	"github.com/kamdevo/proyecto-eva/pkg/cache"
	"github.com/kamdevo/proyecto-eva/pkg/clock"
	"github.com/kamdevo/proyecto-eva/pkg/config"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// backend adaptadores de persistencia del driver elegido.
type backend struct {
	repo     repository.RecordRepository
	stats    repository.StatsRepository
	sessions repository.SessionRepository
	tx       repository.TxRunner
	pinger   repository.Pinger
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	clk := clock.System{}

	db, err := openBackend(ctx, cfg, clk, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer db.close()

	registry := resource.Catalog()
	sink, err := audit.NewSink(db.repo, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("auditoría")
	}
	resources := appresource.NewService(registry, db.repo, db.stats, sink, log).
		WithTransform(entity.TableUsers, auth.PasswordTransform(0))

	authUC, err := auth.NewAuthUseCase(registry, db.repo, db.sessions, sink, clk, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("auth")
	}

	local, err := storage.NewLocal(cfg.Storage.Root)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de archivos")
	}
	fileSvc, err := files.NewService(registry, db.repo, db.tx, local, sink, log)
	if err != nil {
		log.Fatal().Err(err).Msg("archivos")
	}

	memCache := cache.NewMemory(clk)
	dashboardUC := appanalytics.NewDashboardUseCase(registry, db.repo, db.stats, memCache, clk, cfg.Dashboard.CacheTTL)

	// PDF: inventario de equipos
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)
	reportSvc := report.NewService(resources, pdfGenerator, export.NewExporter(), clk)

	responder := httpRouter.NewResponder(log, cfg.App.Debug)
	app := httpRouter.NewApp(httpRouter.AppConfig{
		Name:        cfg.App.Name,
		BodyLimitMB: cfg.HTTP.BodyLimitMB,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		SwaggerPath: cfg.Docs.SwaggerPath,
	}, log, httpRouter.RouterDeps{
		Resources: resources,
		Dashboard: dashboardUC,
		Audit:     audit.NewService(sink, db.repo, db.stats),
		AuthUC:    authUC,
		Files:     fileSvc,
		Reports:   reportSvc,
		Health:    health.NewService(db.pinger, memCache, local.Root(), clk, log),
		Responder: responder,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openBackend conecta PostgreSQL (aplicando migraciones si DB_AUTO_MIGRATE) o arma
// el almacenamiento en memoria.
func openBackend(ctx context.Context, cfg *config.Config, clk clock.Clock, log *logger.Logger) (*backend, error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn().Msg("usando almacenamiento en memoria: los datos se pierden al reiniciar")
		st := memory.NewStore(clk)
		return &backend{repo: st, stats: st, sessions: st, tx: st, pinger: st, close: func() {}}, nil
	}

	if cfg.DB.AutoMigrate {
		if err := migrate.Up(ctx, cfg.DB.ConnectionString()); err != nil {
			return nil, err
		}
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &backend{
		repo:     postgres.NewRecordRepository(pool),
		stats:    postgres.NewStatsRepository(pool),
		sessions: postgres.NewSessionRepository(pool),
		tx:       postgres.NewTxRunner(pool),
		pinger:   pool,
		close:    pool.Close,
	}, nil
}
