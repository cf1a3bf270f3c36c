// seed crea el usuario administrador e importa el catálogo de servicios y áreas.
//
// Uso: go run ./cmd/seed [ruta/catalogo.xml]
// Sin argumento solo crea el administrador (SEED_ADMIN_EMAIL, SEED_ADMIN_USERNAME,
// SEED_ADMIN_PASSWORD). Usa la misma configuración de base de datos que la API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kamdevo/proyecto-eva/internal/application/audit"
	"github.com/kamdevo/proyecto-eva/internal/application/auth"
	appresource "github.com/kamdevo/proyecto-eva/internal/application/resource"
	"github.com/kamdevo/proyecto-eva/internal/domain/entity"
	"github.com/kamdevo/proyecto-eva/internal/domain/resource"
	"github.com/kamdevo/proyecto-eva/internal/infrastructure/postgres"
	"github.com/kamdevo/proyecto-eva/internal/migrate"
	"github.com/kamdevo/proyecto-eva/internal/seed"
	"github.com/kamdevo/proyecto-eva/pkg/config"
	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})

	if cfg.DB.Driver != config.DriverPostgres {
		log.Fatal().Str("db_driver", cfg.DB.Driver).Msg("el seed requiere DB_DRIVER=postgres")
	}
	if cfg.Seed.AdminPassword == "" {
		log.Fatal().Msg("SEED_ADMIN_PASSWORD es obligatorio")
	}

	ctx := context.Background()
	if cfg.DB.AutoMigrate {
		if err := migrate.Up(ctx, cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	repo := postgres.NewRecordRepository(pool)
	stats := postgres.NewStatsRepository(pool)
	registry := resource.Catalog()
	sink, err := audit.NewSink(repo, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("auditoría")
	}
	resources := appresource.NewService(registry, repo, stats, sink, log).
		WithTransform(entity.TableUsers, auth.PasswordTransform(0))
	seeder := seed.NewSeeder(resources, repo, stats, log)

	if _, err := seeder.EnsureAdmin(ctx, seed.Admin{
		Email:    cfg.Seed.AdminEmail,
		Username: cfg.Seed.AdminUsername,
		Password: cfg.Seed.AdminPassword,
	}); err != nil {
		log.Fatal().Err(err).Msg("administrador")
	}

	if len(os.Args) < 2 {
		return
	}
	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("abrir catálogo")
	}
	defer f.Close()

	catalog, err := seed.ParseCatalog(f)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}
	if _, err := seeder.ImportCatalog(ctx, catalog); err != nil {
		log.Fatal().Err(err).Msg("importar catálogo")
	}
}
