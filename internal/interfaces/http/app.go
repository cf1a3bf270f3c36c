package http

import (
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/kamdevo/proyecto-eva/pkg/logger"
)

// AppConfig opciones del servidor Fiber.
type AppConfig struct {
	Name        string
	BodyLimitMB int
	CORSOrigins string
	SwaggerPath string // se monta en /docs solo si el archivo existe
}

// NewApp construye la aplicación con el middleware común y todas las rutas.
func NewApp(cfg AppConfig, log *logger.Logger, deps RouterDeps) *fiber.App {
	if cfg.BodyLimitMB <= 0 {
		cfg.BodyLimitMB = 20
	}
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = "*"
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		BodyLimit:    cfg.BodyLimitMB << 20,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: deps.Responder.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: "Content-Disposition, " + HeaderContentDigest,
	}))
	app.Use(RequestLogger(log))

	// Swagger UI: http://localhost:<port>/docs
	if cfg.SwaggerPath != "" {
		if _, err := os.Stat(cfg.SwaggerPath); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: cfg.SwaggerPath,
				Path:     "docs",
				Title:    cfg.Name + " API",
			}))
		}
	}

	Router(app, deps)
	return app
}
