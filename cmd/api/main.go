package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"svgupload/docs"
	"svgupload/internal/config"
	"svgupload/internal/database"
	"svgupload/internal/database/migration"
	handlers "svgupload/internal/http/handler"
	"svgupload/internal/http/middleware"
	applog "svgupload/internal/log"
	"svgupload/internal/otel"
	"svgupload/internal/repository/postgres"
	"svgupload/internal/service"
	"svgupload/internal/storage"
	"svgupload/internal/upload"
)

// baseMIMETypes is the upload content-type mapping before the SVG gate adds its own entries.
var baseMIMETypes = map[string]string{
	"pdf":  "application/pdf",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"txt":  "text/plain",
}

// @title SVG Upload API
// @version 1.0
// @description Document uploads with SVG classification and sanitization.
// @BasePath /
func main() {
	// Fallback logger until config is known.
	boot := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := applog.New(cfg.Env, cfg.LogLevel, cfg.Location)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register http metrics")
	}
	gateMetrics, err := upload.NewMetrics(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register svg gate metrics")
	}

	gate := upload.NewGate(cfg.SVG, logger, gateMetrics)
	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo, gate)

	logger.Info().
		Str("svg_mode", string(cfg.SVG.Mode)).
		Int64("svg_max_bytes", cfg.SVG.MaxBytes).
		Bool("svg_allow_svgz", cfg.SVG.AllowSVGZ).
		Msg("svg gate configured")

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Multipart bodies carry the SVG plus form overhead; svgz may expand up to the gate limit.
		BodyLimit: int(cfg.SVG.MaxBytes) + 1<<20,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(httpMetrics.Handler())
	app.Use(middleware.Recovery(logger))

	handlers.RegisterRoutes(app, handlers.Dependencies{
		DB:        db,
		Documents: docSvc,
		Gate:      gate,
		MIMETypes: upload.MIMETypes(baseMIMETypes),
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("app_host", cfg.AppHost).Msg("http server listening")
		if err := app.Listen(addr); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("tracing shutdown failed")
	}
}
