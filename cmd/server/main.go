package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/config"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/core/services"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/infrastructure/db"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/infrastructure/outbox"
	transporthttp "github.com/spincycle/backend/internal/transport/http"
	httpmw "github.com/spincycle/backend/internal/transport/http/middleware"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	path := *configPath
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = ""
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	database, err := db.NewConnection(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	log.Infow("database_connected", "driver", cfg.Database.Driver)

	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	log.Info("database migrations completed")

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("failed to load workflow catalog: %v", err)
	}
	log.Infow("catalog_loaded", "id", cat.ID, "stages", len(cat.Stages), "tasks", cat.TotalTasks())

	queue, err := outbox.Build(cfg.Sync.OutboxDSN, cfg.Sync.OutboxCapacity)
	if err != nil {
		log.Fatalf("failed to open outbox: %v", err)
	}

	customerRepo := db.NewCustomerRepository(database, log)
	timelineRepo := db.NewTimelineRepository(database, log)

	engine, err := syncengine.New(syncengine.Config{
		Remote:          db.NewCustomerRemote(customerRepo),
		Outbox:          queue,
		Logger:          log.Named("sync"),
		DefaultDebounce: cfg.Sync.DefaultDebounce,
		WriteTimeout:    cfg.Sync.WriteTimeout,
		MaxAttempts:     cfg.Sync.MaxAttempts,
	})
	if err != nil {
		log.Fatalf("failed to start sync engine: %v", err)
	}

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	loaded, err := engine.LoadAll(loadCtx)
	cancelLoad()
	if err != nil {
		log.Warnw("customers_preload_failed", "error", err)
	} else {
		log.Infow("customers_preloaded", "count", loaded)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          globalErrorHandler(log),
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "http://localhost:3000"
	if len(cfg.Auth.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Auth.AllowedOrigins, ",")
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Token, X-Operator-Token, X-Actor, " + cfg.Features.RequestIDHeader,
		AllowMethods: "GET, POST, HEAD, PUT, DELETE, PATCH",
	}))

	app.Use(httpmw.RequestID(cfg.Features.RequestIDHeader))
	if cfg.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(log))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		stats := engine.Stats()
		return c.JSON(fiber.Map{
			"status":       "ok",
			"cached":       stats.Cached,
			"outbox_depth": stats.OutboxDepth,
		})
	})

	bgCtx, stopBackground := context.WithCancel(context.Background())

	jobs := services.NewJobService(log.Named("jobs"))
	transporthttp.SetupRoutes(app, transporthttp.RouterConfig{
		Logger:       log,
		Config:       cfg,
		Engine:       engine,
		TimelineRepo: timelineRepo,
		Catalog:      cat,
		Jobs:         jobs,
		BaseContext:  bgCtx,
	})

	cleanup := services.NewCleanupService(log.Named("cleanup"))
	cleanup.SetReplayer(engine)
	cleanup.SetTimelineRepo(timelineRepo, cfg.Features.TimelineRetention)
	go cleanup.Run(bgCtx, cfg.Sync.ReplayInterval, time.Hour)

	go func() {
		if err := app.Listen(cfg.Server.Address()); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	log.Infof("server started on %s", cfg.Server.Address())

	gracefulShutdown(app, engine, queue, jobs, stopBackground, database, log)
}

func globalErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		// Reduce log level for expected errors (408 Timeout, 404 Not Found, etc.)
		if code == fiber.StatusRequestTimeout || code == fiber.StatusNotFound {
			log.Warnw("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		} else {
			log.Errorw("request error",
				"method", c.Method(),
				"path", c.Path(),
				"status", code,
				"error", err.Error(),
				"request_id", httpmw.GetRequestID(c),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

// gracefulShutdown waits for SIGINT or SIGTERM and then shuts down.
func gracefulShutdown(app *fiber.App, engine *syncengine.Engine, queue ports.Outbox, jobs *services.JobService, stopBackground context.CancelFunc, database *gorm.DB, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	shutdown(ctx, app, engine, queue, jobs, stopBackground, database, log)
}

// shutdown stops accepting requests, then drains the sync engine so debounced
// edits reach the database (or the outbox) before either is closed.
func shutdown(ctx context.Context, app *fiber.App, engine *syncengine.Engine, queue ports.Outbox, jobs *services.JobService, stopBackground context.CancelFunc, database *gorm.DB, log *logger.Logger) {
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}
	stopBackground()
	jobs.Wait()

	if err := engine.Close(ctx); err != nil {
		log.Errorf("sync engine did not drain: %v", err)
	}

	if err := queue.Close(); err != nil {
		log.Errorf("failed to close outbox: %v", err)
	}

	if err := db.Close(database); err != nil {
		log.Errorf("failed to close database connection: %v", err)
	}

	log.Info("server exited gracefully")
}
