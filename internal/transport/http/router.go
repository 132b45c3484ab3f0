package http

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/spincycle/backend/internal/catalog"
	"github.com/spincycle/backend/internal/config"
	"github.com/spincycle/backend/internal/core/ports"
	"github.com/spincycle/backend/internal/core/services"
	"github.com/spincycle/backend/internal/core/syncengine"
	"github.com/spincycle/backend/internal/infrastructure/logger"
	"github.com/spincycle/backend/internal/transport/http/handlers"
	httpmw "github.com/spincycle/backend/internal/transport/http/middleware"
)

type RouterConfig struct {
	Logger       *logger.Logger
	Config       *config.Config
	Engine       *syncengine.Engine
	TimelineRepo ports.TimelineRepository
	Catalog      *catalog.Catalog
	Jobs         *services.JobService
	// BaseContext parents background jobs started over HTTP. Cancel it on
	// shutdown; nil means context.Background.
	BaseContext context.Context
	// NewID overrides id generation for customers, reps and machines.
	NewID func() string
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	cat := cfg.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	baseCtx := cfg.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	jobs := cfg.Jobs
	if jobs == nil {
		jobs = services.NewJobService(cfg.Logger)
	}

	// One locker so read-modify-write cycles on a customer serialize across
	// services.
	locks := services.NewKeyLocker()

	customerService := services.NewCustomerService(services.CustomerServiceConfig{
		Store:        cfg.Engine,
		TimelineRepo: cfg.TimelineRepo,
		Catalog:      cat,
		Logger:       cfg.Logger,
		Locks:        locks,
		NewID:        cfg.NewID,
	})
	ledgerService := services.NewLedgerService(services.LedgerServiceConfig{
		Store:        cfg.Engine,
		TimelineRepo: cfg.TimelineRepo,
		Logger:       cfg.Logger,
		Locks:        locks,
		NewID:        cfg.NewID,
	})
	equipmentService := services.NewEquipmentService(services.EquipmentServiceConfig{
		Store:        cfg.Engine,
		TimelineRepo: cfg.TimelineRepo,
		Logger:       cfg.Logger,
		Locks:        locks,
		NewID:        cfg.NewID,
	})

	catalogHandler := handlers.NewCatalogHandler(cat)
	customerHandler := handlers.NewCustomerHandler(customerService, cat, cfg.Logger)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService, cfg.Logger)
	machineHandler := handlers.NewMachineHandler(equipmentService, cfg.Logger)
	syncHandler := handlers.NewSyncHandler(baseCtx, cfg.Engine, jobs, cfg.Logger)
	timelineHandler := handlers.NewTimelineHandler(cfg.TimelineRepo)
	feedHandler := handlers.NewFeedHandler(cfg.Engine, cfg.Logger)

	// Live customer feed
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws/customers", httpmw.Auth(cfg.Config), websocket.New(feedHandler.Handle))

	// API v1 routes
	api := app.Group("/api/v1", httpmw.Auth(cfg.Config))

	api.Get("/catalog", catalogHandler.GetCatalog)

	customers := api.Group("/customers")
	customers.Post("/", customerHandler.CreateCustomer)
	customers.Get("/", customerHandler.GetCustomers)
	customers.Get("/:id", customerHandler.GetCustomer)
	customers.Patch("/:id", customerHandler.UpdateCustomer)
	customers.Delete("/:id", httpmw.AdminOnly(), customerHandler.DeleteCustomer)
	customers.Post("/:id/reload", customerHandler.ReloadCustomer)
	customers.Get("/:id/timeline", customerHandler.GetTimeline)

	// Workflow
	customers.Get("/:id/progress", customerHandler.GetProgress)
	customers.Put("/:id/tasks/:taskId", customerHandler.UpdateTaskStatus)

	// Sub-records
	customers.Post("/:id/notes", customerHandler.AddNote)
	customers.Delete("/:id/notes/:noteId", customerHandler.RemoveNote)
	customers.Post("/:id/payment-links", customerHandler.AddPaymentLink)
	customers.Delete("/:id/payment-links/:linkId", customerHandler.RemovePaymentLink)
	customers.Post("/:id/payment-processors", customerHandler.AddPaymentProcessor)
	customers.Delete("/:id/payment-processors/:processorId", customerHandler.RemovePaymentProcessor)

	// Ledger
	customers.Patch("/:id/financials", ledgerHandler.UpdateFinancials)
	customers.Post("/:id/payments", ledgerHandler.RecordPayment)
	customers.Post("/:id/commission-payouts", httpmw.AdminOnly(), ledgerHandler.RecordCommissionPayout)
	customers.Get("/:id/commission", ledgerHandler.GetCommission)
	customers.Post("/:id/sales-reps", ledgerHandler.AddSalesRep)
	customers.Delete("/:id/sales-reps/:repId", ledgerHandler.RemoveSalesRep)
	customers.Put("/:id/sales-reps", ledgerHandler.UpdateSplits)

	// Machines
	customers.Get("/:id/machines/next-number", machineHandler.NextNumber)
	customers.Post("/:id/machines", machineHandler.AddMachine)
	customers.Patch("/:id/machines/:machineId", machineHandler.UpdateMachine)
	customers.Delete("/:id/machines/:machineId", machineHandler.RemoveMachine)
	customers.Put("/:id/machines/:machineId/number", machineHandler.RenumberMachine)
	customers.Post("/:id/machines/:machineId/clone", machineHandler.CloneMachine)

	// Timeline routes
	api.Get("/timeline", timelineHandler.GetEvents)

	// Sync engine control
	sync := api.Group("/sync", httpmw.AdminOnly())
	sync.Get("/status", syncHandler.GetStatus)
	sync.Post("/flush", syncHandler.Flush)
	sync.Post("/replay", syncHandler.Replay)
	sync.Post("/reload", syncHandler.Reload)
	sync.Get("/jobs/:id", syncHandler.GetJob)
}
