package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "inventory/docs"
	"inventory/internal/config"
	"inventory/internal/database"
	"inventory/internal/handlers"
	applogger "inventory/internal/logger"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"
	"inventory/pkg/rabbitmq"
)

// App bundles the HTTP server with the resources it owns.
type App struct {
	Fiber   *fiber.App
	Service *services.InventoryService
	closers []func() error
}

// Close releases every resource acquired by NewApp, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// abort releases what a failed NewApp acquired and reports both failures.
func (a *App) abort(err error) error {
	return errors.Join(err, a.Close())
}

// newRepository opens the configured item store.
func newRepository(cfg *config.Config, log *zap.Logger) (repositories.InventoryRepository, func() error, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory inventory store; data is lost on restart")
		return repositories.NewMemoryInventoryRepository(), func() error { return nil }, nil
	}

	db, err := database.Open(cfg.Database, cfg.IsDevelopment(), log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, nil, errors.Join(err, database.Close(db))
	}
	log.Info("connected to database", zap.String("driver", cfg.Database.Driver))
	return repositories.NewGORMInventoryRepository(db), func() error { return database.Close(db) }, nil
}

// NewApp wires configuration, storage, messaging and routes into a Fiber app.
func NewApp(cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{}

	// --- Initialize Repository ---
	repo, closeRepo, err := newRepository(cfg, log)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeRepo)

	// --- Initialize RabbitMQ Client (optional) ---
	opts := []services.Option{}
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return nil, app.abort(err)
		}
		app.closers = append(app.closers, mqClient.Close)
		opts = append(opts, services.WithPublisher(mqClient))

		err = mqClient.ConsumeInventoryEvents(func(event models.InventoryEvent) error {
			log.Info("received inventory event",
				zap.String("type", string(event.Type)),
				zap.Int64("item_id", event.ItemID),
				zap.Bool("low_stock", event.IsLowStock))
			return nil
		})
		if err != nil {
			log.Warn("failed to start RabbitMQ consumer", zap.Error(err))
		}
	} else {
		log.Info("RABBITMQ_URL not set; inventory events are not published")
	}

	// --- Initialize Service ---
	app.Service = services.NewInventoryService(repo, log, opts...)

	if cfg.SeedSampleData {
		seedItems(context.Background(), app.Service, log)
	}

	// --- Initialize Handlers ---
	inventoryHandler := handlers.NewInventoryHandler(app.Service, log)
	healthHandler := handlers.NewHealthHandler(app.Service, log)

	// --- Initialize Fiber App ---
	app.Fiber = fiber.New(fiber.Config{
		AppName:               "inventory",
		DisableStartupMessage: !cfg.IsDevelopment(),
	})

	// --- Middleware ---
	app.Fiber.Use(recover.New())
	app.Fiber.Use(logger.New())
	app.Fiber.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSAllowOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// --- API Routes ---
	api := app.Fiber.Group("/api")
	inventoryHandler.RegisterRoutes(api)
	healthHandler.RegisterRoutes(app.Fiber)

	// --- API Docs (development only) ---
	if cfg.IsDevelopment() {
		app.Fiber.Get("/swagger/*", swagger.HandlerDefault)
	}

	return app, nil
}

//	@title			Manufacturing Inventory Management API
//	@version		v1
//	@description	RESTful API for managing inventory items
//	@BasePath		/api
func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := applogger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	app, err := NewApp(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize application", zap.Error(err))
	}

	// --- Start HTTP Server ---
	appLogger.Info("starting server", zap.String("port", cfg.AppPort))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			appLogger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	appLogger.Info("shutting down server")

	if err := app.Fiber.Shutdown(); err != nil {
		appLogger.Error("error during Fiber shutdown", zap.Error(err))
	}
	if err := app.Close(); err != nil {
		appLogger.Error("error releasing resources", zap.Error(err))
	}
	appLogger.Info("server gracefully stopped")
}

// seedItems populates an empty store with sample data.
func samplePrice(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func seedItems(ctx context.Context, service *services.InventoryService, log *zap.Logger) {
	existing, err := service.ListItems(ctx)
	if err != nil || len(existing) > 0 {
		return
	}

	samples := []services.CreateItemInput{
		{ItemName: "Steel Bolts M8", Quantity: 500, ReorderLevel: 100, UnitPrice: samplePrice("0.25"), SupplierName: "Acme Fasteners"},
		{ItemName: "Hydraulic Pump", Quantity: 3, ReorderLevel: 5, UnitPrice: samplePrice("1249.99"), SupplierName: "FluidTech Industries"},
		{ItemName: "Copper Wire 2.5mm", Quantity: 40, ReorderLevel: 50, UnitPrice: samplePrice("12.80"), SupplierName: "Conductors Ltd"},
	}
	for _, input := range samples {
		item, err := service.CreateItem(ctx, input)
		if err != nil {
			log.Warn("failed to seed item", zap.String("item_name", input.ItemName), zap.Error(err))
			continue
		}
		log.Info("seeded item", zap.Int64("id", item.ID), zap.String("item_name", item.ItemName))
	}
}
