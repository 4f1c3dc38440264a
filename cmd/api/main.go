package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"biro-server/internal/clock"
	"biro-server/internal/config"
	"biro-server/internal/handler"
	"biro-server/internal/repository"
	"biro-server/internal/repository/memory"
	"biro-server/internal/service"
	"biro-server/internal/ws"
	"biro-server/pkg/database"
	"biro-server/pkg/jwt"
	"biro-server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, envLoaded, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()
	sugar := zl.Sugar()
	if !envLoaded {
		sugar.Warn(".env file not found, using process environment")
	}

	// 2. Setup storage
	repos, closeStore, err := openStore(cfg, zl)
	if err != nil {
		sugar.Fatalw("storage", "driver", cfg.StorageDriver, "error", err)
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Setup WebSocket Hub
	hub := ws.NewHub(sugar.Named("ws"))
	go hub.Run(ctx)

	// 4. Dependency Injection (Wiring Layers)
	clk := clock.NewSystem()
	credentials := service.NewCredentialStore(repos.Users, sugar.Named("credentials"))
	sessions := service.NewSessionManager(repos.Sessions, clk, cfg.SessionTTL, cfg.SweepInterval, sugar.Named("sessions"))
	allocator := service.NewSerialAllocator(repos.ProductTypes, repos.Products, sugar.Named("allocator"))

	svc := handler.Services{
		Auth:         service.NewAuthService(credentials, sessions, jwt.NewSigner(cfg.WSTicketSecret, cfg.WSTicketTTL), clk),
		Sessions:     sessions,
		Customers:    service.NewCustomerService(repos.Customers, repos.Products, hub, sugar.Named("customers")),
		ProductTypes: service.NewProductTypeService(allocator, hub),
		Products:     service.NewProductService(repos, sessions, allocator, clk, hub, sugar.Named("products")),
		Stats:        service.NewStatsService(repos.Stats, clk),
	}

	sessions.Start(ctx)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Biro Server v1.0",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))

	// 6. Routes
	handler.SetupRoutes(app, svc, hub, sugar.Named("http"))

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			sugar.Panicw("listen", "port", cfg.Port, "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		sugar.Errorw("server forced to shutdown", "error", err)
	}
	cancel()
	sessions.Stop()

	sugar.Info("server exited")
}

// openStore picks the backend named by STORAGE_DRIVER.
func openStore(cfg *config.Config, zl *zap.Logger) (repository.Repositories, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		zl.Warn("using in-memory storage, data is lost on exit")
		return memory.NewStore().Repositories(), func() {}, nil
	}

	db, err := database.Connect(cfg.DatabaseDSN, zl)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	// AutoMigrate at boot; no separate migration tool
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return repository.Repositories{}, nil, err
	}
	return repository.NewGormRepositories(db), func() {
		if err := database.Close(db); err != nil {
			zl.Warn("close database", zap.Error(err))
		}
	}, nil
}
