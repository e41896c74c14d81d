package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/resume-matcher/internal/app"
	"alfredoptarigan/resume-matcher/internal/config"
	"alfredoptarigan/resume-matcher/internal/handlers"
	"alfredoptarigan/resume-matcher/internal/repositories"
	"alfredoptarigan/resume-matcher/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	analysisRepo := repositories.NewAnalysisRepository(db)
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService, err := app.NewStorage(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize storage: %v", err)
	}

	documentService, err := app.NewDocumentService(cfg, db)
	if err != nil {
		log.Fatalf("❌ Failed to initialize document service: %v", err)
	}

	notifier, closeNotifier, err := app.NewNotifier(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize session notifier: %v", err)
	}
	defer closeNotifier()

	sessions := services.NewSessionTracker(notifier)
	analyzer := services.NewAnalyzer(documentService, sessions, cfg.Provider.IndexName)
	runner := services.NewAnalysisRunner(analysisRepo, storageService, analyzer)
	log.Println("✅ Services initialized successfully")

	// Initialize worker
	worker := services.NewWorker(
		analysisRepo,
		runner,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	// Initialize Handlers
	analysisHandler := handlers.NewAnalysisHandler(
		analyzer,
		analysisRepo,
		storageService,
		worker,
		cfg.Storage.MaxFileSize,
	)
	resultHandler := handlers.NewResultHandler(analysisRepo)
	sessionHandler := handlers.NewSessionHandler(sessions)
	log.Println("✅ Handlers initialized")

	// Create Fiber app
	fiberApp := fiber.New(fiber.Config{
		AppName:      "Resume Matcher API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Affinda.Timeout + 60*time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1<<20, // file plus form fields
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Session-ID",
	}))

	handlers.RegisterRoutes(fiberApp, analysisHandler, resultHandler, sessionHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		if err := fiberApp.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
		cancel()
		worker.Stop()
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s (provider: %s, index: %s)\n", addr, cfg.Provider.Name, cfg.Provider.IndexName)

	if err := fiberApp.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
