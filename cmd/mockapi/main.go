package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/config"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/handlers"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/repositories"
	"github.com/vishwambharaRH/Resume-Analyzer/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	log.Println("✅ Config loaded successfully")

	// Pick the job store
	var jobRepo repositories.JobRepository
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	if db != nil {
		jobRepo = repositories.NewJobRepository(db)
	} else {
		jobRepo = repositories.NewMemoryJobRepository()
		log.Println("ℹ️  DB_DSN not set, keeping jobs in memory")
	}
	log.Println("✅ Repositories initialized successfully")

	// Initialize services
	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		log.Fatalf("❌ Failed to create upload directory: %v", err)
	}

	extractor := services.NewTextExtractor()
	analyzer := services.NewAnalyzerService(jobRepo, extractor, cfg.Worker.ProcessingDelay)
	log.Println("✅ Services initialized successfully")

	// Initialize worker
	worker := services.NewWorker(
		jobRepo,
		analyzer,
		cfg.Worker.Concurrency,
		cfg.Worker.SweepInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	// Initialize Handlers
	app := handlers.NewApp(
		handlers.AppConfig{MaxFileSize: cfg.Upload.MaxFileSize},
		handlers.NewJobHandler(jobRepo, storageService, worker, cfg.Upload.MaxFileSize),
		handlers.NewCompareHandler(storageService, extractor, cfg.Upload.MaxFileSize),
	)
	log.Println("✅ Handlers initialized")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("\n🛑 Shutting down server...")
		cancel()
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("🚀 Server starting on %s\n", addr)
	log.Printf("📖 API Documentation: http://localhost%s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
