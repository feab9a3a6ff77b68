package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"docshelf/internal/adapters/http/middleware"
	"docshelf/internal/adapters/http/routes"
	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/config"
	"docshelf/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// @title DocShelf API
// @version 1.0
// @description Digital document storefront with tiered content access
// @contact.name API Support
// @contact.email support@docshelf.example.com

// @host api.docshelf.example.com
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed the bootstrap administrator from configuration
	if err := config.SeedAdmin(cfg); err != nil {
		log.Fatalf("❌ Failed to seed admin account: %v", err)
	}

	// Make sure the document storage dir exists before serving uploads
	if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
		log.Fatalf("❌ Failed to create storage directory: %v", err)
	}

	// Start nightly maintenance (expired tokens and discount codes)
	maintenanceService := services.NewMaintenanceService(db)
	maintenanceService.Start()
	defer maintenanceService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "DocShelf API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    60 << 20, // room for PDF uploads
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
