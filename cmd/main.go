package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"invoicely/internal/analytics"
	"invoicely/internal/caching"
	"invoicely/internal/config"
	"invoicely/internal/handlers"
	"invoicely/internal/jobs/background"
	"invoicely/internal/middleware"
	"invoicely/internal/repositories"
	"invoicely/internal/services"
	"invoicely/internal/storage"
	"invoicely/pkg/database"
)

const version = "1.0.0"

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env file: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generated secret for development only
		log.Printf("WARNING: JWT_SECRET not set, using a generated secret")
	}

	if err := storage.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	minioSvc, err := services.NewMinioService(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize MinIO service: %v", err)
	}
	if err := minioSvc.EnsureBucketExists(context.Background(), services.LogoBucket); err != nil {
		log.Fatalf("Failed to ensure logo bucket: %v", err)
	}

	// Repositories
	invoiceRepo := repositories.NewInvoiceRepo(pool)
	clientRepo := repositories.NewClientRepo(pool)

	// Cache
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	// Services
	invoiceSvc := services.NewInvoiceService(invoiceRepo, clientRepo, cacheSvc, minioSvc)
	clientSvc := services.NewClientService(clientRepo, cacheSvc)
	analyticsSvc := analytics.NewService(invoiceRepo, clientRepo, cacheSvc)

	// Handlers
	invoiceHandlers := handlers.NewInvoiceHandlers(invoiceSvc)
	clientHandlers := handlers.NewClientHandlers(clientSvc)
	dashboardHandlers := handlers.NewDashboardHandlers(analyticsSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, version)

	// Background jobs
	scheduler, err := background.NewJobScheduler(invoiceSvc, analyticsSvc, invoiceRepo)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	v1 := e.Group("/v1")

	protected := v1.Group("")
	protected.Use(middleware.JWTMiddleware(jwtSecret))

	// Client routes
	protected.GET("/clients", clientHandlers.ListClients)
	protected.POST("/clients", clientHandlers.CreateClient)
	protected.GET("/clients/:id", clientHandlers.GetClient)
	protected.PUT("/clients/:id", clientHandlers.UpdateClient)
	protected.DELETE("/clients/:id", clientHandlers.DeleteClient)

	// Invoice routes
	protected.GET("/invoices", invoiceHandlers.ListInvoices)
	protected.POST("/invoices", invoiceHandlers.CreateInvoice)
	protected.GET("/invoices/:id", invoiceHandlers.GetInvoice)
	protected.PUT("/invoices/:id", invoiceHandlers.UpdateInvoice)
	protected.PUT("/invoices/:id/status", invoiceHandlers.UpdateInvoiceStatus)
	protected.DELETE("/invoices/:id", invoiceHandlers.DeleteInvoice)
	protected.POST("/invoices/:id/logo", invoiceHandlers.UploadLogo)
	protected.GET("/invoices/:id/logo", invoiceHandlers.GetLogo)

	// Dashboard
	protected.GET("/dashboard/stats", dashboardHandlers.GetStats)

	go func() {
		log.Printf("Invoicely server v%s starting on port %s", version, cfg.Port)
		if err := e.Start(fmt.Sprintf(":%s", cfg.Port)); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
