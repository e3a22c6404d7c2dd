package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	httpapi "keyrental-backend/internal/api/http"
	"keyrental-backend/internal/audit"
	"keyrental-backend/internal/config"
	"keyrental-backend/internal/logger"
	"keyrental-backend/internal/metrics"
	"keyrental-backend/internal/repository/postgres"
	"keyrental-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Optional .env file feeds the environment overrides below
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Key Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx := context.Background()

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	if err := store.Migrate(ctx); err != nil {
		logger.Error("Failed to apply schema", "error", err)
		log.Fatalf("Failed to apply schema: %v", err)
	}

	// Audit sink
	var publisher audit.Publisher = audit.NopPublisher{}
	if cfg.Audit.Enabled {
		logger.Info("Publishing audit events", "queue", cfg.Audit.Queue)
		publisher = audit.NewAMQPPublisher(cfg.Audit.AMQPURL, cfg.Audit.Queue,
			time.Duration(cfg.Audit.DialTimeoutMs)*time.Millisecond)
	}
	defer publisher.Close()

	// Initialize Services
	allocationSvc := service.NewAllocationService(store, store.LedgerRepository, publisher, service.AllocationSettings{
		HistoryDefaultLimit: cfg.Rental.HistoryDefaultLimit,
		HistoryMaxLimit:     cfg.Rental.HistoryMaxLimit,
	})
	reconciliationSvc := service.NewReconciliationService(store, publisher)
	directorySvc := service.NewDirectoryService(store.StudentRepository)
	adminSvc := service.NewAdminService(store, store.OrganizationRepository)
	catalogSvc := service.NewCatalogService(store, store.CatalogRepository)

	// Provision the resource catalog
	catalog, err := config.LoadCatalog(cfg.Catalog.File)
	if err != nil {
		logger.Error("Failed to load catalog", "file", cfg.Catalog.File, "error", err)
		log.Fatalf("Failed to load catalog: %v", err)
	}
	if _, err := catalogSvc.Provision(ctx, catalog); err != nil {
		logger.Error("Failed to provision catalog", "error", err)
		log.Fatalf("Failed to provision catalog: %v", err)
	}

	// Close duplicates left by older ledgers before the unique indexes go on.
	// Neither step may keep the server from starting.
	if closed, err := reconciliationSvc.Reconcile(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	} else {
		metrics.ReconciledTotal.Add(float64(len(closed)))
		logger.Info("Startup reconciliation finished", "closed", len(closed))
	}
	if err := store.EnforceActiveIndexes(ctx); err != nil {
		logger.Error("Failed to create active rental indexes", "error", err)
	}

	// Set up HTTP server
	handler := httpapi.NewHandler(allocationSvc, directorySvc, adminSvc, catalogSvc, store, httpapi.RetryPolicy{
		MaxAttempts: cfg.Rental.CheckoutMaxAttempts,
		BaseDelay:   time.Duration(cfg.Rental.CheckoutRetryBaseDelayMs) * time.Millisecond,
	})
	server := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped. Goodbye!")
}
