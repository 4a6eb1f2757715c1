package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/api"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/config"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/database"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/mfapi"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/model"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/repository"
	"github.com/foliotrack/Mutual-Fund-Portfolio-Backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Printf("Connected to database: %s", cfg.Database.Path)

	// Create repositories
	portfolioRepo := repository.NewPortfolioRepository(db)
	folioRepo := repository.NewFolioRepository(db, cfg.FernetKey)
	schemeRepo := repository.NewSchemeRepository(db)
	holdingRepo := repository.NewHoldingRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	navRepo := repository.NewNAVRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)
	realizedGainRepo := repository.NewRealizedGainRepository(db)

	// Create services
	systemService := service.NewSystemService(db)
	portfolioService := service.NewPortfolioService(
		portfolioRepo,
		folioRepo,
		schemeRepo,
		holdingRepo,
		snapshotRepo,
	)
	transactionService := service.NewTransactionService(
		transactionRepo,
		holdingRepo,
	)
	valuationService := service.NewValuationService(
		holdingRepo,
		transactionRepo,
		navRepo,
		snapshotRepo,
		realizedGainRepo,
	)
	navService := service.NewNAVService(
		schemeRepo,
		navRepo,
		mfapi.NewClient(cfg.NAVFeed.BaseURL),
	)

	// Background jobs: pull fresh NAVs, then bring derived values up to date.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Scheduler.RefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		inserted, err := navService.RefreshAll(ctx)
		if err != nil {
			log.Printf("NAV refresh: %v", err)
		}
		log.Printf("NAV refresh inserted rows for %d scheme(s)", len(inserted))
	}); err != nil {
		log.Fatalf("Failed to schedule NAV refresh: %v", err)
	}
	if _, err := scheduler.AddFunc(cfg.Scheduler.RecomputeSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		report, err := valuationService.Recompute(ctx, model.RecomputeRequest{Auto: true})
		if err != nil {
			log.Printf("Scheduled recompute: %v", err)
			return
		}
		log.Printf("Scheduled recompute: %d holding(s) written, %d skipped, %d failed",
			len(report.RowsWritten), len(report.HoldingsSkipped), len(report.FailedHoldings))
	}); err != nil {
		log.Fatalf("Failed to schedule recompute: %v", err)
	}
	scheduler.Start()

	// Create router
	router := api.NewRouter(systemService, portfolioService, transactionService, valuationService, navService, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop scheduling new jobs and wait for running ones.
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
