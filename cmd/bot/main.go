package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/roctbb/protocol-medsenger-bot/internal/app"
	"github.com/roctbb/protocol-medsenger-bot/internal/infra/config"
	idb "github.com/roctbb/protocol-medsenger-bot/internal/infra/database"
	"github.com/roctbb/protocol-medsenger-bot/internal/infra/httpapi"
	"github.com/roctbb/protocol-medsenger-bot/internal/infra/logger"
	"github.com/roctbb/protocol-medsenger-bot/internal/infra/medsenger"
	"github.com/roctbb/protocol-medsenger-bot/internal/infra/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	contractRepo := idb.NewPostgresContractRepository(db)
	protocolRepo := idb.NewPostgresProtocolRepository(db)
	occurrenceRepo := idb.NewPostgresOccurrenceRepository(db)

	// Initialize Medsenger agents API client
	agentsClient := medsenger.NewAgentsClient(cfg.MainHost, cfg.AppKey, cfg.MedsengerTimeout, log)

	// Initialize application services
	dispatchService := app.NewDispatchService(contractRepo, protocolRepo, occurrenceRepo, agentsClient, log, cfg.MedsengerTimeout)
	confirmationService := app.NewConfirmationService(contractRepo, protocolRepo, occurrenceRepo, log)
	contractService := app.NewContractService(contractRepo, protocolRepo, occurrenceRepo, log)

	// Initialize DispatchScheduler
	dispatchScheduler := scheduler.NewDispatchScheduler(dispatchService, log, cfg.CronSpecDispatch)
	if err := dispatchScheduler.Start(); err != nil {
		log.Fatalf("FATAL: Could not start dispatch scheduler: %v", err)
	}

	// Initialize HTTP server
	server := httpapi.NewServer(contractService, confirmationService, dispatchScheduler.RunNow, cfg.AppKey, log)

	go func() {
		if err := server.Start(cfg.ListenAddr()); err != nil && err != http.ErrServerClosed {
			log.Fatalf("FATAL: HTTP server stopped: %v", err)
		}
	}()
	log.Infof("Application setup complete. Listening on %s", cfg.ListenAddr())

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	dispatchScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown error: %v", err)
	}
	log.Info("Application shut down gracefully.")
}
