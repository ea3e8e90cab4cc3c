package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/config"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/database"
	"github.com/ThiagoRGoveia/ans-operadoras/internal/server"
	"github.com/ThiagoRGoveia/ans-operadoras/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal(err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	dbManager := database.NewPostgresDBManager(dbpool, appLogger)
	router := server.SetupRoutes(server.NewOperatorService(dbManager, appLogger), cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("server shutdown failed", "error", err)
		}
	}()

	appLogger.Info("server starting", "port", cfg.APIPort, "cors_origins", cfg.CORSOrigins)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		appLogger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}
