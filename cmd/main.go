/*
Package main is the entry point for the BitArena realtime battle server.

It is responsible for loading configuration, initializing the global logging
system, wiring the room store, event bus, judge client, and realtime hub
together, starting the background jobs (reaper, season keeper), and
gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitarena/internal/app/arena"
	"bitarena/internal/app/battle"
	"bitarena/internal/app/bus"
	"bitarena/internal/app/db"
	"bitarena/internal/app/judge"
	"bitarena/internal/app/rank"
	"bitarena/internal/app/reaper"
	"bitarena/internal/app/room"
	"bitarena/internal/app/storage"
	"bitarena/internal/app/store"
	"bitarena/internal/configs"
	"bitarena/internal/handler"
	"bitarena/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("judge_url", cfg.JudgeURL).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database and apply migrations
	dbPool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database pool")
	}
	defer dbPool.Close()
	logx.Info("Database initialized and migrations applied successfully")

	roomStore := store.New(dbPool)

	// Initialize event bus
	eventBus, err := bus.New(ctx, cfg.RedisURL)
	if err != nil {
		logx.Fatal(err, "Failed to connect to the event bus broker")
	}
	defer eventBus.Close()
	logx.Info("Event bus connected successfully")

	// Initialize solution archive, if configured
	var archive storage.ArchiveService
	if cfg.S3BucketName != "" {
		archive, err = storage.NewArchiveService(storage.ServiceConfig{
			BucketName:      cfg.S3BucketName,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			logx.Fatal(err, "Failed to initialize solution archive")
		}
		logx.Info("Solution archive initialized successfully")
	}

	// Wire the services together
	judgeClient := judge.NewClient(cfg.JudgeURL, cfg.JudgeTimeout)
	roomService := room.NewService(roomStore, eventBus)
	battleService := battle.NewService(roomStore, eventBus, judgeClient, roomService, archive)

	hub := arena.NewHub(eventBus)
	keeper := arena.NewTimekeeper(roomStore, eventBus, battleService)

	// Start background jobs
	go reaper.New(roomStore).Run(ctx)
	go rank.NewSeasonKeeper(roomStore).Run(ctx)

	// Setup HTTP server and routes
	deps := &handler.AppDeps{
		Config:  cfg,
		Store:   roomStore,
		Bus:     eventBus,
		Hub:     hub,
		Keeper:  keeper,
		Rooms:   roomService,
		Battles: battleService,
	}
	router := handler.Router(deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("BitArena Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	keeper.Shutdown()
	hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
