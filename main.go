package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Bhati90/workw-sub001/config"
	"github.com/Bhati90/workw-sub001/handler"
	"github.com/Bhati90/workw-sub001/middleware"
	"github.com/Bhati90/workw-sub001/pkg/logger"
	"github.com/Bhati90/workw-sub001/service"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize stores
	roster := service.NewRosterStore()
	sessions := service.NewSessionStore(cfg.Sessions.MaxSessions)

	// Restore the roster from the configured snapshot backend
	snapshots, err := service.NewSnapshotStore(cfg)
	if err != nil {
		slog.Error("failed to initialize snapshot store", "error", err)
		os.Exit(1)
	}
	if objectStore, ok := snapshots.(*service.ObjectSnapshotStore); ok {
		if err := objectStore.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure snapshot bucket", "error", err)
			os.Exit(1)
		}
	}
	if err := service.LoadRoster(context.Background(), snapshots, roster); err != nil {
		slog.Error("failed to restore roster snapshot", "error", err)
		os.Exit(1)
	}

	// Seed contractors on first start
	if cfg.Roster.SeedPath != "" && roster.Count() == 0 {
		loaded, err := roster.LoadSeed(cfg.Roster.SeedPath)
		if err != nil {
			slog.Error("failed to load roster seed", "error", err)
			os.Exit(1)
		}
		slog.Info("roster seeded", "contractors", loaded)
	}

	// Notifications: webhook when configured, log-only otherwise
	var notifier service.Notifier = service.LogNotifier{}
	var webhookNotifier *service.WebhookNotifier
	if cfg.Notify.WebhookURL != "" {
		webhookNotifier = service.NewWebhookNotifier(&cfg.Notify)
		notifier = webhookNotifier
		slog.Info("webhook notifications enabled", "url", cfg.Notify.WebhookURL)
	}

	workflow := service.NewWorkflowStore(roster, notifier)

	// Initialize handlers
	contractorHandler := handler.NewContractorHandler(roster)
	availabilityHandler := handler.NewAvailabilityHandler(roster, sessions)
	sessionHandler := handler.NewSessionHandler(sessions, roster)
	workflowHandler := handler.NewWorkflowHandler(workflow)
	callbackHandler := handler.NewCallbackHandler(webhookNotifier)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(100, time.Minute)) // 100 requests per minute per IP

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/contractors", contractorHandler.Register)
		api.GET("/contractors", contractorHandler.List)
		api.GET("/contractors/:id", contractorHandler.Get)
		api.PUT("/contractors/:id", contractorHandler.Update)

		api.GET("/contractors/:id/availability", availabilityHandler.List)
		api.POST("/contractors/:id/availability", availabilityHandler.Add)
		api.DELETE("/contractors/:id/availability/:index", availabilityHandler.Delete)
		api.PUT("/contractors/:id/availability/:index", availabilityHandler.Split)

		api.POST("/sessions", sessionHandler.Create)
		api.GET("/sessions/:sid", sessionHandler.Get)
		api.POST("/sessions/:sid/query", sessionHandler.Query)
		api.POST("/sessions/:sid/village", sessionHandler.ChooseVillage)
		api.POST("/sessions/:sid/crew-size", sessionHandler.ChooseCrewSize)
		api.POST("/sessions/:sid/select", sessionHandler.Select)
		api.POST("/sessions/:sid/editor/open", sessionHandler.EditorOpen)
		api.POST("/sessions/:sid/editor/save", sessionHandler.EditorSave)
		api.POST("/sessions/:sid/editor/close", sessionHandler.EditorClose)

		api.POST("/requests", workflowHandler.Create)
		api.GET("/requests", workflowHandler.List)
		api.GET("/requests/:id", workflowHandler.Get)
		api.POST("/requests/:id/allocate", workflowHandler.Allocate)
		api.POST("/requests/:id/approve", workflowHandler.Approve)
		api.POST("/requests/:id/reject", workflowHandler.Reject)
		api.POST("/requests/:id/executed", workflowHandler.MarkExecuted)
		api.POST("/requests/:id/payment", workflowHandler.RecordPayment)
		api.POST("/requests/:id/review", workflowHandler.SubmitReview)

		api.POST("/notify/callback", callbackHandler.HandleReceipt)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Periodic roster snapshots
	snapshotDone := make(chan struct{})
	if snapshots != nil {
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.Snapshot.IntervalMinutes) * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := service.SaveRoster(context.Background(), snapshots, roster); err != nil {
						slog.Error("periodic snapshot failed", "error", err)
					}
				case <-snapshotDone:
					return
				}
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")
	close(snapshotDone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Final snapshot so restarts pick up the latest roster
	if err := service.SaveRoster(context.Background(), snapshots, roster); err != nil {
		slog.Error("final snapshot failed", "error", err)
	}

	slog.Info("server exited gracefully")
}
