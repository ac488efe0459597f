package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/bootstrap"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/config"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/interfaces/rest"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/auth"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	app, err := bootstrap.Open(context.Background(), cfg)
	if err != nil {
		logger.L().Fatalw("❌ Startup failed", "error", err)
	}
	defer app.Close()

	if err := app.Services.StartSweeper(); err != nil {
		logger.L().Fatalw("❌ Sweep scheduler failed to start", "error", err)
	}

	if cfg.JWTSecret == "" {
		logger.L().Warnw("⚠️  JWT_SECRET is not set; using the development secret")
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, 0)

	sm := app.Services
	router := rest.NewRouter(rest.Services{
		Pipelines: sm.Pipelines,
		Boards:    sm.Boards,
		Dashboard: sm.Dashboard,
		Sweeper:   sm.Sweeper,
		Entities:  sm.Entities,
		Catalog:   sm.Catalog,
	}, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.L().Infow("🚀 Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatalw("❌ Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L().Infow("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Errorw("❌ Server forced to shutdown", "error", err)
	}
	logger.L().Infow("👋 Server exited")
}
