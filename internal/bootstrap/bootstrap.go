// Package bootstrap opens the database, applies migrations and wires the
// service layer for the server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/application/services"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/config"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/database"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/lock"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
)

// App is a fully wired engine
type App struct {
	Config   *config.Config
	DB       *database.Connection
	Services *services.ServiceManager

	redis *redis.Client
}

// Open connects to the configured database, migrates it and builds the
// services. Distributed locking is enabled when cfg.RedisURL is set.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	logger.L().Infow("✅ Database connection established", "driver", cfg.Database.Driver)

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if applied > 0 {
		logger.L().Infow("📦 Migrations applied", "count", applied)
	}

	app := &App{Config: cfg, DB: db}

	var locker ports.Locker
	if cfg.RedisURL != "" {
		client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		app.redis = client
		locker = lock.NewRedisLocker(client, cfg.LockTTL, cfg.LockWait)
		logger.L().Infow("🔒 Distributed pipeline locks enabled")
	}

	app.Services, err = services.NewServiceManager(db, services.Options{
		Locker:             locker,
		MaxConflictRetries: cfg.MaxConflictRetries,
		SweepSchedule:      cfg.SweepSchedule,
		ConversionRule:     cfg.QualifiedRule,
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	logger.L().Infow("🔧 Service manager initialized")
	return app, nil
}

// Close stops the sweeper and releases connections
func (a *App) Close() error {
	if a.Services != nil {
		a.Services.StopSweeper()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return a.DB.Close()
}
