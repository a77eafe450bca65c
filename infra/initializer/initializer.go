// Package initializer wires configuration into concrete infrastructure.
package initializer

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/donation/infra"
	infra_cache "github.com/amirasaad/donation/infra/cache"
	infra_eventbus "github.com/amirasaad/donation/infra/eventbus"
	"github.com/amirasaad/donation/infra/provider/azampay"
	"github.com/amirasaad/donation/infra/provider/mockpayment"
	infra_repository "github.com/amirasaad/donation/infra/repository"
	"github.com/amirasaad/donation/pkg/app"
	"github.com/amirasaad/donation/pkg/config"
	"github.com/amirasaad/donation/pkg/eventbus"
	"github.com/amirasaad/donation/pkg/provider/payment"
	"gorm.io/gorm"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if err := migrate(db, cfg.DB, logger); err != nil {
		return nil, err
	}
	deps.Uow = infra_repository.NewUoW(db)

	deps.EventBus, err = initEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}

	deps.PaymentProvider = initGateway(cfg, logger)
	return deps, nil
}

func migrate(db *gorm.DB, cfg *config.DB, logger *slog.Logger) error {
	if cfg.AutoMigrate {
		logger.Info("Running GORM auto-migration")
		if err := infra.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		return nil
	}
	if cfg.MigrationsDir == "" {
		return nil
	}
	if err := infra.RunMigrations(db, cfg.MigrationsDir, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// initEventBus prefers Redis, then Kafka. An unreachable broker falls back to
// the in-memory bus so the API stays available.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		bus, err := infra_eventbus.NewWithRedis(cfg.Redis, logger)
		if err == nil {
			return bus, nil
		}
		logger.Warn("⚠️ Redis event bus unavailable, falling back to memory", "error", err)
		return infra_eventbus.NewWithMemory(logger), nil
	}
	if cfg.Kafka != nil && cfg.Kafka.Brokers != "" {
		bus, err := infra_eventbus.NewWithKafka(cfg.Kafka, logger)
		if err == nil {
			return bus, nil
		}
		logger.Warn("⚠️ Kafka event bus unavailable, falling back to memory", "error", err)
		return infra_eventbus.NewWithMemory(logger), nil
	}
	return infra_eventbus.NewWithMemory(logger), nil
}

func initGateway(cfg *config.App, logger *slog.Logger) payment.Payment {
	if cfg.Gateway == nil || cfg.Gateway.Mock {
		logger.Warn("Using mock payment gateway")
		return mockpayment.NewMockPaymentProvider()
	}
	client := azampay.New(cfg.Gateway, logger)
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		tokenCache, err := infra_cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.KeyPrefix, logger)
		if err != nil {
			logger.Warn("⚠️ Redis token cache unavailable, caching gateway tokens in process", "error", err)
		} else {
			client.Tokens().UseCache(tokenCache)
		}
	}
	return client
}
