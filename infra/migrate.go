package infra

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/donation/infra/repository"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// RunMigrations applies the SQL migrations found at sourceURL
// (e.g. "file://internal/migrations") to db.
func RunMigrations(db *gorm.DB, sourceURL string, logger *slog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	driver, err := migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	version, dirty, _ := m.Version()
	logger.Info("Database migrations applied", "version", version, "dirty", dirty)
	return nil
}

// AutoMigrate creates the schema from the gorm models. Used for sqlite
// and local development where the SQL migrations are not available.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(repository.Models()...)
}
