package utils

import (
	"fmt"
	"log"

	"capdigital/backend/config"
	"capdigital/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GormConfig is shared by the Postgres connection and the test SQLite one.
// TranslateError turns driver unique violations into gorm.ErrDuplicatedKey.
func GormConfig(logger *log.Logger, cfg *config.Config) *gorm.Config {
	gc := &gorm.Config{
		TranslateError: true,
		// Progress rows may outlive their lesson; the repair tool cleans them up.
		DisableForeignKeyConstraintWhenMigrating: true,
	}
	if logger != nil && cfg != nil {
		gc.Logger = NewGormLogger(logger, cfg.DBLogLevel, cfg.LogColors)
	}
	return gc
}

func InitDB(cfg *config.Config, logger *log.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), GormConfig(logger, cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
