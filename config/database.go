package config

import (
	"fmt"

	"salon-backoffice/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDB opens the Postgres connection and sizes the pool.
func ConnectDB(cfg *Config, log *logrus.Logger) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.IsDevelopment() {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.WithFields(logrus.Fields{
		"max_idle": cfg.Database.MaxIdleConns,
		"max_open": cfg.Database.MaxOpenConns,
	}).Info("Database connected")

	return db, nil
}

// Migrate creates or updates the schema. AutoMigrate cannot express
// partial indexes, so those are issued as raw SQL afterwards.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Service{},
		&models.Staff{},
		&models.DiscountRule{},
		&models.Visit{},
		&models.VisitItem{},
		&models.VisitStaff{},
		&models.VisitDiscount{},
		&models.CustomerDiscount{},
		&models.Product{},
		&models.ProductSale{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_active_phone
			ON customers (phone) WHERE is_active AND NOT is_dependent`,
		`CREATE INDEX IF NOT EXISTS idx_customer_discounts_usage
			ON customer_discounts (customer_id, used_at)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate index: %w", err)
		}
	}
	return nil
}
