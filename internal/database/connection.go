// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	if cfg.Driver == "sqlite" {
		// a single long-lived connection keeps in-memory databases alive
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connection established successfully")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.Warehouse{},
		&models.MeasurementUnit{},
		&models.User{},
		&models.Product{},
		&models.FeatureFlag{},
		&models.InventorySession{},
		&models.InventoryCount{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_inventory_counts_session_created ON inventory_counts(session_id, created_at)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_sessions_month ON inventory_sessions(month DESC)",
		"CREATE INDEX IF NOT EXISTS idx_inventory_sessions_closed ON inventory_sessions(closed_at)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	return nil
}

// SeedInitialData creates the first admin, the base measurement units and the
// feature flags the inventory rules read. Existing rows are left alone.
func SeedInitialData(db *gorm.DB, seed config.SeedConfig) error {
	logrus.Info("Seeding initial data...")

	var adminCount int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}

	if adminCount == 0 {
		admin := &models.User{
			Identification: "0000000000",
			Name:           seed.AdminName,
			Email:          seed.AdminEmail,
			Role:           models.RoleAdmin,
			IsActive:       true,
		}

		if err := admin.SetPassword(seed.AdminPassword); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logrus.WithField("email", admin.Email).Info("Default admin user created successfully")
	}

	defaultUnits := []models.MeasurementUnit{
		{Name: "Unit", Abbreviation: "UND", IsActive: true},
		{Name: "Box", Abbreviation: "BOX", IsActive: true},
		{Name: "Package", Abbreviation: "PKG", IsActive: true},
	}
	for _, unit := range defaultUnits {
		var count int64
		db.Model(&models.MeasurementUnit{}).Where("abbreviation = ?", unit.Abbreviation).Count(&count)
		if count == 0 {
			if err := db.Create(&unit).Error; err != nil {
				logrus.WithError(err).WithField("abbreviation", unit.Abbreviation).Warn("Failed to create measurement unit")
			}
		}
	}

	defaultFlags := []models.FeatureFlag{
		{
			Key:         models.FlagInventoryDateRestriction,
			Enabled:     true,
			Description: "Only allow inventory sessions to be created during the first days of the month",
		},
	}
	for _, flag := range defaultFlags {
		var count int64
		db.Model(&models.FeatureFlag{}).Where("key = ?", flag.Key).Count(&count)
		if count == 0 {
			if err := db.Create(&flag).Error; err != nil {
				logrus.WithError(err).WithField("key", flag.Key).Warn("Failed to create feature flag")
			}
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

// SeedDemoCatalog adds one warehouse and product for local runs against sqlite.
func SeedDemoCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	var unit, box models.MeasurementUnit
	if err := db.Where("abbreviation = ?", "UND").First(&unit).Error; err != nil {
		return fmt.Errorf("seed unit UND missing: %w", err)
	}
	if err := db.Where("abbreviation = ?", "BOX").First(&box).Error; err != nil {
		return fmt.Errorf("seed unit BOX missing: %w", err)
	}

	return WithTransaction(db, func(tx *gorm.DB) error {
		warehouse := &models.Warehouse{Code: "WH-001", Description: "Main warehouse", Status: models.WarehouseStatusActive}
		if err := tx.Create(warehouse).Error; err != nil {
			return err
		}
		product := &models.Product{
			Code:             "SKU-001",
			Description:      "Sample product, box of 12",
			ConversionFactor: decimal.NewFromInt(12),
			InventoryUnitID:  unit.ID,
			PackagingUnitID:  box.ID,
		}
		return tx.Create(product).Error
	})
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
