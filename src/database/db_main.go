package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"errorcollector/src/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MainDB is the primary database connection used by the application.
var MainDB *gorm.DB

// InitMainDB opens the database connection and runs migrations. It must be
// called once at startup, before the HTTP listener begins accepting
// connections.
func InitMainDB() error {
	config := GetConfig()

	dialector, err := openDialector(config.DatabaseURL)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector,
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB from GORM: %w", err)
	}

	if DriverName(config.DatabaseURL) == "sqlite" {
		// A single-file SQLite database does not support concurrent
		// writers; serialize everything through one connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
	}

	// Assign to the global variable only after a successful connection.
	MainDB = db

	logrus.WithField("driver", DriverName(config.DatabaseURL)).Info("[database] MainDB connection established")

	if err := MainDB.AutoMigrate(&model.ErrorEvent{}); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// DriverName reports which driver a connection string selects, for logging
// and for the /config endpoint. It never exposes credentials.
func DriverName(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}

func openDialector(dsn string) (gorm.Dialector, error) {
	if DriverName(dsn) == "postgres" {
		return postgres.Open(dsn), nil
	}

	path := sqlitePath(dsn)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return sqlite.Open(path), nil
}

func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "sqlite://")
	path = strings.TrimPrefix(path, "./")
	return path
}
