package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pharmacoach/config"
	"pharmacoach/models"
)

// DbInstance struct holds the record store instance
type DbInstance struct {
	Store Store
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the store selected by cfg.DBDriver and saves it globally.
func ConnectDb(cfg *config.Config) {
	store, err := Open(cfg)
	if err != nil {
		slog.Error("failed to open record store", "driver", cfg.DBDriver, "err", err)
		os.Exit(2)
	}
	Database = DbInstance{Store: store}
	slog.Info("record store ready", "driver", cfg.DBDriver)
}

// Open builds the Store for cfg.DBDriver without touching the global instance.
func Open(cfg *config.Config) (Store, error) {
	if cfg.DBDriver == "json" || cfg.DBDriver == "" {
		return OpenJSONStore(cfg.DBPath)
	}

	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(cfg),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", cfg.DBDriver)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting database instance")
	}
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(0)
	}

	return NewSQLStore(db)
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DBName); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "creating sqlite directory")
			}
		}
		return sqlite.Open(cfg.DBName), nil
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
		)
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName,
		)
		return mysql.Open(dsn), nil
	}
	return nil, errors.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) error {
	slog.Debug("running migrations")

	err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.TestItem{},
		&models.CourseResource{},
		&models.TestResult{},
	)
	if err != nil {
		return errors.Wrap(err, "migration failed")
	}

	slog.Debug("migrations completed")
	return nil
}

// GormLogWriter forwards gorm's log lines to slog at debug level.
type GormLogWriter struct{}

func (GormLogWriter) Printf(format string, args ...interface{}) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "gorm")
}

var _ logger.Writer = GormLogWriter{}

func newGormLogger(cfg *config.Config) logger.Interface {
	level := logger.Warn
	if cfg.LogLevel == "debug" {
		level = logger.Info
	}
	return logger.New(GormLogWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
