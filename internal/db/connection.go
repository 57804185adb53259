package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/osassistant/backend/internal/config"
	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/models"
)

var DB *gorm.DB

// Dialector picks the gorm dialect for the configured driver. Postgres goes
// through database/sql with lib/pq; sqlite uses mattn/go-sqlite3.
func Dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        cfg.PostgresDSN(),
		}), nil
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		return sqlite.Open(SQLiteDSN(cfg.SQLitePath)), nil
	default:
		return nil, fmt.Errorf("driver %q has no database connection", cfg.DBDriver)
	}
}

// SQLiteDSN enables foreign keys (for cascading feedback deletes) and a busy
// timeout on top of the given path.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// Connect opens the configured database and stores it in DB.
func Connect(cfg config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// one writer at a time keeps sqlite out of SQLITE_BUSY storms
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	DB = conn
	logger.Info("Database connected successfully", map[string]interface{}{
		"driver": cfg.DBDriver,
	})
	return conn, nil
}

// AutoMigrate creates or updates the knowledge-base tables.
func AutoMigrate(conn *gorm.DB) error {
	for _, m := range []interface{}{
		&models.Case{},
		&models.CaseFeedback{},
		&models.AnalysisFeedback{},
	} {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("migration of %T failed: %w", m, err)
		}
		logger.Debug("Table migrated", map[string]interface{}{"model": fmt.Sprintf("%T", m)})
	}
	logger.Info("All database migrations completed successfully", nil)
	return nil
}

// Ping checks that the connection pool can reach the database.
func Ping(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
