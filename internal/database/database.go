package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/bookkinder/internal/config"
	"github.com/mrlokans/bookkinder/internal/entities"
	"github.com/mrlokans/bookkinder/internal/logger"
)

type Database struct {
	DB *gorm.DB
}

// Models returns every entity the catalog migrates, in dependency order.
func Models() []any {
	return []any{
		&entities.User{},
		&entities.SessionToken{},
		&entities.Book{},
		&entities.AuditEvent{},
	}
}

// Migrate creates or updates the catalog tables on db.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func NewDatabase(cfg config.Database) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.L.Info().Str("driver", driverName(cfg)).Msg("Database initialized successfully")

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the underlying connection.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func driverName(cfg config.Database) string {
	if cfg.Driver == "" {
		return config.DriverSQLite
	}
	return strings.ToLower(cfg.Driver)
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	switch driverName(cfg) {
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = config.DefaultDatabasePath
		}
		return sqlite.Open(path), nil
	case config.DriverMySQL:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the mysql driver")
		}
		return mysql.Open(cfg.DSN), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// gormWriter forwards GORM's log lines to zerolog.
type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.L.Debug().Str("component", "gorm").Msgf(format, args...)
}

func newGormLogger(level string) gormlogger.Interface {
	var lvl gormlogger.LogLevel
	switch strings.ToLower(level) {
	case "silent":
		lvl = gormlogger.Silent
	case "error":
		lvl = gormlogger.Error
	case "info":
		lvl = gormlogger.Info
	default:
		lvl = gormlogger.Warn
	}
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
	})
}
