package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. TranslateError is always on so
// unique and foreign key violations surface as gorm sentinel errors.
func Open(driver, dsn string, lg zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.New(gormWriter{lg}, logger.Config{LogLevel: logger.Warn, IgnoreRecordNotFoundError: true}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite has a single writer, and an in-memory database lives only as
		// long as its one connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// gormWriter routes gorm's own log lines into zerolog.
type gormWriter struct {
	lg zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.lg.Warn().Str("component", "gorm").Msgf(format, args...)
}
