package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ledgersync/internal/logger"
	"ledgersync/internal/models"
)

type Database struct {
	DB *gorm.DB
}

// New opens the database named by databaseURL and migrates the schema.
// "sqlite://<path>" selects SQLite, anything else is handed to PostgreSQL through lib/pq.
func New(databaseURL string, log *logger.Logger) (*Database, error) {
	var db *gorm.DB
	var err error

	gormConfig := &gorm.Config{
		Logger:         log.Gorm(),
		TranslateError: true,
	}

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), gormConfig)
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.New(postgres.Config{
			DriverName: "postgres",
			DSN:        databaseURL,
		}), gormConfig)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.Setting{}, &models.Product{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsUniqueViolation reports whether err is a unique constraint violation.
// lib/pq errors are not covered by gorm's translator, so they are checked by SQLSTATE.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
