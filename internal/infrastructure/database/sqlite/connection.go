package sqlite

import (
	"fmt"
	"io"
	"log"
	"reminder/internal/domain/entity"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options configures the database connection.
type Options struct {
	// Path is the SQLite file (BLUEPRINT_DB_URL).
	Path string
	// LogSQL enables gorm statement logging to LogOutput.
	LogSQL    bool
	LogOutput io.Writer
}

// NewDB opens the GORM database connection using SQLite and migrates the schema.
func NewDB(opts Options) (*gorm.DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("🔴 ERROR: database path is empty")
	}

	level := gormlogger.Silent
	if opts.LogSQL && opts.LogOutput != nil {
		level = gormlogger.Info
	}
	var out io.Writer = io.Discard
	if opts.LogOutput != nil {
		out = opts.LogOutput
	}

	newLogger := gormlogger.New(
		log.New(out, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(opts.Path), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to connect to database %s: %w", opts.Path, err)
	}

	// A single connection serialises writers; SQLite allows only one at a time anyway.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to get underlying *sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// AutoMigrate automatically migrates the database schema for the defined entities.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Reminder{}); err != nil {
		return fmt.Errorf("🔴 ERROR: schema migration failed: %w", err)
	}
	return nil
}

// CloseDB closes the database connection if it's open.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("🔴 ERROR: failed to get underlying *sql.DB: %w", err)
	}
	return sqlDB.Close()
}
