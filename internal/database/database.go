// Package database opens the PostgreSQL connection shared by the
// repositories, optionally backed by an embedded server for local runs.
package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"mountain-sentinel/config"
	"mountain-sentinel/internal/logger"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	embeddedPort     = 5433
	embeddedPassword = "postgres"
)

// DB bundles the raw handle used by the repositories with a gorm handle over
// the same pool, used for schema migration.
type DB struct {
	SQL  *sql.DB
	Gorm *gorm.DB
	// DSN is the resolved connection string, needed by pq.Listener.
	DSN string

	embedded *embeddedpostgres.EmbeddedPostgres
}

// Connect dials cfg, or first starts an embedded server when cfg.Embedded is
// set.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	log := logger.Component("database")

	var embedded *embeddedpostgres.EmbeddedPostgres
	if cfg.Embedded {
		log.WithField("data_path", cfg.DataPath).Info("starting embedded PostgreSQL")
		embedded = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			DataPath(cfg.DataPath).
			Port(uint32(embeddedPort)).
			Database(cfg.DBName).
			Username(cfg.User).
			Password(embeddedPassword).
			Logger(logger.Get("postgres").Writer()))
		if err := embedded.Start(); err != nil {
			return nil, fmt.Errorf("start embedded database: %w", err)
		}
		cfg.Host = "localhost"
		cfg.Port = strconv.Itoa(embeddedPort)
		cfg.Password = embeddedPassword
	} else {
		log.WithField("host", cfg.Host).WithField("port", cfg.Port).Info("connecting to PostgreSQL")
	}

	dsn := cfg.DSN()
	db, err := Open(dsn)
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, err
	}
	db.embedded = embedded

	log.Info("database connection established")
	return db, nil
}

// Open connects to an already running server at dsn.
func Open(dsn string) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init gorm: %w", err)
	}

	return &DB{SQL: sqlDB, Gorm: gdb, DSN: dsn}, nil
}

func (db *DB) Close() error {
	err := db.SQL.Close()
	if db.embedded != nil {
		logger.Component("database").Info("stopping embedded PostgreSQL")
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}
