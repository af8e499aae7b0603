// Package store persists companies, incentives and their correspondences in
// PostgreSQL behind a single Store handle.
package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Config holds the database connection parameters. It is decoded from the
// `database` section of the configuration file.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the config as a postgres connection string.
func (c *Config) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslmode)
}

// Store is the single database handle for a process. It is acquired at command
// startup and released via Close before the process exits.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL and verifies the connection. An unreachable
// database or invalid parameters surface here, before any work begins.
func Open(cfg *Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("database configuration is required")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database %q on %s:%d: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database %q on %s:%d: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}

	return &Store{db: db}, nil
}

// New wraps an existing gorm connection. Used by tests with an in-memory
// database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate idempotently ensures the schema exists. Running it against an
// already-initialized database is a no-op.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Company{}, &Incentive{}, &Correspondence{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
