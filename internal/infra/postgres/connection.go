// Package postgres implements the reservation and customer stores on PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds database connection configuration.
type Config struct {
	Host         string
	Port         int
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	// AppName shows up in pg_stat_activity.
	AppName string
	// ConnectTimeout bounds each dial.
	ConnectTimeout time.Duration
	// StatementTimeout is enforced by the server on every statement.
	StatementTimeout time.Duration
	// ConnectAttempts is how often startup retries an unreachable server.
	ConnectAttempts int
	Debug           bool // log every SQL statement
}

// DSN returns the PostgreSQL connection URL.
func (c *Config) DSN() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	q.Set("TimeZone", "UTC")
	if c.AppName != "" {
		q.Set("application_name", c.AppName)
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprint(int(c.ConnectTimeout.Seconds())))
	}
	if c.StatementTimeout > 0 {
		q.Set("statement_timeout", fmt.Sprint(c.StatementTimeout.Milliseconds()))
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: q.Encode(),
	}

	return u.String()
}

// NewConnection opens the pool and waits for the server to answer,
// retrying with a doubling delay up to ConnectAttempts times.
func NewConnection(cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	gormLogLevel := gormlogger.Warn
	if cfg.Debug {
		gormLogLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)

	attempts := max(cfg.ConnectAttempts, 1)
	delay := 500 * time.Millisecond
	for i := 1; ; i++ {
		err = sqlDB.Ping()
		if err == nil {
			break
		}
		if i == attempts {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("pinging database after %d attempts: %w", attempts, err)
		}
		if logger != nil {
			logger.Warn("database not reachable yet, retrying",
				zap.Int("attempt", i),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		}
		time.Sleep(delay)
		delay = min(delay*2, 8*time.Second)
	}

	if logger != nil {
		logger.Info("database connection established",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("database", cfg.Name),
			zap.Duration("statement_timeout", cfg.StatementTimeout),
		)
	}

	return db, nil
}

// Close closes the database connection.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// HealthCheck verifies the database answers within ctx.
func HealthCheck(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}
