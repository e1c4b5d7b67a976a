// Package db opens the relational store used by the postgres and sqlite storage drivers.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// pgUniqueViolation is the SQLSTATE of a unique constraint violation.
	pgUniqueViolation = "23505"

	defaultConnectTimeout = 60 * time.Second
	defaultRetryInterval  = 3 * time.Second
)

// Config describes how to reach the relational store.
type Config struct {
	Driver        string
	DSN           string
	RunMigrations bool
}

// Opener opens a gorm connection for a DSN.
type Opener func(dsn string) (*gorm.DB, error)

// OpenerFor returns the Opener of a driver. Error translation is always on so
// unique violations surface as gorm.ErrDuplicatedKey.
func OpenerFor(driver string) (Opener, error) {
	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}
	switch driver {
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), gormCfg)
		}, nil
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), gormCfg)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported relational driver %q", driver)
	}
}

// Open connects with retries and runs migrations for models when enabled.
func Open(ctx context.Context, cfg Config, models ...any) (*gorm.DB, error) {
	opener, err := OpenerFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	gdb, err := ConnectWithRetry(ctx, cfg.DSN, defaultConnectTimeout, defaultRetryInterval, opener)
	if err != nil {
		return nil, err
	}

	if cfg.RunMigrations {
		if err := gdb.WithContext(ctx).AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return gdb, nil
}

// ConnectWithRetry calls opener until it succeeds, the timeout elapses or ctx is done.
// The connection is pinged so that lazy drivers fail here rather than on first use.
func ConnectWithRetry(ctx context.Context, dsn string, timeout, interval time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		gdb, err := opener(dsn)
		if err == nil {
			err = ping(ctx, gdb)
		}
		if err == nil {
			return gdb, nil
		}
		if time.Now().Add(interval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		zap.L().Warn("db connect failed, retrying", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func ping(ctx context.Context, gdb *gorm.DB) error {
	if gdb == nil || gdb.Config == nil || gdb.ConnPool == nil {
		// Connection-less handles come from test openers.
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
