// Package db opens the PostgreSQL connection pool and applies the schema
// migrations embedded in the binary.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// Registers the postgres:// database driver for migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	// The migrate postgres driver talks through database/sql with lib/pq.
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/suporte/usuarios-api/apperror"
	"github.com/suporte/usuarios-api/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	connectTimeout  = 10 * time.Second
	pingTimeout     = 5 * time.Second
	maxConnIdleTime = 10 * time.Minute
	maxConnLifetime = 30 * time.Minute
)

// NewPool establishes a pgxpool connection pool and verifies it with a ping.
func NewPool(ctx context.Context, cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}
	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.MaxConnLifetime = maxConnLifetime

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, pingTimeout)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s", cfg.DBName), err)
	}

	return pool, nil
}

// RunMigrations applies every pending up migration. No pending migration is
// not an error.
func RunMigrations(dsn string, logger logrus.FieldLogger) error {
	return withMigrator(dsn, logger, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return apperror.NewDatabaseError("failed to run migrations", err)
		}
		return nil
	})
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(dsn string, logger logrus.FieldLogger) error {
	return withMigrator(dsn, logger, func(m *migrate.Migrate) error {
		if err := m.Steps(-1); err != nil {
			return apperror.NewDatabaseError("failed to roll back migration", err)
		}
		return nil
	})
}

// MigrationVersion reports the applied schema version; version 0 means none.
func MigrationVersion(dsn string, logger logrus.FieldLogger) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	err := withMigrator(dsn, logger, func(m *migrate.Migrate) error {
		v, d, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		if err != nil {
			return apperror.NewDatabaseError("failed to read migration version", err)
		}
		version, dirty = v, d
		return nil
	})
	return version, dirty, err
}

func withMigrator(dsn string, logger logrus.FieldLogger, fn func(*migrate.Migrate) error) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return apperror.NewDatabaseError("failed to open embedded migrations", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return apperror.NewDatabaseError("failed to create migrator", err)
	}
	m.Log = migrateLogger{logger: logger}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.WithError(srcErr).Warn("error closing migration source")
		}
		if dbErr != nil {
			logger.WithError(dbErr).Warn("error closing migration database")
		}
	}()

	return fn(m)
}

// migrateLogger adapts logrus to migrate.Logger.
type migrateLogger struct {
	logger logrus.FieldLogger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.WithField("component", "migrate").Infof(format, v...)
}

func (l migrateLogger) Verbose() bool { return false }
