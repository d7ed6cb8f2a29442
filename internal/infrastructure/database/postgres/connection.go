// Package postgres manages the PostgreSQL audit store: the pgx connection
// pool, transactions and schema migrations.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/NoduleAdvisor/internal/config"
	"github.com/turtacn/NoduleAdvisor/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/NoduleAdvisor/pkg/errors"
)

const (
	defaultMaxConns        = 10
	defaultMaxConnLifetime = 30 * time.Minute
	defaultMaxConnIdleTime = 5 * time.Minute
	connectTimeout         = 5 * time.Second
)

// Connection owns a pgx pool and reports readiness.
type Connection struct {
	pool   *pgxpool.Pool
	logger logging.Logger
	once   sync.Once
}

// NewConnection opens a pool from cfg and verifies it with a ping.
func NewConnection(ctx context.Context, cfg config.DatabaseConfig, log logging.Logger) (*Connection, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBConnectionError, "invalid database configuration")
	}
	configurePool(poolCfg, cfg)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDBConnectionError, "failed to create connection pool")
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrCodeDBConnectionError, "database connection failed")
	}

	log.Info("connected to PostgreSQL",
		logging.String("host", cfg.Host),
		logging.Int("port", cfg.Port),
		logging.String("database", cfg.DBName),
	)
	return &Connection{pool: pool, logger: log}, nil
}

// configurePool applies pool limits.  Zero values keep the pgx defaults except
// for MaxConns, which falls back to defaultMaxConns.
func configurePool(poolCfg *pgxpool.Config, cfg config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	} else if poolCfg.MaxConns == 0 {
		poolCfg.MaxConns = defaultMaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	} else if poolCfg.MaxConnLifetime == 0 {
		poolCfg.MaxConnLifetime = defaultMaxConnLifetime
	}
	if poolCfg.MaxConnIdleTime == 0 {
		poolCfg.MaxConnIdleTime = defaultMaxConnIdleTime
	}
}

// Pool exposes the underlying pool for repositories.
func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

func (c *Connection) Name() string { return "postgres" }

// Check pings the database.
func (c *Connection) Check(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDBConnectionError, "database health check failed")
	}
	stat := c.pool.Stat()
	if max := stat.MaxConns(); max > 0 && float64(stat.AcquiredConns())/float64(max) > 0.8 {
		c.logger.Warn("high database pool usage",
			logging.Int("acquired", int(stat.AcquiredConns())),
			logging.Int("max", int(max)),
		)
	}
	return nil
}

// Close releases the pool once.
func (c *Connection) Close() {
	c.once.Do(func() {
		c.pool.Close()
		c.logger.Info("closed PostgreSQL pool")
	})
}

// TxBeginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTransaction runs fn in a transaction.  It commits when fn returns nil and
// rolls back on error or panic; a panic is re-raised after the rollback.
// Calling it with a pgx.Tx as db opens a savepoint.
func WithTransaction(ctx context.Context, db TxBeginner, fn func(tx pgx.Tx, ctx context.Context) error) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx, ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return errors.Wrap(err, errors.ErrCodeDBQueryError, fmt.Sprintf("rollback failed: %v", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDBQueryError, "failed to commit transaction")
	}
	return nil
}

//Personal.AI order the ending
