// Package postgres implements the repository registry on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	"github.com/bookshelf-ua/api/internal/platform/config"
)

// Open creates a pgx pool from cfg, routes driver logs to zap and verifies connectivity.
func Open(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if logger != nil {
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   zapTraceLogger{logger: logger.Named("pgx")},
			LogLevel: tracelog.LogLevelWarn,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, wrapError("ping", err)
	}
	if cfg.MigrateOnStart {
		if err := EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}

type zapTraceLogger struct {
	logger *zap.Logger
}

func (l zapTraceLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}
	switch level {
	case tracelog.LogLevelError:
		l.logger.Error(msg, fields...)
	case tracelog.LogLevelWarn:
		l.logger.Warn(msg, fields...)
	case tracelog.LogLevelInfo:
		l.logger.Info(msg, fields...)
	default:
		l.logger.Debug(msg, fields...)
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS books (
  id text PRIMARY KEY,
  title text NOT NULL,
  author text NOT NULL DEFAULT '',
  image_url text NOT NULL DEFAULT '',
  price bigint NOT NULL DEFAULT 0,
  number_in_stock bigint NOT NULL DEFAULT 0,
  number_sold bigint NOT NULL DEFAULT 0,
  updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS orders (
  id text PRIMARY KEY,
  order_number bigint NOT NULL UNIQUE,
  user_id text NOT NULL,
  delivery jsonb NOT NULL,
  is_canceled boolean NOT NULL DEFAULT false,
  is_confirmed boolean NOT NULL DEFAULT false,
  is_paid boolean NOT NULL DEFAULT false,
  is_partly_paid boolean NOT NULL DEFAULT false,
  is_sent boolean NOT NULL DEFAULT false,
  is_done boolean NOT NULL DEFAULT false,
  tracking_number text,
  lines jsonb NOT NULL,
  comment text NOT NULL DEFAULT '',
  admin_comment text NOT NULL DEFAULT '',
  stock_committed boolean NOT NULL DEFAULT false,
  stock_revision integer NOT NULL DEFAULT 0,
  created_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS orders_user_created_idx ON orders (user_id, created_at DESC, id DESC);

CREATE TABLE IF NOT EXISTS stock_adjustments (
  id text PRIMARY KEY,
  order_id text NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
  revision integer NOT NULL,
  kind text NOT NULL,
  lines jsonb NOT NULL,
  created_at timestamptz NOT NULL,
  UNIQUE (order_id, revision)
);

CREATE TABLE IF NOT EXISTS group_discounts (
  id text PRIMARY KEY,
  bundle_key text NOT NULL,
  discount integer NOT NULL,
  book_ids text[] NOT NULL,
  created_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS group_discounts_bundle_key_idx ON group_discounts (bundle_key);

CREATE TABLE IF NOT EXISTS baskets (
  user_id text PRIMARY KEY,
  books jsonb NOT NULL DEFAULT '[]',
  group_discounts jsonb NOT NULL DEFAULT '[]',
  updated_at timestamptz NOT NULL
);

CREATE TABLE IF NOT EXISTS counters (
  id text PRIMARY KEY,
  current_value bigint NOT NULL,
  updated_at timestamptz NOT NULL
);
`

// EnsureSchema creates the tables used by the registry when they are missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}
