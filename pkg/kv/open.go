package kv

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/huddle-app/backend/pkg/database"
)

// Config selects and configures a backend.
type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	PostgresMax int32
	RedisPrefix string
}

// Deps carries shared connections owned by the caller.
type Deps struct {
	Redis  *redis.Client
	Logger *zap.Logger
}

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg Config, deps Deps) (Store, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("kv: sqlite driver requires a path")
		}
		s, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("kv store opened", zap.String("driver", DriverSQLite), zap.String("path", cfg.SQLitePath))
		return s, nil
	case DriverMemory:
		logger.Info("kv store opened", zap.String("driver", DriverMemory))
		return NewMemory(), nil
	case DriverRedis:
		if deps.Redis == nil {
			return nil, fmt.Errorf("kv: redis driver requires a redis client")
		}
		logger.Info("kv store opened", zap.String("driver", DriverRedis), zap.String("prefix", cfg.RedisPrefix))
		return NewRedis(deps.Redis, cfg.RedisPrefix), nil
	case DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.PostgresDSN, cfg.PostgresMax, logger)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("kv store opened", zap.String("driver", DriverPostgres))
		return NewPostgres(pool, true), nil
	default:
		return nil, fmt.Errorf("kv: unsupported driver %q", cfg.Driver)
	}
}
