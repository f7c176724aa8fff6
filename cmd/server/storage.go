package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/product-catalog/internal/adapter/storage"
	"github.com/rl1809/product-catalog/internal/config"
	"github.com/rl1809/product-catalog/internal/port"
	"github.com/rl1809/product-catalog/pkg/logger"
)

// openRepository connects the configured backend. The returned func releases
// its connections.
func openRepository(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (port.ProductRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		db, err := storage.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("connected to mysql")
		return withSchema(ctx, storage.NewMySQLAdapter(db), cfg.EnsureSchema, func() { db.Close() })

	case config.DriverPostgres:
		db, err := storage.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("connected to postgres")
		return withSchema(ctx, storage.NewPostgresAdapter(db), cfg.EnsureSchema, func() { db.Close() })

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Infow("connected to redis", "addr", cfg.RedisAddr)
		return storage.NewRedisAdapter(rdb).WithNamespace(cfg.RedisPrefix), func() { rdb.Close() }, nil

	default:
		log.Infow("using in-memory storage")
		return storage.NewMemoryAdapter(), func() {}, nil
	}
}

func withSchema(ctx context.Context, repo *storage.SQLAdapter, ensure bool, closeFn func()) (port.ProductRepository, func(), error) {
	if ensure {
		if err := repo.EnsureSchema(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return repo, closeFn, nil
}
