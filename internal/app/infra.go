package app

import (
	"context"
	"fmt"

	"dashboard-auth/internal/account"
	"dashboard-auth/internal/config"
	"dashboard-auth/internal/db"
	"dashboard-auth/internal/logger"
	"dashboard-auth/internal/redis"
)

type Infra struct {
	Accounts account.Store
	cleanup  []func() error
}

// Close releases every backend opened by setupInfra.
func (i *Infra) Close() error {
	var firstErr error
	for _, fn := range i.cleanup {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func setupInfra(ctx context.Context, cfg config.StoreConfig) (*Infra, error) {
	infra := &Infra{}

	switch cfg.StoreDriver {
	case "postgres", "sqlite":
		sqlDB, err := OpenSQL(ctx, cfg)
		if err != nil {
			return nil, err
		}
		infra.cleanup = append(infra.cleanup, sqlDB.Close)

		if err := db.Migrate(ctx, sqlDB); err != nil {
			_ = infra.Close()
			return nil, err
		}

		if sqlDB.Dialect == db.DialectPostgres {
			infra.Accounts = account.NewPostgresStore(sqlDB)
		} else {
			infra.Accounts = account.NewSQLiteStore(sqlDB)
		}

	case "redis":
		redisClient, err := redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		infra.cleanup = append(infra.cleanup, redisClient.Close)
		infra.Accounts = account.NewRedisStore(redisClient.Client)

	case "firestore":
		client, err := account.NewFirestoreClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreDatabase)
		if err != nil {
			return nil, err
		}
		infra.cleanup = append(infra.cleanup, client.Close)
		infra.Accounts = account.NewFirestoreStore(client)

	case "memory":
		logger.Warn("using in-memory account store, accounts are lost on restart", nil)
		infra.Accounts = account.NewMemoryStore()

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	logger.Info("account store ready", map[string]any{
		"driver": cfg.StoreDriver,
	})

	return infra, nil
}

// OpenSQL opens the SQL database selected by cfg.StoreDriver.
func OpenSQL(ctx context.Context, cfg config.StoreConfig) (*db.DB, error) {
	switch cfg.StoreDriver {
	case "postgres":
		return db.OpenPostgres(ctx, cfg.DatabaseDSN)
	case "sqlite":
		return db.OpenSQLite(ctx, cfg.SQLitePath)
	}
	return nil, fmt.Errorf("store driver %q is not SQL-backed", cfg.StoreDriver)
}
