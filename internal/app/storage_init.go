package app

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	"github.com/vladislavdragonenkov/storefront/internal/storage/redis"
)

// initPostgres подключает PostgreSQL, применяет миграции и заменяет
// in-memory репозитории на постоянные.
func (d *Dependencies) initPostgres(ctx context.Context, dsn string) error {
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}

	if err := store.EnsureSchema(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}

	d.Store = store
	d.Orders = postgres.NewOrderRepository(store)
	d.Users = postgres.NewUserRepository(store)
	d.Timeline = postgres.NewTimelineRepository(store)
	d.Outbox = postgres.NewOutboxRepository(store)
	d.Idempotency = postgres.NewIdempotencyRepository(store)

	d.Logger.Info("postgres storage initialized")
	return nil
}

// initRedis подключает Redis и заменяет in-memory хранилище корзин.
func (d *Dependencies) initRedis(ctx context.Context, addr string) error {
	client, err := redis.NewClient(ctx, addr)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	d.RedisClient = client
	d.Carts = redis.NewCartStorage(client)

	d.Logger.WithField("addr", addr).Info("redis cart storage initialized")
	return nil
}
