package app

import (
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Orders      domain.OrderRepository
	Users       domain.UserRepository
	Timeline    domain.TimelineRepository
	Outbox      domain.OutboxRepository
	Idempotency domain.IdempotencyRepository
	Carts       domain.CartStorage

	// Store и RedisClient не nil только при подключённых внешних хранилищах.
	Store       *postgres.Store
	RedisClient *goredis.Client

	Logger *log.Entry
}

// NewDependencies создаёт зависимости с in-memory хранилищами.
// Внешние хранилища подключаются отдельно через initPostgres/initRedis.
func NewDependencies(logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	return &Dependencies{
		Orders:      memory.NewOrderRepository(),
		Users:       memory.NewUserRepository(),
		Timeline:    memory.NewTimelineRepository(),
		Outbox:      memory.NewOutboxRepository(),
		Idempotency: memory.NewIdempotencyRepository(),
		Carts:       memory.NewCartStorage(),
		Logger:      logger,
	}
}

// Close освобождает подключения к внешним хранилищам.
func (d *Dependencies) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
}
