// Package redis хранит корзины покупателей в Redis: одна запись на ключ
// владельца с продлеваемым TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const cartKeyFormat = "cart:%s"

// CartTTL — срок жизни неактивной корзины.
var CartTTL = 30 * 24 * time.Hour

type cartStorage struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewClient создаёт Redis-клиент и проверяет соединение.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewCartStorage создаёт Redis-реализацию CartStorage.
func NewCartStorage(client *goredis.Client) domain.CartStorage {
	return &cartStorage{client: client, ttl: CartTTL}
}

func cartKey(ownerKey string) string {
	return fmt.Sprintf(cartKeyFormat, ownerKey)
}

func (s *cartStorage) Load(ctx context.Context, ownerKey string) ([]domain.CartLineItem, error) {
	if ownerKey == "" {
		return nil, domain.ErrCartOwnerRequired
	}

	raw, err := s.client.Get(ctx, cartKey(ownerKey)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart %s: %w", ownerKey, err)
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", ownerKey, err)
	}
	return items, nil
}

func (s *cartStorage) Save(ctx context.Context, ownerKey string, items []domain.CartLineItem) error {
	if ownerKey == "" {
		return domain.ErrCartOwnerRequired
	}

	if items == nil {
		items = []domain.CartLineItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", ownerKey, err)
	}

	if err := s.client.Set(ctx, cartKey(ownerKey), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart %s: %w", ownerKey, err)
	}
	return nil
}

func (s *cartStorage) Delete(ctx context.Context, ownerKey string) error {
	if ownerKey == "" {
		return domain.ErrCartOwnerRequired
	}

	if err := s.client.Del(ctx, cartKey(ownerKey)).Err(); err != nil {
		return fmt.Errorf("delete cart %s: %w", ownerKey, err)
	}
	return nil
}

var _ domain.CartStorage = (*cartStorage)(nil)
