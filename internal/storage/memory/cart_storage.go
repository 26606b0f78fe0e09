package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartStorageInMemory — in-memory реализация CartStorage: одна запись на владельца.
type cartStorageInMemory struct {
	mu    sync.RWMutex
	carts map[string][]domain.CartLineItem
}

// NewCartStorage возвращает in-memory хранилище корзин для разработки и тестов.
func NewCartStorage() domain.CartStorage {
	return &cartStorageInMemory{
		carts: make(map[string][]domain.CartLineItem),
	}
}

// Load возвращает копию сохранённых позиций владельца; nil, если записи нет.
func (s *cartStorageInMemory) Load(_ context.Context, ownerKey string) ([]domain.CartLineItem, error) {
	if ownerKey == "" {
		return nil, domain.ErrCartOwnerRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.carts[ownerKey]
	if !ok {
		return nil, nil
	}
	result := make([]domain.CartLineItem, len(items))
	copy(result, items)
	return result, nil
}

// Save перезаписывает запись владельца целиком.
func (s *cartStorageInMemory) Save(_ context.Context, ownerKey string, items []domain.CartLineItem) error {
	if ownerKey == "" {
		return domain.ErrCartOwnerRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	stored := make([]domain.CartLineItem, len(items))
	copy(stored, items)
	s.carts[ownerKey] = stored
	return nil
}

// Delete удаляет запись владельца.
func (s *cartStorageInMemory) Delete(_ context.Context, ownerKey string) error {
	if ownerKey == "" {
		return domain.ErrCartOwnerRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, ownerKey)
	return nil
}

var _ domain.CartStorage = (*cartStorageInMemory)(nil)
