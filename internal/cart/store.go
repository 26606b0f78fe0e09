package cart

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Store — авторитетное представление «что сейчас будет куплено» для одной
// сессии. Состояние партиционировано по ключу владельца и сохраняется через
// порт domain.CartStorage после каждой мутации.
//
// Владелец передаётся явно (конструктором и SwitchOwner), а не читается из
// внешнего окружения: пустой ключ — это отказ, гостевые сессии используют
// domain.GuestOwnerKey.
type Store struct {
	storage domain.CartStorage
	logger  *log.Entry

	mu       sync.Mutex
	ownerKey string
	items    []domain.CartLineItem
}

// NewStore создаёт корзину владельца и загружает её сохранённое состояние.
// Ошибки чтения хранилища деградируют до пустой корзины: покупки не должны
// блокироваться из-за недоступности персистентности.
func NewStore(ctx context.Context, storage domain.CartStorage, ownerKey string, logger *log.Entry) (*Store, error) {
	if ownerKey == "" {
		return nil, domain.ErrCartOwnerRequired
	}
	if logger == nil {
		logger = log.WithField("component", "cart-store")
	}

	s := &Store{
		storage:  storage,
		logger:   logger,
		ownerKey: ownerKey,
	}
	s.items = s.load(ctx, ownerKey)
	return s, nil
}

// OwnerKey возвращает текущего владельца корзины.
func (s *Store) OwnerKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ownerKey
}

// AddItem добавляет товар в корзину. Позиция с совпадающим составным ключом
// (товар, размер, цвет) увеличивает количество; иначе создаётся новая запись
// со снапшотом цены и остатка. Превышение остатка здесь не ошибка — остаток
// на этом слое справочный.
func (s *Store) AddItem(ctx context.Context, product domain.Product, qty int32, size, color string) domain.CartLineItem {
	if qty <= 0 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.CartKey{ProductID: product.ID, Size: size, Color: color}
	if idx := s.findLocked(key); idx >= 0 {
		s.items[idx].Qty += qty
		s.persistLocked(ctx)
		return s.items[idx]
	}

	item := domain.CartLineItem{
		ProductID:  product.ID,
		Name:       product.Name,
		PriceMinor: product.PriceMinor,
		Qty:        qty,
		Size:       size,
		Color:      color,
		ImageRef:   product.ImageRef,
		StockAtAdd: product.Stock,
	}
	s.items = append(s.items, item)
	s.persistLocked(ctx)
	return item
}

// RemoveItem удаляет позицию по составному ключу; отсутствие позиции — не ошибка.
func (s *Store) RemoveItem(ctx context.Context, productID, size, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findLocked(domain.CartKey{ProductID: productID, Size: size, Color: color})
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persistLocked(ctx)
}

// UpdateQuantity устанавливает количество позиции. Количество <= 0 означает
// удаление: позиция никогда не остаётся с qty < 1.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int32, size, color string) {
	if qty <= 0 {
		s.RemoveItem(ctx, productID, size, color)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findLocked(domain.CartKey{ProductID: productID, Size: size, Color: color})
	if idx < 0 {
		return
	}
	s.items[idx].Qty = qty
	s.persistLocked(ctx)
}

// Clear опустошает активную корзину.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persistLocked(ctx)
}

// SubtotalMinor возвращает сумму позиций; чистое производное значение.
func (s *Store) SubtotalMinor() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SubtotalMinor(s.items)
}

// IsInCart проверяет наличие позиции по составному ключу.
func (s *Store) IsInCart(productID, size, color string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(domain.CartKey{ProductID: productID, Size: size, Color: color}) >= 0
}

// Items возвращает копию позиций в порядке добавления.
func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.CartLineItem, len(s.items))
	copy(result, s.items)
	return result
}

// SwitchOwner переключает активного владельца: состояние в памяти целиком
// заменяется сохранённой корзиной нового владельца (никогда не сливается).
// Текущая корзина уже сохранена — персист выполняется на каждой мутации.
func (s *Store) SwitchOwner(ctx context.Context, ownerKey string) error {
	if ownerKey == "" {
		return domain.ErrCartOwnerRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ownerKey == s.ownerKey {
		return nil
	}
	s.ownerKey = ownerKey
	s.items = s.load(ctx, ownerKey)
	return nil
}

func (s *Store) findLocked(key domain.CartKey) int {
	for i, item := range s.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func (s *Store) load(ctx context.Context, ownerKey string) []domain.CartLineItem {
	if s.storage == nil {
		return nil
	}
	items, err := s.storage.Load(ctx, ownerKey)
	if err != nil {
		s.logger.WithError(err).WithField("owner_key", ownerKey).Warn("cart load failed, starting empty")
		return nil
	}
	return items
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(ctx, s.ownerKey, s.items); err != nil {
		s.logger.WithError(err).WithField("owner_key", s.ownerKey).Warn("cart save failed, keeping in-memory state")
	}
}
