package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// timelineRepositoryInMemory — in-memory реализация TimelineRepository.
type timelineRepositoryInMemory struct {
	mu     sync.RWMutex
	events map[string][]domain.TimelineEvent
}

// NewTimelineRepository возвращает in-memory историю статусов заказов.
func NewTimelineRepository() domain.TimelineRepository {
	return &timelineRepositoryInMemory{
		events: make(map[string][]domain.TimelineEvent),
	}
}

// Append добавляет событие в историю заказа.
func (r *timelineRepositoryInMemory) Append(event domain.TimelineEvent) error {
	if event.OrderID == "" {
		return domain.ErrOrderNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.OrderID] = append(r.events[event.OrderID], event)
	return nil
}

// List возвращает историю заказа в хронологическом порядке.
func (r *timelineRepositoryInMemory) List(orderID string) ([]domain.TimelineEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := r.events[orderID]
	result := make([]domain.TimelineEvent, len(events))
	copy(result, events)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Occurred.Before(result[j].Occurred)
	})
	return result, nil
}

var _ domain.TimelineRepository = (*timelineRepositoryInMemory)(nil)
