package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type outboxStatus string

const (
	outboxStatusPending outboxStatus = "pending"
	outboxStatusSent    outboxStatus = "sent"
	outboxStatusFailed  outboxStatus = "failed"
)

type outboxRecord struct {
	msg       domain.OutboxMessage
	status    outboxStatus
	createdAt time.Time
}

// outboxRepositoryInMemory — in-memory реализация transactional outbox.
type outboxRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]*outboxRecord
}

// NewOutboxRepository возвращает in-memory outbox для разработки и тестов.
func NewOutboxRepository() domain.OutboxRepository {
	return &outboxRepositoryInMemory{
		items: make(map[string]*outboxRecord),
	}
}

// Enqueue сохраняет событие в статусе pending.
func (r *outboxRepositoryInMemory) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	payload := make([]byte, len(msg.Payload))
	copy(payload, msg.Payload)
	msg.Payload = payload

	r.items[msg.ID] = &outboxRecord{
		msg:       msg,
		status:    outboxStatusPending,
		createdAt: time.Now().UTC(),
	}
	return msg, nil
}

// PullPending возвращает pending-события в порядке создания.
func (r *outboxRepositoryInMemory) PullPending(limit int) ([]domain.OutboxMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	records := make([]*outboxRecord, 0, len(r.items))
	for _, record := range r.items {
		if record.status == outboxStatusPending {
			records = append(records, record)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].createdAt.Equal(records[j].createdAt) {
			return records[i].createdAt.Before(records[j].createdAt)
		}
		return records[i].msg.ID < records[j].msg.ID
	})

	if len(records) > limit {
		records = records[:limit]
	}

	result := make([]domain.OutboxMessage, 0, len(records))
	for _, record := range records {
		result = append(result, record.msg)
	}
	return result, nil
}

// Stats возвращает состояние backlog.
func (r *outboxRepositoryInMemory) Stats() (domain.OutboxStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.OutboxStats
	for _, record := range r.items {
		if record.status != outboxStatusPending {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || record.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = record.createdAt
		}
	}
	return stats, nil
}

// MarkSent помечает событие отправленным.
func (r *outboxRepositoryInMemory) MarkSent(id string) error {
	return r.markStatus(id, outboxStatusSent)
}

// MarkFailed помечает событие неудачным.
func (r *outboxRepositoryInMemory) MarkFailed(id string) error {
	return r.markStatus(id, outboxStatusFailed)
}

func (r *outboxRepositoryInMemory) markStatus(id string, status outboxStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.items[id]
	if !ok {
		return domain.ErrOutboxPublish
	}
	record.status = status
	return nil
}

var _ domain.OutboxRepository = (*outboxRepositoryInMemory)(nil)
