package outbox_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type capturePublisher struct {
	mu       sync.Mutex
	failFor  int
	failAll  bool
	received []domain.OutboxMessage
}

func (p *capturePublisher) Publish(event domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failAll {
		return errors.New("broker unavailable")
	}
	if p.failFor > 0 {
		p.failFor--
		return errors.New("transient broker error")
	}
	p.received = append(p.received, event)
	return nil
}

func (p *capturePublisher) events() []domain.OutboxMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]domain.OutboxMessage, len(p.received))
	copy(result, p.received)
	return result
}

func enqueue(t *testing.T, repo domain.OutboxRepository, eventType string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "o-1",
		EventType:     eventType,
		Payload:       []byte(`{"order_id":"o-1"}`),
	})
	require.NoError(t, err)
	return msg
}

func TestProcessOncePublishesAndMarksSent(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &capturePublisher{}
	enqueue(t, repo, "order.created")
	enqueue(t, repo, "order.status_changed")

	worker := outbox.NewWorker(repo, publisher, outbox.WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	require.Len(t, publisher.events(), 2)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending, "published messages must leave the pending set")
}

func TestProcessOnceRetriesTransientFailures(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &capturePublisher{failFor: 2}
	enqueue(t, repo, "order.created")

	worker := outbox.NewWorker(repo, publisher,
		outbox.WithMaxAttempts(3),
		outbox.WithRetryBaseDelay(0),
	)
	worker.ProcessOnce(context.Background())

	require.Len(t, publisher.events(), 1, "third attempt must succeed")
}

func TestProcessOnceSendsToDLQAfterExhaustedRetries(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &capturePublisher{failAll: true}
	dlq := &capturePublisher{}
	msg := enqueue(t, repo, "order.created")

	worker := outbox.NewWorker(repo, publisher,
		outbox.WithMaxAttempts(2),
		outbox.WithRetryBaseDelay(0),
		outbox.WithDLQPublisher(dlq),
	)
	worker.ProcessOnce(context.Background())

	dlqEvents := dlq.events()
	require.Len(t, dlqEvents, 1)
	require.Equal(t, msg.ID, dlqEvents[0].ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending, "failed message must be marked failed, not retried forever")
}
