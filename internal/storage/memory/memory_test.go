package memory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func testOrder(id, userID string, createdAt time.Time) domain.Order {
	return domain.Order{
		ID:     id,
		UserID: userID,
		Items: []domain.OrderItem{
			{ProductID: "p-1", Name: "Sneakers", PriceMinor: 500, Qty: 2},
		},
		TotalMinor:    1000,
		PaymentMethod: domain.PaymentMethodCOD,
		Status:        domain.OrderStatusPending,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

func TestOrderRepositoryCreateGet(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := testOrder("o-1", "u-1", time.Now().UTC())

	require.NoError(t, repo.Create(order))
	require.ErrorIs(t, repo.Create(order), domain.ErrOrderVersionConflict)

	got, err := repo.Get("o-1")
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)

	_, err = repo.Get("missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepositorySaveOptimisticLock(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := testOrder("o-1", "u-1", time.Now().UTC())
	require.NoError(t, repo.Create(order))

	order.Status = domain.OrderStatusProcessing
	require.NoError(t, repo.Save(order))

	// Повторный Save с устаревшей версией должен упасть.
	require.ErrorIs(t, repo.Save(order), domain.ErrOrderVersionConflict)

	got, err := repo.Get("o-1")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusProcessing, got.Status)
	require.Equal(t, int64(1), got.Version)
}

func TestOrderRepositorySaveNeverTouchesItems(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := testOrder("o-1", "u-1", time.Now().UTC())
	require.NoError(t, repo.Create(order))

	mutated := order
	mutated.Items = []domain.OrderItem{{ProductID: "hacked", PriceMinor: 1, Qty: 99}}
	mutated.Status = domain.OrderStatusProcessing
	require.NoError(t, repo.Save(mutated))

	got, err := repo.Get("o-1")
	require.NoError(t, err)
	require.Equal(t, "p-1", got.Items[0].ProductID)
	require.Equal(t, int32(2), got.Items[0].Qty)
}

func TestOrderRepositoryListNewestFirst(t *testing.T) {
	repo := memory.NewOrderRepository()
	base := time.Now().UTC()

	require.NoError(t, repo.Create(testOrder("o-1", "u-1", base.Add(-2*time.Hour))))
	require.NoError(t, repo.Create(testOrder("o-2", "u-1", base.Add(-1*time.Hour))))
	require.NoError(t, repo.Create(testOrder("o-3", "u-2", base)))

	mine, err := repo.ListByUser("u-1", 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "o-2", mine[0].ID)

	all, err := repo.ListAll(2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "o-3", all[0].ID)
}

func TestUserRepository(t *testing.T) {
	repo := memory.NewUserRepository()
	user := domain.User{ID: "u-1", Email: "guest@storefront.local"}

	require.NoError(t, repo.Create(user))
	require.ErrorIs(t, repo.Create(user), domain.ErrUserAlreadyExists)
	require.ErrorIs(t, repo.Create(domain.User{ID: "u-2", Email: user.Email}), domain.ErrUserAlreadyExists)

	byID, err := repo.GetByID("u-1")
	require.NoError(t, err)
	require.Equal(t, user.Email, byID.Email)

	byEmail, err := repo.GetByEmail(user.Email)
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByEmail("nobody@storefront.local")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestOutboxRepositoryLifecycle(t *testing.T) {
	repo := memory.NewOutboxRepository()

	first, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "o-1",
		EventType:     "order.created",
		Payload:       []byte(`{"order_id":"o-1"}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "o-2",
		EventType:     "order.created",
	})
	require.NoError(t, err)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	stats, err := repo.Stats()
	require.NoError(t, err)
	require.Equal(t, 2, stats.PendingCount)
	require.False(t, stats.OldestPendingAt.IsZero())

	require.NoError(t, repo.MarkSent(first.ID))
	require.NoError(t, repo.MarkFailed(second.ID))

	pending, err = repo.PullPending(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestIdempotencyRepository(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(24 * time.Hour)

	record, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusProcessing, record.Status)

	// Повтор с тем же хэшем: запись возвращается, ключ уже занят.
	existing, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)
	require.Equal(t, record.Key, existing.Key)

	// Повтор с другим телом запроса под тем же ключом запрещён.
	_, err = repo.CreateProcessing("key-1", "hash-2", ttl)
	require.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)

	require.NoError(t, repo.MarkDone("key-1", []byte(`{"ok":true}`), 201))

	got, err := repo.Get("key-1")
	require.NoError(t, err)
	require.Equal(t, domain.IdempotencyStatusDone, got.Status)
	require.Equal(t, 201, got.HTTPStatus)
	require.JSONEq(t, `{"ok":true}`, string(got.ResponseBody))
}

func TestIdempotencyRepositoryDeleteExpired(t *testing.T) {
	repo := memory.NewIdempotencyRepository()
	now := time.Now().UTC()

	_, err := repo.CreateProcessing("old", "h", now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = repo.CreateProcessing("fresh", "h", now.Add(time.Hour))
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired(now, 10)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	_, err = repo.Get("old")
	require.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
	_, err = repo.Get("fresh")
	require.NoError(t, err)
}

func TestTimelineRepository(t *testing.T) {
	repo := memory.NewTimelineRepository()
	base := time.Now().UTC()

	require.NoError(t, repo.Append(domain.TimelineEvent{OrderID: "o-1", Type: "status.processing", Occurred: base.Add(time.Minute)}))
	require.NoError(t, repo.Append(domain.TimelineEvent{OrderID: "o-1", Type: "order.created", Occurred: base}))
	require.Error(t, repo.Append(domain.TimelineEvent{Type: "order.created", Occurred: base}))

	events, err := repo.List("o-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "order.created", events[0].Type)
	require.Equal(t, "status.processing", events[1].Type)
}
