package orders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type fixture struct {
	service  *orders.Service
	orders   domain.OrderRepository
	users    domain.UserRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		orders:   memory.NewOrderRepository(),
		users:    memory.NewUserRepository(),
		timeline: memory.NewTimelineRepository(),
		outbox:   memory.NewOutboxRepository(),
	}
	f.service = orders.NewService(f.orders, f.users, f.timeline, f.outbox, nil)
	return f
}

func validRequest(userID string) domain.OrderRequest {
	return domain.OrderRequest{
		UserID: userID,
		Items: []domain.OrderRequestItem{
			{ProductID: "p-1", Name: "Sneakers", PriceMinor: 500, Qty: 2},
			{ProductID: "p-2", Name: "T-Shirt", PriceMinor: 300, Qty: 1},
		},
		TotalMinor:    1300,
		PaymentMethod: domain.PaymentMethodCOD,
		Shipping:      domain.Address{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
		Billing:       domain.Address{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
	}
}

func TestCreateGuestOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, validRequest(""))
	require.NoError(t, err)
	require.NotEmpty(t, order.ID)
	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.Equal(t, int64(1300), order.TotalMinor)

	guest, err := f.users.GetByEmail(domain.GuestEmail)
	require.NoError(t, err)
	require.Equal(t, guest.ID, order.UserID)
}

func TestCreateGuestOrderTwiceReusesGuestUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, validRequest(""))
	require.NoError(t, err)

	second, err := f.service.Create(ctx, validRequest(domain.GuestOwnerKey))
	require.NoError(t, err)

	// Оба заказа принадлежат одной и той же гостевой записи.
	require.Equal(t, first.UserID, second.UserID)
}

func TestCreateUnknownUserRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), validRequest("missing-user"))
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	all, err := f.orders.ListAll(0)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.OrderRequest)
		want   error
	}{
		{"no items", func(r *domain.OrderRequest) { r.Items = nil }, domain.ErrItemsRequired},
		{"zero qty", func(r *domain.OrderRequest) { r.Items[0].Qty = 0 }, domain.ErrItemQtyInvalid},
		{"negative price", func(r *domain.OrderRequest) { r.Items[0].PriceMinor = -1 }, domain.ErrItemPriceInvalid},
		{"total mismatch", func(r *domain.OrderRequest) { r.TotalMinor = 999 }, domain.ErrTotalMismatch},
		{"negative discount", func(r *domain.OrderRequest) { r.DiscountMinor = -5 }, domain.ErrDiscountNegative},
		{"bad payment method", func(r *domain.OrderRequest) { r.PaymentMethod = "cheque" }, domain.ErrPaymentMethodInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest("")
			tt.mutate(&req)
			_, err := f.service.Create(ctx, req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateAppliesDiscount(t *testing.T) {
	f := newFixture(t)

	req := validRequest("")
	req.DiscountMinor = 130
	req.TotalMinor = 1170
	req.CouponCode = "welcome10"

	order, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, int64(1170), order.TotalMinor)
	require.Equal(t, "welcome10", order.CouponCode)
}

func TestCreateEnqueuesOutboxAndTimeline(t *testing.T) {
	f := newFixture(t)

	order, err := f.service.Create(context.Background(), validRequest(""))
	require.NoError(t, err)

	pending, err := f.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "order.created", pending[0].EventType)
	require.Equal(t, order.ID, pending[0].AggregateID)

	events, err := f.timeline.List(order.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "order.created", events[0].Type)
}

func TestCreateSnapshotIsImmutable(t *testing.T) {
	f := newFixture(t)

	req := validRequest("")
	order, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)

	// Мутация исходного запроса не должна затронуть сохранённый снапшот.
	req.Items[0].PriceMinor = 1
	req.Items[0].Name = "edited"

	stored, err := f.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(500), stored.Items[0].PriceMinor)
	require.Equal(t, "Sneakers", stored.Items[0].Name)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, validRequest(""))
	require.NoError(t, err)

	updated, err := f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, "payment confirmed")
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusProcessing, updated.Status)
	require.Equal(t, int64(1), updated.Version)

	// Недопустимый переход: pending уже позади.
	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, "")
	require.ErrorIs(t, err, domain.ErrStatusTransitionInvalid)

	_, err = f.service.UpdateStatus(ctx, "missing", domain.OrderStatusProcessing, "")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	events, err := f.timeline.List(order.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "status.processing", events[1].Type)
	require.Equal(t, "payment confirmed", events[1].Reason)
}

func TestGetWithHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.service.Create(ctx, validRequest(""))
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, "")
	require.NoError(t, err)

	got, err := f.service.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, order.ID, got.Order.ID)
	require.Len(t, got.Timeline, 2)

	_, err = f.service.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.Create(domain.User{ID: "u-1", Email: "u1@example.com"}))

	_, err := f.service.Create(ctx, validRequest("u-1"))
	require.NoError(t, err)
	_, err = f.service.Create(ctx, validRequest(""))
	require.NoError(t, err)

	mine, err := f.service.ListByUser(ctx, "u-1", 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.service.ListByUser(ctx, "", 0)
	require.ErrorIs(t, err, domain.ErrUserRequired)

	all, err := f.service.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
