// Package orders реализует серверную часть оформления заказа: валидацию
// payload, разрешение личности покупателя, персист заказа и публикацию
// событий через transactional outbox.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// OrderWithHistory — заказ вместе с его историей статусов.
type OrderWithHistory struct {
	Order    domain.Order           `json:"order"`
	Timeline []domain.TimelineEvent `json:"timeline"`
}

// Service обрабатывает заказы витрины.
type Service struct {
	orders   domain.OrderRepository
	users    domain.UserRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
	metrics  *metrics.OrderMetrics
	logger   *log.Entry
}

// NewService создаёт сервис заказов. timeline, outbox и metrics опциональны:
// nil отключает соответствующую функциональность, а не ломает сервис.
func NewService(
	orders domain.OrderRepository,
	users domain.UserRepository,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	orderMetrics *metrics.OrderMetrics,
) *Service {
	return &Service{
		orders:   orders,
		users:    users,
		timeline: timeline,
		outbox:   outbox,
		metrics:  orderMetrics,
		logger:   log.WithField("component", "order-service"),
	}
}

// Create валидирует payload, разрешает покупателя и сохраняет заказ со
// снапшотом позиций. Снапшот после этого момента неизменяем: каталожный
// дрейф не «переосмысляет» историю заказов.
func (s *Service) Create(ctx context.Context, req domain.OrderRequest) (domain.Order, error) {
	started := time.Now()

	if err := s.validateRequest(req); err != nil {
		s.recordRejected()
		return domain.Order{}, err
	}

	user, err := s.resolveUser(ctx, req)
	if err != nil {
		s.recordRejected()
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Items:         snapshotItems(req.Items),
		TotalMinor:    req.TotalMinor,
		DiscountMinor: req.DiscountMinor,
		CouponCode:    req.CouponCode,
		PaymentMethod: req.PaymentMethod,
		Shipping:      req.Shipping,
		Billing:       req.Billing,
		Status:        domain.OrderStatusPending,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.recordRejected()
		return domain.Order{}, errs[0]
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("order persist failed")
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.appendTimeline(order.ID, string(kafka.EventTypeOrderCreated), "", now)
	s.enqueueEvent(kafka.EventTypeOrderCreated, order)

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
		if req.IsGuest() {
			s.metrics.RecordGuestOrder()
		}
		s.metrics.RecordCreateDuration(time.Since(started))
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"user_id":     order.UserID,
		"total_minor": order.TotalMinor,
		"guest":       req.IsGuest(),
	}).Info("order created")

	return order, nil
}

// UpdateStatus переводит заказ в новый статус с проверкой допустимости
// перехода и optimistic locking на уровне репозитория.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus, reason string) (domain.Order, error) {
	if !next.Valid() {
		return domain.Order{}, domain.ErrStatusTransitionInvalid
	}

	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if !order.Status.CanTransitionTo(next) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrStatusTransitionInvalid, order.Status, next)
	}

	previous := order.Status
	now := time.Now().UTC()
	order.Status = next
	order.UpdatedAt = now

	if err := s.orders.Save(order); err != nil {
		return domain.Order{}, fmt.Errorf("save order status: %w", err)
	}
	order.Version++

	s.appendTimeline(order.ID, fmt.Sprintf("status.%s", next), reason, now)
	s.enqueueEvent(kafka.EventTypeOrderStatusChanged, order)

	if s.metrics != nil {
		s.metrics.RecordStatusTransition(string(previous), string(next))
	}

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       next,
	}).Info("order status updated")

	return order, nil
}

// Get возвращает заказ с историей статусов.
func (s *Service) Get(ctx context.Context, orderID string) (OrderWithHistory, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return OrderWithHistory{}, err
	}

	var timeline []domain.TimelineEvent
	if s.timeline != nil {
		timeline, err = s.timeline.List(orderID)
		if err != nil {
			s.logger.WithError(err).WithField("order_id", orderID).Warn("timeline read failed")
			timeline = nil
		}
	}

	return OrderWithHistory{Order: order, Timeline: timeline}, nil
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUserRequired
	}
	return s.orders.ListByUser(userID, limit)
}

// ListAll возвращает все заказы для административной выборки.
func (s *Service) ListAll(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.orders.ListAll(limit)
}

func (s *Service) validateRequest(req domain.OrderRequest) error {
	if len(req.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for _, item := range req.Items {
		if item.Qty <= 0 {
			return domain.ErrItemQtyInvalid
		}
		if item.PriceMinor < 0 {
			return domain.ErrItemPriceInvalid
		}
	}
	if err := req.CheckTotals(); err != nil {
		return err
	}
	if !req.PaymentMethod.Valid() {
		return domain.ErrPaymentMethodInvalid
	}
	return nil
}

// resolveUser возвращает покупателя для запроса. Гостевые запросы
// используют единственную гостевую запись, создаваемую лениво: повторные
// гостевые заказы никогда не плодят новых пользователей.
func (s *Service) resolveUser(ctx context.Context, req domain.OrderRequest) (domain.User, error) {
	if !req.IsGuest() {
		user, err := s.users.GetByID(req.UserID)
		if err != nil {
			return domain.User{}, err
		}
		return user, nil
	}

	user, err := s.users.GetByEmail(domain.GuestEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("lookup guest user: %w", err)
	}

	guest := domain.User{
		ID:        uuid.NewString(),
		Email:     domain.GuestEmail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(guest); err != nil {
		// Гонка двух гостевых заказов: запись уже создана параллельно.
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return s.users.GetByEmail(domain.GuestEmail)
		}
		return domain.User{}, fmt.Errorf("create guest user: %w", err)
	}
	return guest, nil
}

func (s *Service) appendTimeline(orderID, eventType, reason string, occurred time.Time) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: occurred,
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("timeline append failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

func (s *Service) enqueueEvent(eventType kafka.EventType, order domain.Order) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(kafka.NewOrderEvent(eventType, order.ID, order.UserID, string(order.Status), order.TotalMinor))
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("outbox payload marshal failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("outbox enqueue failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *Service) recordRejected() {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected()
	}
}

func snapshotItems(items []domain.OrderRequestItem) []domain.OrderItem {
	result := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		result = append(result, domain.OrderItem{
			ProductID:  item.ProductID,
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Qty:        item.Qty,
			Size:       item.Size,
			Color:      item.Color,
		})
	}
	return result
}
