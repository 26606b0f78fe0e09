package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики жизненного цикла заказов.
type OrderMetrics struct {
	// Счётчики операций
	ordersCreated  prometheus.Counter
	ordersRejected prometheus.Counter
	guestOrders    prometheus.Counter

	// Гистограмма времени создания заказа
	createDuration prometheus.Histogram

	// Переходы статусов
	statusTransitions *prometheus.CounterVec

	// Счётчики инфраструктурных событий
	timelineEvents prometheus.Counter
	outboxEvents   prometheus.Counter
}

// NewOrderMetrics создаёт новый экземпляр метрик заказов.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersRejected: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_rejected_total",
			Help: "Total number of order requests rejected by validation",
		}),
		guestOrders: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_guest_orders_total",
			Help: "Total number of orders placed by the guest identity",
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		statusTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_status_transitions_total",
			Help: "Total number of order status transitions",
		}, []string{"from", "to"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderRejected увеличивает счётчик отклонённых запросов.
func (m *OrderMetrics) RecordOrderRejected() {
	m.ordersRejected.Inc()
}

// RecordGuestOrder увеличивает счётчик гостевых заказов.
func (m *OrderMetrics) RecordGuestOrder() {
	m.guestOrders.Inc()
}

// RecordCreateDuration записывает время создания заказа.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}

// RecordStatusTransition увеличивает счётчик перехода статусов.
func (m *OrderMetrics) RecordStatusTransition(from, to string) {
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
