package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics holds the instrumentation for order processing.
type OrderMetrics struct {
	ordersCreated prometheus.Counter
	ordersFailed  *prometheus.CounterVec

	statusChanges *prometheus.CounterVec

	createDuration prometheus.Histogram

	paymentSessionsCreated prometheus.Counter
	paymentSessionsFailed  prometheus.Counter
	paymentConfirmations   prometheus.Counter

	outboxEvents prometheus.Counter

	pendingOrders prometheus.Gauge
}

// NewOrderMetrics registers the order metrics on the default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created successfully",
		}),
		ordersFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_create_failed_total",
			Help: "Total number of failed order creations by reason",
		}, []string{"reason"}),
		statusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_status_changes_total",
			Help: "Total number of order status changes by target status",
		}, []string{"status"}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		paymentSessionsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payment_sessions_created_total",
			Help: "Total number of payment sessions created",
		}),
		paymentSessionsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payment_sessions_failed_total",
			Help: "Total number of payment session creation failures",
		}),
		paymentConfirmations: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_payment_confirmations_total",
			Help: "Total number of payment success notifications applied",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_outbox_events_total",
			Help: "Total number of order events enqueued to the outbox",
		}),
		pendingOrders: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "orders_pending_in_flight",
			Help: "Number of orders currently awaiting payment",
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

func registerGauge(registerer prometheus.Registerer, opts prometheus.GaugeOpts) prometheus.Gauge {
	collector := prometheus.NewGauge(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Gauge)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register gauge %q: %v", opts.Name, err))
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

// RecordOrderCreated increments the created-orders counter and the
// pending gauge, every new order starts in PENDING.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
	m.pendingOrders.Inc()
}

// RecordOrderCreateFailed increments the failure counter for the reason.
func (m *OrderMetrics) RecordOrderCreateFailed(reason string) {
	m.ordersFailed.WithLabelValues(reason).Inc()
}

// RecordStatusChange increments the status-change counter.
func (m *OrderMetrics) RecordStatusChange(status string) {
	m.statusChanges.WithLabelValues(status).Inc()
}

// RecordOrderSettled decrements the pending gauge once an order
// leaves the PENDING state.
func (m *OrderMetrics) RecordOrderSettled() {
	m.pendingOrders.Dec()
}

// RecordCreateDuration records how long an order creation took.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}

// RecordPaymentSessionCreated increments the session counter.
func (m *OrderMetrics) RecordPaymentSessionCreated() {
	m.paymentSessionsCreated.Inc()
}

// RecordPaymentSessionFailed increments the session failure counter.
func (m *OrderMetrics) RecordPaymentSessionFailed() {
	m.paymentSessionsFailed.Inc()
}

// RecordPaymentConfirmation increments the applied-payments counter.
func (m *OrderMetrics) RecordPaymentConfirmation() {
	m.paymentConfirmations.Inc()
}

// RecordOutboxEvent increments the outbox counter.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
