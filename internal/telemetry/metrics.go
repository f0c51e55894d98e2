package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for business-level observability.
type Metrics struct {
	// Cart
	CartItemsAdded *prometheus.CounterVec

	// Checkout funnel
	CheckoutQuoted    prometheus.Counter
	CheckoutConfirmed prometheus.Counter

	// Orders
	OrdersFulfilled prometheus.Counter
	OrdersSwept     prometheus.Counter

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookDebounced prometheus.Counter
	WebhookLatency   *prometheus.HistogramVec

	// Catalog sync
	CatalogResyncs  prometheus.Counter
	CatalogProducts prometheus.Gauge
}

// NewMetrics creates and registers all business metrics with the default
// Prometheus registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "volund"
	}

	subsystem := "business"

	return &Metrics{
		CartItemsAdded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"variant_id"},
		),
		CheckoutQuoted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_quoted_total",
				Help:      "Total shipping/tax quotes produced",
			},
		),
		CheckoutConfirmed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_confirmed_total",
				Help:      "Total orders confirmed into payment sessions",
			},
		),
		OrdersFulfilled: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_fulfilled_total",
				Help:      "Total orders submitted to the fulfillment provider",
			},
		),
		OrdersSwept: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_swept_total",
				Help:      "Total abandoned orders deleted by the sweeper",
			},
		),
		WebhookReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_received_total",
				Help:      "Total webhook deliveries received",
			},
			[]string{"source", "event_type"},
		),
		WebhookProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_processed_total",
				Help:      "Total webhook deliveries processed successfully",
			},
			[]string{"source", "event_type"},
		),
		WebhookFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_failed_total",
				Help:      "Total webhook deliveries that failed processing",
			},
			[]string{"source", "event_type"},
		),
		WebhookDebounced: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_debounced_total",
				Help:      "Total stock webhook deliveries absorbed by the debounce window",
			},
		),
		WebhookLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "webhook_duration_seconds",
				Help:      "Webhook handler latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source", "event_type"},
		),
		CatalogResyncs: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "catalog_resyncs_total",
				Help:      "Total catalog resyncs performed",
			},
		),
		CatalogProducts: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "catalog_products",
				Help:      "Products currently in the synced catalog",
			},
		),
	}
}

// Business is the global metrics instance, set once at startup. Callers
// nil-check it so tests can run without registering metrics.
var Business *Metrics

// InitMetrics initializes the global metrics instance.
func InitMetrics(namespace string) *Metrics {
	Business = NewMetrics(namespace)
	return Business
}
