package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Orders
	OrdersCreated    prometheus.Counter
	OrdersCompleted  prometheus.Counter
	OrderValue       prometheus.Histogram
	PaymentSucceeded prometheus.Counter

	// Refunds
	RefundsIssued *prometheus.CounterVec
	RefundAmount  prometheus.Histogram

	// Contracts
	ContractsSigned prometheus.Counter

	// Invoices
	InvoicesGenerated prometheus.Counter

	// Webhooks
	WebhookReceived  *prometheus.CounterVec
	WebhookProcessed *prometheus.CounterVec
	WebhookFailed    *prometheus.CounterVec
	WebhookLatency   prometheus.Histogram
}

// NewBusinessMetrics registers business metrics with the default registry.
func NewBusinessMetrics() *BusinessMetrics {
	return &BusinessMetrics{
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agencydesk_orders_created_total",
			Help: "Orders created through checkout.",
		}),
		OrdersCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agencydesk_orders_completed_total",
			Help: "Orders that reached the completed state.",
		}),
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agencydesk_order_value_cents",
			Help:    "Order totals in cents.",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 10),
		}),
		PaymentSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agencydesk_payments_succeeded_total",
			Help: "Payments confirmed via the gateway webhook.",
		}),
		RefundsIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agencydesk_refunds_issued_total",
			Help: "Refunds processed, by type.",
		}, []string{"type"}),
		RefundAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agencydesk_refund_amount_cents",
			Help:    "Refund amounts in cents.",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 10),
		}),
		ContractsSigned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agencydesk_contracts_signed_total",
			Help: "Service contracts signed.",
		}),
		InvoicesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agencydesk_invoices_generated_total",
			Help: "Invoices generated for completed orders.",
		}),
		WebhookReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agencydesk_webhook_received_total",
			Help: "Gateway webhook events received, by type.",
		}, []string{"type"}),
		WebhookProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agencydesk_webhook_processed_total",
			Help: "Gateway webhook events processed successfully, by type.",
		}, []string{"type"}),
		WebhookFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agencydesk_webhook_failed_total",
			Help: "Gateway webhook events that failed processing, by type.",
		}, []string{"type"}),
		WebhookLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "agencydesk_webhook_latency_seconds",
			Help:    "Time to process a gateway webhook event.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
